package service

import (
	"context"

	"go-chat-presence/internal/interfaces"
	"go-chat-presence/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PresenceReconciler 定期清理存储中残留的在线标志:
// 存储认为在线, 但注册表中没有连接的用户会被重新写入(结果为离线).
// 进程崩溃后遗留的标志在下次启动时被清除.
type PresenceReconciler struct {
	cron     *cron.Cron
	spec     string
	store    interfaces.PresenceStore
	registry interfaces.ConnectionRegistry
	recorder interfaces.PresenceRecorder
}

func NewPresenceReconciler(spec string, store interfaces.PresenceStore, registry interfaces.ConnectionRegistry, recorder interfaces.PresenceRecorder) *PresenceReconciler {
	if spec == "" {
		spec = "@every 1m"
	}
	return &PresenceReconciler{
		cron:     cron.New(),
		spec:     spec,
		store:    store,
		registry: registry,
		recorder: recorder,
	}
}

// Start 先同步执行一次, 再按计划定期执行
func (r *PresenceReconciler) Start(ctx context.Context) error {
	r.Reconcile(ctx)

	_, err := r.cron.AddFunc(r.spec, func() {
		r.Reconcile(ctx)
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	logger.L.Info("Presence reconciler started", zap.String("spec", r.spec))
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (r *PresenceReconciler) Stop() {
	<-r.cron.Stop().Done()
	logger.L.Info("Presence reconciler stopped")
}

// Reconcile 返回被重新写入的用户数
func (r *PresenceReconciler) Reconcile(ctx context.Context) int {
	ids, err := r.store.OnlineUserIDs(ctx)
	if err != nil {
		logger.L.Error("Failed to read online users for reconciliation", zap.Error(err))
		return 0
	}

	stale := 0
	for _, id := range ids {
		if _, ok := r.registry.Lookup(id); ok {
			continue
		}
		r.recorder.Record(id)
		stale++
	}
	if stale > 0 {
		logger.L.Info("Reconciled stale presence flags", zap.Int("count", stale))
	}
	return stale
}
