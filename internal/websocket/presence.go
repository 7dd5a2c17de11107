package websocket

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go-chat-presence/internal/interfaces"
	"go-chat-presence/pkg/logger"

	"go.uber.org/zap"
)

const presenceStripes = 64

// PresenceRecorder 异步写入在线状态.
// 每次写入的是写入时刻注册表里的真实状态, 而不是调用方当时的意图,
// 所以一个迟到的下线写入不会覆盖之后重连产生的在线状态.
// 同一用户的写入串行执行.
type PresenceRecorder struct {
	store    interfaces.PresenceStore
	registry interfaces.ConnectionRegistry
	timeout  time.Duration

	stripes [presenceStripes]sync.Mutex
	wg      sync.WaitGroup
}

func NewPresenceRecorder(store interfaces.PresenceStore, registry interfaces.ConnectionRegistry, timeout time.Duration) *PresenceRecorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
		logger.L.Warn("Invalid presence write timeout, using default", zap.Duration("default", timeout))
	}
	return &PresenceRecorder{
		store:    store,
		registry: registry,
		timeout:  timeout,
	}
}

// Record 在后台写入 userID 当前的在线状态, 不阻塞调用方
func (p *PresenceRecorder) Record(userID string) {
	if p == nil || p.store == nil || userID == "" {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.RecordSync(context.Background(), userID); err != nil {
			logger.L.Error("Failed to record presence", zap.String("userID", userID), zap.Error(err))
		}
	}()
}

func (p *PresenceRecorder) RecordSync(ctx context.Context, userID string) error {
	mu := p.stripe(userID)
	mu.Lock()
	defer mu.Unlock()

	// 在锁内读取, 保证同一用户最后一次写入的是最新状态
	_, online := p.registry.Lookup(userID)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.store.SetOnline(ctx, userID, online); err != nil {
		return err
	}
	logger.L.Debug("Presence recorded", zap.String("userID", userID), zap.Bool("online", online))
	return nil
}

// Wait 等待所有后台写入完成
func (p *PresenceRecorder) Wait() {
	if p == nil {
		return
	}
	p.wg.Wait()
}

func (p *PresenceRecorder) stripe(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &p.stripes[h.Sum32()%presenceStripes]
}
