package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go-chat-presence/internal/api"
	"go-chat-presence/internal/repository"
	"go-chat-presence/internal/service"
	internalws "go-chat-presence/internal/websocket"
	"go-chat-presence/pkg/config"
	"go-chat-presence/pkg/db"
	"go-chat-presence/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 初始化配置
	if err := config.Init(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.GlobalConfig

	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.Production); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Log.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库连接
	if err := db.InitDB(); err != nil {
		logger.L.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo := repository.NewUserRepository()
	messageRepo := repository.NewMessageRepository()
	roomRepo := repository.NewChatRoomRepository()

	presenceStore, closePresence, err := internalws.CreatePresenceStore(ctx, userRepo)
	if err != nil {
		logger.L.Fatal("Failed to create presence store", zap.Error(err))
	}
	defer closePresence()

	registry := internalws.NewRegistry()
	dispatcher := internalws.NewDispatcher(registry)
	recorder := internalws.NewPresenceRecorder(presenceStore, registry, cfg.Presence.WriteTimeout)
	gateway := internalws.NewGateway(registry, dispatcher, recorder)

	reconciler := service.NewPresenceReconciler(cfg.Presence.ReconcileSpec, presenceStore, registry, recorder)
	if err := reconciler.Start(ctx); err != nil {
		logger.L.Fatal("Failed to start presence reconciler", zap.Error(err))
	}

	router := api.NewRouter(api.Handlers{
		Auth:     service.NewAuthService(userRepo),
		Registry: registry,
		WS:       api.NewWSHandler(gateway, cfg.WebSocket.AllowedOrigins),
		Chat:     api.NewChatHandler(service.NewChatService(dispatcher, messageRepo, userRepo)),
		User:     api.NewUserHandler(service.NewUserService(userRepo, presenceStore)),
		Rooms:    api.NewChatRoomHandler(service.NewChatRoomService(roomRepo, messageRepo, userRepo)),
	})

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		logger.L.Info("Server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.L.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	reconciler.Stop()
	// 已升级的 WebSocket 连接不受 Shutdown 管理, 需要单独关闭; 每条连接会写入离线状态
	registry.CloseAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("Server forced to shutdown", zap.Error(err))
	}
	recorder.Wait()

	logger.L.Info("Server stopped")
}
