package websocket

import (
	"time"

	"go-chat-presence/pkg/config"
	"go-chat-presence/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Gateway 接收新的双工连接, 为每条连接创建 Session
type Gateway struct {
	registry   *Registry
	dispatcher *Dispatcher
	presence   *PresenceRecorder

	authTimeout   time.Duration
	clientOptions ClientOptions
}

func NewGateway(registry *Registry, dispatcher *Dispatcher, presence *PresenceRecorder) *Gateway {
	wsConfig := config.GlobalConfig.WebSocket

	authTimeout := wsConfig.AuthTimeout
	if authTimeout < 0 {
		authTimeout = 0
		logger.L.Warn("Invalid AuthTimeout, disabling pending timeout")
	}

	return &Gateway{
		registry:      registry,
		dispatcher:    dispatcher,
		presence:      presence,
		authTimeout:   authTimeout,
		clientOptions: ClientOptionsFromConfig(wsConfig),
	}
}

func (g *Gateway) NewSession(verifiedUserID string, transport Transport) *Session {
	return newSession(verifiedUserID, transport, g)
}

// Accept 为已升级的连接启动读写协程, 连接处于 Pending 状态直到收到 auth 帧
func (g *Gateway) Accept(conn *websocket.Conn, verifiedUserID string) *Session {
	client := NewClient(conn, g.clientOptions)
	session := g.NewSession(verifiedUserID, client)
	logger.L.Info("WebSocket connection accepted",
		zap.String("connID", session.ID()),
		zap.String("verifiedUserID", verifiedUserID))
	client.Run(session)
	return session
}
