package api

import (
	"net/http"
	"net/url"
	"strings"

	"go-chat-presence/internal/middleware"
	internalws "go-chat-presence/internal/websocket"
	"go-chat-presence/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	gateway  *internalws.Gateway
	upgrader websocket.Upgrader
}

// allowedOrigins 为空时允许所有来源
func NewWSHandler(gateway *internalws.Gateway, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		gateway: gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

// HandleConnection 升级连接. 令牌在握手时已由认证中间件验证,
// 会话只接受与令牌身份一致的 auth 帧.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		logger.L.Error("userID not found in context for WebSocket")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L.Warn("Failed to upgrade WebSocket connection", zap.String("userID", userID), zap.Error(err))
		return
	}

	h.gateway.Accept(conn, userID)
}
