package api

import (
	"net/http"

	"go-chat-presence/internal/interfaces"
	"go-chat-presence/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth     middleware.Authenticator
	Registry interfaces.ConnectionRegistry
	WS       *WSHandler
	Chat     *ChatHandler
	User     *UserHandler
	Rooms    *ChatRoomHandler
}

func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.GinZapLogger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": h.Registry.Len()})
	})

	authMiddleware := middleware.AuthMiddleware(h.Auth)

	r.GET("/ws", authMiddleware, h.WS.HandleConnection)

	// 受保护的路由
	protected := r.Group("/api", authMiddleware)
	{
		protected.GET("/auth/user", h.User.CurrentUser)
		protected.GET("/users", h.User.ListUsers)
		protected.GET("/users/online", h.User.OnlineUsers)

		protected.GET("/messages", h.Chat.GetMessages)
		protected.POST("/messages", h.Chat.SendMessage)
		protected.GET("/messages/broadcasts", h.Chat.GetBroadcasts)
		protected.POST("/messages/broadcast", h.Chat.SendBroadcast)
		protected.PATCH("/messages/:id/read", h.Chat.MarkRead)
		protected.GET("/messages/unread/count", h.Chat.UnreadCount)

		protected.GET("/chat-rooms", h.Rooms.ListRooms)
		protected.POST("/chat-rooms/direct", h.Rooms.OpenDirect)
	}

	return r
}
