package api

import (
	"errors"
	"net/http"

	"go-chat-presence/internal/middleware"
	"go-chat-presence/internal/service"
	"go-chat-presence/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 处理聊天相关的HTTP请求
type ChatHandler struct {
	chatService *service.ChatService
}

// 创建一个新的聊天处理器实例
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// 服务层错误到HTTP状态码
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrAdminRequired):
		return http.StatusForbidden
	case errors.Is(err, service.ErrMessageNotFound), errors.Is(err, service.ErrRecipientNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrRecipientRequired),
		errors.Is(err, service.ErrInvalidBroadcastType),
		errors.Is(err, service.ErrOtherUserRequired),
		errors.Is(err, service.ErrSelfChatRoom):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.L.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// 发送私聊消息
func (h *ChatHandler) SendMessage(c *gin.Context) {
	senderID, _ := middleware.CurrentUserID(c)

	var req service.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.L.Warn("Failed to bind SendMessage request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	message, err := h.chatService.SendDirect(senderID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

// 发送广播, 仅管理员
func (h *ChatHandler) SendBroadcast(c *gin.Context) {
	senderID, _ := middleware.CurrentUserID(c)

	var req service.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	message, err := h.chatService.SendBroadcast(senderID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

// 获取消息记录; 带 otherUserId 时只返回双方私聊
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	messages, err := h.chatService.GetMessages(userID, c.Query("otherUserId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) GetBroadcasts(c *gin.Context) {
	messages, err := h.chatService.GetBroadcasts()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	if err := h.chatService.MarkRead(userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	count, err := h.chatService.UnreadCount(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
