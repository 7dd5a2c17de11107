package api

import (
	"net/http"

	"go-chat-presence/internal/middleware"
	"go-chat-presence/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatRoomHandler struct {
	roomService *service.ChatRoomService
}

func NewChatRoomHandler(roomService *service.ChatRoomService) *ChatRoomHandler {
	return &ChatRoomHandler{roomService: roomService}
}

// 当前用户参与的聊天室
func (h *ChatRoomHandler) ListRooms(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	rooms, err := h.roomService.ListForUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// 获取或创建与另一个用户的私聊房间
func (h *ChatRoomHandler) OpenDirect(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var req service.DirectRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	room, err := h.roomService.GetOrCreateDirect(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}
