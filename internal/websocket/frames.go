package websocket

import (
	"fmt"

	"go-chat-presence/internal/event"

	"github.com/goccy/go-json"
)

const (
	FrameAuth       = "auth"
	FrameTyping     = "typing"
	FrameMessage    = "message"
	FrameUserStatus = "userStatus"
)

// 客户端发来的帧; 按 type 只使用对应字段
type inboundFrame struct {
	Type        string `json:"type"`
	UserID      string `json:"userId,omitempty"`
	RecipientID string `json:"recipientId,omitempty"`
	IsTyping    bool   `json:"isTyping,omitempty"`
}

type messageFrame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type userStatusFrame struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

type typingFrame struct {
	Type     string `json:"type"`
	SenderID string `json:"senderId"`
	IsTyping bool   `json:"isTyping"`
}

func decodeFrame(data []byte) (inboundFrame, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return frame, err
	}
	if frame.Type == "" {
		return frame, fmt.Errorf("frame has no type")
	}
	return frame, nil
}

// encodeEvent 把事件编码成下发给客户端的帧
func encodeEvent(ev event.Event) ([]byte, error) {
	switch e := ev.(type) {
	case event.DirectMessage:
		return json.Marshal(messageFrame{Type: FrameMessage, Data: e.Payload})
	case event.Broadcast:
		return json.Marshal(messageFrame{Type: FrameMessage, Data: e.Payload})
	case event.PresenceChange:
		return encodeUserStatus(e.UserID, e.IsOnline)
	case event.Typing:
		return json.Marshal(typingFrame{Type: FrameTyping, SenderID: e.SenderID, IsTyping: e.IsTyping})
	default:
		return nil, fmt.Errorf("unsupported event type %T", ev)
	}
}

func encodeUserStatus(userID string, online bool) ([]byte, error) {
	return json.Marshal(userStatusFrame{Type: FrameUserStatus, UserID: userID, IsOnline: online})
}
