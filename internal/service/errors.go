package service

import "errors"

var (
	ErrAdminRequired        = errors.New("admin privileges required")
	ErrEmptyContent         = errors.New("message content is required")
	ErrRecipientRequired    = errors.New("recipient is required")
	ErrRecipientNotFound    = errors.New("recipient not found")
	ErrInvalidBroadcastType = errors.New("invalid broadcast type")
	ErrMessageNotFound      = errors.New("message not found")
	ErrUnauthenticated      = errors.New("invalid or expired token")
	ErrOtherUserRequired    = errors.New("other user ID is required")
	ErrSelfChatRoom         = errors.New("cannot open a direct chat with yourself")
)
