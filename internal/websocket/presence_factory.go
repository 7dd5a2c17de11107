package websocket

import (
	"context"
	"fmt"

	"go-chat-presence/internal/interfaces"
	"go-chat-presence/internal/repository"
	"go-chat-presence/pkg/config"
	"go-chat-presence/pkg/logger"

	"go.uber.org/zap"
)

const (
	PresenceProviderDatabase = "database"
	PresenceProviderRedis    = "redis"
)

// CreatePresenceStore 根据配置创建相应的在线状态存储.
// 返回的 closer 用于释放存储自己持有的连接.
func CreatePresenceStore(ctx context.Context, userRepo *repository.UserRepository) (interfaces.PresenceStore, func() error, error) {
	provider := config.GlobalConfig.Presence.Provider
	logger.L.Info("Creating presence store", zap.String("provider", provider))

	switch provider {
	case "", PresenceProviderDatabase:
		// users 表中的 is_online / last_seen
		return userRepo, func() error { return nil }, nil

	case PresenceProviderRedis:
		client, err := repository.NewRedisClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewRedisPresenceRepository(client, config.GlobalConfig.Redis.OnlineKey)
		return store, client.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported presence provider %q", provider)
	}
}
