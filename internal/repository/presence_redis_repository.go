package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go-chat-presence/pkg/config"

	"github.com/go-redis/redis/v8"
)

// RedisPresenceRepository 把在线用户保存在一个 Redis set 中,
// 下线时间写入 <key>:last_seen 哈希
type RedisPresenceRepository struct {
	client *redis.Client
	key    string
}

func NewRedisClient(ctx context.Context) (*redis.Client, error) {
	redisConfig := config.GlobalConfig.Redis
	if redisConfig.Address == "" {
		return nil, fmt.Errorf("redis address is not configured")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     redisConfig.Address,
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisPresenceRepository(client *redis.Client, key string) *RedisPresenceRepository {
	if key == "" {
		key = "presence:online"
	}
	return &RedisPresenceRepository{client: client, key: key}
}

func (r *RedisPresenceRepository) lastSeenKey() string {
	return r.key + ":last_seen"
}

func (r *RedisPresenceRepository) SetOnline(ctx context.Context, userID string, online bool) error {
	if online {
		return r.client.SAdd(ctx, r.key, userID).Err()
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, r.key, userID)
		pipe.HSet(ctx, r.lastSeenKey(), userID, time.Now().Unix())
		return nil
	})
	return err
}

func (r *RedisPresenceRepository) OnlineUserIDs(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, r.key).Result()
}

// LastSeen 批量读取用户最后一次下线的时间, 从未记录的用户不在结果中
func (r *RedisPresenceRepository) LastSeen(ctx context.Context, userIDs ...string) (map[string]time.Time, error) {
	seen := make(map[string]time.Time, len(userIDs))
	if len(userIDs) == 0 {
		return seen, nil
	}
	values, err := r.client.HMGet(ctx, r.lastSeenKey(), userIDs...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid last seen for %s: %w", userIDs[i], err)
		}
		seen[userIDs[i]] = time.Unix(unix, 0)
	}
	return seen, nil
}
