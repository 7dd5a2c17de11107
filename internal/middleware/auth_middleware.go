package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go-chat-presence/internal/model"
	"go-chat-presence/internal/service"
	"go-chat-presence/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ContextUserIDKey = "userID"

var errMissingToken = errors.New("authorization token is required")

// Authenticator 校验令牌并返回用户
// service.AuthService实现
type Authenticator interface {
	Authenticate(token string) (*model.User, error)
}

// 验证JWT中间件. 令牌来自 Authorization: Bearer 头,
// 浏览器无法为 WebSocket 握手设置请求头, 因此也接受 ?token= 查询参数.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		user, err := auth.Authenticate(token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
				return
			}
			logger.L.Error("Failed to authenticate request", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}

		// 将用户ID存储在上下文中
		c.Set(ContextUserIDKey, user.ID)

		c.Next()
	}
}

func extractToken(c *gin.Context) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		// 通常Authorization格式为: "Bearer token"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") || parts[1] == "" {
			return "", errors.New("invalid authorization format")
		}
		return parts[1], nil
	}
	if token := c.Query("token"); token != "" {
		return token, nil
	}
	return "", errMissingToken
}

// CurrentUserID 返回认证中间件写入的用户ID
func CurrentUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
