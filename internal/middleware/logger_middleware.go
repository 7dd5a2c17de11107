package middleware

import (
	"net/http"
	"time"

	"go-chat-presence/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinZapLogger 按状态码选择日志级别记录每个请求
func GinZapLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// 处理请求
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		fields := []zap.Field{
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", redactToken(c)))
		}
		if userID, ok := CurrentUserID(c); ok {
			fields = append(fields, zap.String("userID", userID))
		}
		if errorMessage != "" {
			fields = append(fields, zap.String("error", errorMessage))
		}

		// 读取 logger.L 放在请求结束时, 以便使用初始化之后的 logger
		log := logger.L
		switch {
		case statusCode >= http.StatusInternalServerError:
			log.Error("Request", fields...)
		case statusCode >= http.StatusBadRequest:
			log.Warn("Request", fields...)
		default:
			log.Info("Request", fields...)
		}
	}
}

// 查询参数中的令牌不写入日志
func redactToken(c *gin.Context) string {
	q := c.Request.URL.Query()
	if q.Has("token") {
		q.Set("token", "REDACTED")
	}
	return q.Encode()
}
