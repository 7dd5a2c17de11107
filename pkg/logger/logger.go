package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 全局日志记录器实例, 初始化之前(例如测试中)为 no-op
var L = zap.NewNop()

// InitLogger 初始化 L.
// `level`可以是“debug”、“info”、“warn”、“error”、“fatal”、“panic”。
// `isProduction`确定使用JSON格式(生产)还是彩色控制台格式(开发)。
func InitLogger(level string, isProduction bool) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
		fmt.Fprintf(os.Stderr, "Warning: Invalid log level '%s', using default 'info'. Error: %v\n", level, err)
	}

	var (
		built *zap.Logger
		err   error
	)
	if isProduction {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapLevel)
		built, err = cfg.Build()
	} else {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.Level = zap.NewAtomicLevelAt(zapLevel)
		built, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize zap logger: %w", err)
	}

	L = built
	L.Info("Zap logger initialized", zap.String("level", zapLevel.String()), zap.Bool("productionMode", isProduction))
	return nil
}

// Sync刷新缓冲的日志条目, 在程序退出之前调用
func Sync() {
	if L != nil {
		_ = L.Sync()
	}
}
