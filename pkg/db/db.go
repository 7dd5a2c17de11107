package db

import (
	"fmt"

	"go-chat-presence/internal/model"
	"go-chat-presence/pkg/config"
	"go-chat-presence/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// 初始化数据库连接
func InitDB() error {
	dbConfig := config.GlobalConfig.Database
	if dbConfig.DSN == "" {
		return fmt.Errorf("database dsn is not configured")
	}

	var err error
	DB, err = gorm.Open(mysql.Open(dbConfig.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// 连接池
	if dbConfig.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	}
	if dbConfig.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	}
	if dbConfig.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)
	}

	// 自动迁移模式
	if err := DB.AutoMigrate(&model.User{}, &model.Message{}, &model.ChatRoom{}, &model.ChatParticipant{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.L.Info("Database connected and migrated successfully",
		zap.Int("maxOpenConns", dbConfig.MaxOpenConns),
		zap.Int("maxIdleConns", dbConfig.MaxIdleConns))
	return nil
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
