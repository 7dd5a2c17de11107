package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Presence  PresenceConfig  `mapstructure:"presence"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Production bool   `mapstructure:"production"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	OnlineKey string `mapstructure:"online_key"`
}

type PresenceConfig struct {
	// "database" 或 "redis"
	Provider      string        `mapstructure:"provider"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	ReconcileSpec string        `mapstructure:"reconcile_spec"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
	Issuer     string        `mapstructure:"issuer"`
}

type WebSocketConfig struct {
	SendBufferSize   int   `mapstructure:"send_buffer_size"`
	WriteWaitSeconds int   `mapstructure:"write_wait_seconds"`
	PongWaitSeconds  int   `mapstructure:"pong_wait_seconds"`
	MaxMessageSize   int64 `mapstructure:"max_message_size"`
	// 未认证连接的超时时间, 0 表示不限制
	AuthTimeout    time.Duration `mapstructure:"auth_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

var GlobalConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.production", false)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.online_key", "presence:online")
	v.SetDefault("presence.provider", "database")
	v.SetDefault("presence.write_timeout", 5*time.Second)
	v.SetDefault("presence.reconcile_spec", "@every 1m")
	v.SetDefault("jwt.expiration", 24*time.Hour)
	v.SetDefault("websocket.send_buffer_size", 256)
	v.SetDefault("websocket.write_wait_seconds", 10)
	v.SetDefault("websocket.pong_wait_seconds", 60)
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.auth_timeout", 0)
}

// configDir 返回 <模块根目录>/config, 与当前工作目录无关
func configDir() string {
	_, b, _, _ := runtime.Caller(0)
	basepath := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	return filepath.Join(basepath, "config")
}

func load(name string) error {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir())
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	GlobalConfig = cfg
	return nil
}

func Init() error {
	return load("config")
}

// InitTest 加载 config/config.test.yaml
func InitTest() error {
	return load("config.test")
}
