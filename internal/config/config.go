package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置（积分榜存储，留空则禁用）
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	TickRate        int `yaml:"tick_rate"`        // 帧率（Hz）
	ShutdownTimeout int `yaml:"shutdown_timeout"` // 优雅关闭等待游戏结束的超时（秒）
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string          `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig   `yaml:"rate_limit"`
	MessageLimit   MessageRateConfig `yaml:"message_limit"`
}

// RateLimitConfig 连接速率限制配置
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 封禁时长（秒）
}

// MessageRateConfig 消息速率限制配置
type MessageRateConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// TickInterval 返回帧间隔
func (c *GameConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// ShutdownTimeoutDuration 返回优雅关闭超时时长
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.fillDefaults()
	return &cfg, nil
}

// fillDefaults 补齐缺省值
func (c *Config) fillDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 2680
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = 1000
	}
	if c.Game.TickRate == 0 {
		c.Game.TickRate = 60
	}
	if c.Game.ShutdownTimeout == 0 {
		c.Game.ShutdownTimeout = 120
	}
	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
	if c.Security.RateLimit.MaxPerSecond == 0 {
		c.Security.RateLimit.MaxPerSecond = 5
	}
	if c.Security.RateLimit.MaxPerMinute == 0 {
		c.Security.RateLimit.MaxPerMinute = 60
	}
	if c.Security.RateLimit.BanDuration == 0 {
		c.Security.RateLimit.BanDuration = 300
	}
	if c.Security.MessageLimit.MaxPerSecond == 0 {
		c.Security.MessageLimit.MaxPerSecond = 120
	}
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.fillDefaults()
	cfg.Redis.Addr = "localhost:6379"
	return cfg
}
