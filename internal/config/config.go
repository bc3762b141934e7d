package config

import (
	"fmt"
	"os"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config 报警服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	// 报警引擎配置
	Alert struct {
		// Redis 缓存配置
		Cache struct {
			StateKeyPrefix string // 触发累计状态键前缀，如 "alert:occurrence:"
			AlertKeyPrefix string // 活跃报警缓存键前缀，如 "sensacare:user:"
			AlertSuffix    string // 活跃报警缓存键后缀，如 ":alerts"
			AlertTTL       int    // 活跃报警缓存 TTL（秒）
		}

		// 测量数据流配置
		Streams struct {
			Measurements  string // 测量数据流名称
			ConsumerGroup string
			ConsumerName  string
			BatchSize     int // 单次 XREADGROUP 读取条数
		}

		// 升级巡检配置
		Sweep struct {
			IntervalSeconds int // 巡检间隔（秒）
			BatchSize       int // 单批处理报警数量
		}

		// 终态报警保留天数（用户清理时使用）
		RetentionDays int
	}

	// 远端同步配置
	Cloud struct {
		Enabled bool
		BaseURL string
		APIKey  string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置（环境变量 + 默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "sensacare")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Alert.Cache.StateKeyPrefix = getEnv("CACHE_STATE_PREFIX", "alert:occurrence:")
	cfg.Alert.Cache.AlertKeyPrefix = getEnv("CACHE_ALERT_PREFIX", "sensacare:user:")
	cfg.Alert.Cache.AlertSuffix = ":alerts"
	cfg.Alert.Cache.AlertTTL = getEnvInt("CACHE_ALERT_TTL", 60)

	cfg.Alert.Streams.Measurements = getEnv("STREAM_MEASUREMENTS", "sensacare:measurements")
	cfg.Alert.Streams.ConsumerGroup = getEnv("STREAM_CONSUMER_GROUP", "sensacare-alert")
	cfg.Alert.Streams.ConsumerName = getEnv("STREAM_CONSUMER_NAME", "sensacare-alert-1")
	cfg.Alert.Streams.BatchSize = getEnvInt("STREAM_BATCH_SIZE", 10)

	cfg.Alert.Sweep.IntervalSeconds = getEnvInt("SWEEP_INTERVAL", 60)
	cfg.Alert.Sweep.BatchSize = getEnvInt("SWEEP_BATCH_SIZE", 100)

	cfg.Alert.RetentionDays = getEnvInt("ALERT_RETENTION_DAYS", 90)

	cfg.Cloud.Enabled = getEnv("CLOUD_SYNC_ENABLED", "false") == "true"
	cfg.Cloud.BaseURL = getEnv("CLOUD_BASE_URL", "")
	cfg.Cloud.APIKey = getEnv("CLOUD_API_KEY", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err == nil {
			return n
		}
	}
	return defaultValue
}
