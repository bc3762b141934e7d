package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"sensacare-alert/internal/config"
	"sensacare-alert/internal/models"
)

// AlertCache 活跃报警缓存（供 App 实时界面读取，按用户维度存储）
type AlertCache struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewAlertCache 创建报警缓存
func NewAlertCache(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) *AlertCache {
	return &AlertCache{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

// cacheKey 构建缓存键
func (c *AlertCache) cacheKey(userID string) string {
	return fmt.Sprintf("%s%s%s",
		c.config.Alert.Cache.AlertKeyPrefix,
		userID,
		c.config.Alert.Cache.AlertSuffix,
	)
}

// UpdateAlertCache 更新用户的活跃报警缓存（设置 TTL）
func (c *AlertCache) UpdateAlertCache(ctx context.Context, userID string, alerts []models.Alert) error {
	key := c.cacheKey(userID)

	jsonData, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal alert data: %w", err)
	}

	err = c.redisClient.Set(
		ctx,
		key,
		jsonData,
		time.Duration(c.config.Alert.Cache.AlertTTL)*time.Second,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set alert cache: %w", err)
	}

	c.logger.Debug("Updated alert cache",
		zap.String("user_id", userID),
		zap.String("key", key),
		zap.Int("alert_count", len(alerts)),
	)

	return nil
}

// GetActiveAlerts 读取用户的活跃报警缓存
func (c *AlertCache) GetActiveAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	key := c.cacheKey(userID)

	val, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alert cache: %w", err)
	}

	var alerts []models.Alert
	if err := json.Unmarshal([]byte(val), &alerts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert cache: %w", err)
	}

	return alerts, nil
}
