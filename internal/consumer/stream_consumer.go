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
	"sensacare-alert/internal/redisx"
)

// MeasurementHandler 测量数据处理接口（由 service 层实现）
type MeasurementHandler interface {
	ProcessMeasurement(ctx context.Context, m *models.Measurement) error
}

// StreamConsumer 测量数据流消费者（Redis Streams 消费者组）
type StreamConsumer struct {
	config      *config.Config
	redisClient *redis.Client
	handler     MeasurementHandler
	logger      *zap.Logger
}

// NewStreamConsumer 创建 Streams 消费者
func NewStreamConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	handler MeasurementHandler,
	logger *zap.Logger,
) *StreamConsumer {
	return &StreamConsumer{
		config:      cfg,
		redisClient: redisClient,
		handler:     handler,
		logger:      logger,
	}
}

// Start 启动消费者
func (c *StreamConsumer) Start(ctx context.Context) error {
	stream := c.config.Alert.Streams.Measurements
	group := c.config.Alert.Streams.ConsumerGroup

	if err := redisx.CreateConsumerGroup(ctx, c.redisClient, stream, group); err != nil {
		return fmt.Errorf("failed to create consumer group for %s: %w", stream, err)
	}

	c.logger.Info("Stream consumer started",
		zap.String("stream", stream),
		zap.String("consumer_group", group),
		zap.String("consumer_name", c.config.Alert.Streams.ConsumerName),
	)

	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stream consumer stopped")
			return nil
		default:
			if err := c.consumeOnce(ctx); err != nil {
				c.logger.Error("Failed to consume measurement stream",
					zap.Error(err),
					zap.Duration("backoff", backoffDuration),
				)

				// 指数退避：等待后重试
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoffDuration):
					backoffDuration *= 2
					if backoffDuration > maxBackoff {
						backoffDuration = maxBackoff
					}
				}
			} else {
				backoffDuration = time.Second
			}
		}
	}
}

// consumeOnce 读取并处理一批消息
func (c *StreamConsumer) consumeOnce(ctx context.Context) error {
	stream := c.config.Alert.Streams.Measurements
	group := c.config.Alert.Streams.ConsumerGroup

	messages, err := redisx.ReadFromStream(
		ctx,
		c.redisClient,
		stream,
		group,
		c.config.Alert.Streams.ConsumerName,
		int64(c.config.Alert.Streams.BatchSize),
	)
	if err != nil {
		return fmt.Errorf("failed to read from stream %s: %w", stream, err)
	}

	for _, msg := range messages {
		if err := c.processMessage(ctx, &msg); err != nil {
			c.logger.Error("Failed to process measurement message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			// 继续处理下一条消息，不中断
			continue
		}

		if err := redisx.AckMessage(ctx, c.redisClient, stream, group, msg.ID); err != nil {
			c.logger.Warn("Failed to ack message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// processMessage 处理单条消息（消息体为 JSON 序列化的 Measurement）
func (c *StreamConsumer) processMessage(ctx context.Context, msg *redisx.StreamMessage) error {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		return fmt.Errorf("message %s has no data field", msg.ID)
	}

	m, err := ParseMeasurement([]byte(raw))
	if err != nil {
		return fmt.Errorf("failed to parse measurement: %w", err)
	}

	return c.handler.ProcessMeasurement(ctx, m)
}

// ParseMeasurement 解析测量数据 JSON（存储边界的显式校验，损坏数据返回错误）
func ParseMeasurement(raw []byte) (*models.Measurement, error) {
	var payload struct {
		MeasurementID string  `json:"measurement_id"`
		UserID        string  `json:"user_id"`
		MetricType    string  `json:"metric_type"`
		Value         float64 `json:"value"`
		Timestamp     int64   `json:"timestamp"`
		Source        *string `json:"source,omitempty"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal measurement: %w", err)
	}

	if payload.UserID == "" {
		return nil, fmt.Errorf("measurement has no user_id")
	}

	metric, err := models.ParseMetricType(payload.MetricType)
	if err != nil {
		return nil, err
	}

	return &models.Measurement{
		MeasurementID: payload.MeasurementID,
		UserID:        payload.UserID,
		MetricType:    metric,
		Value:         payload.Value,
		Timestamp:     time.Unix(payload.Timestamp, 0),
		Source:        payload.Source,
	}, nil
}
