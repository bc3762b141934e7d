package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"sensacare-alert/internal/models"
)

// CloudResponse Sensacare 后端 API 响应信封
type CloudResponse struct {
	Status int             `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

// notifyContactsResult 紧急联系人通知结果
type notifyContactsResult struct {
	ContactIDs []string `json:"contact_ids"`
}

// CloudClient Sensacare 后端同步客户端
// 推送新建/升级的报警记录，并请求后端向紧急联系人发送通知
type CloudClient struct {
	httpClient *resty.Client
	enabled    bool
	logger     *zap.Logger
}

// NewCloudClient 创建后端同步客户端
func NewCloudClient(baseURL, apiKey string, enabled bool, logger *zap.Logger) *CloudClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-Api-Key", apiKey)

	return &CloudClient{
		httpClient: client,
		enabled:    enabled,
		logger:     logger,
	}
}

// Enabled 同步是否启用（未配置后端时所有推送都是空操作）
func (c *CloudClient) Enabled() bool {
	return c.enabled
}

// PushAlert 推送报警记录到后端
func (c *CloudClient) PushAlert(ctx context.Context, alert *models.Alert) error {
	if !c.enabled {
		return nil
	}

	var result CloudResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(alert).
		SetResult(&result).
		Post("/v1/alerts")
	if err != nil {
		return fmt.Errorf("failed to push alert: %w", err)
	}

	if resp.IsError() || result.Status != 0 {
		return fmt.Errorf("push alert rejected: http=%d status=%d msg=%s",
			resp.StatusCode(), result.Status, result.Msg)
	}

	c.logger.Debug("Alert pushed to cloud",
		zap.String("alert_id", alert.AlertID),
		zap.String("severity", string(alert.Severity)),
	)

	return nil
}

// NotifyEmergencyContacts 请求后端向用户的紧急联系人发送通知
// 返回后端实际通知到的联系人 ID 列表
func (c *CloudClient) NotifyEmergencyContacts(ctx context.Context, alert *models.Alert) ([]string, error) {
	if !c.enabled {
		return nil, nil
	}

	payload := map[string]interface{}{
		"alert_id":   alert.AlertID,
		"user_id":    alert.UserID,
		"alert_type": string(alert.AlertType),
		"severity":   string(alert.Severity),
		"title":      alert.Title,
		"message":    alert.Message,
	}

	var result CloudResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		Post("/v1/alerts/notify-contacts")
	if err != nil {
		return nil, fmt.Errorf("failed to notify emergency contacts: %w", err)
	}

	if resp.IsError() || result.Status != 0 {
		return nil, fmt.Errorf("notify contacts rejected: http=%d status=%d msg=%s",
			resp.StatusCode(), result.Status, result.Msg)
	}

	var notified notifyContactsResult
	if len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, &notified); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notify result: %w", err)
		}
	}

	c.logger.Info("Emergency contacts notified",
		zap.String("alert_id", alert.AlertID),
		zap.Int("contact_count", len(notified.ContactIDs)),
	)

	return notified.ContactIDs, nil
}
