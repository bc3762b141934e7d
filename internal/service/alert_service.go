package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"sensacare-alert/internal/config"
	"sensacare-alert/internal/consumer"
	"sensacare-alert/internal/database"
	"sensacare-alert/internal/evaluator"
	"sensacare-alert/internal/redisx"
	"sensacare-alert/internal/repository"
	"sensacare-alert/internal/sync"
)

// AlertService 报警服务（整合各层）
type AlertService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger

	// 各层组件
	ruleRepo       *repository.ThresholdRuleRepository
	alertRepo      *repository.AlertRepository
	goalRepo       *repository.GoalRepository
	stateManager   *consumer.StateManager
	alertCache     *consumer.AlertCache
	streamConsumer *consumer.StreamConsumer
	evaluator      *evaluator.Evaluator
	cloudClient    *sync.CloudClient
	sweeper        *EscalationSweeper
	goalService    *GoalService
}

// NewAlertService 创建报警服务
func NewAlertService(cfg *config.Config, logger *zap.Logger) (*AlertService, error) {
	// 1. 连接数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := redisx.NewRedisClient(&cfg.Redis)
	if err := redisx.Ping(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 创建 Repository 层
	ruleRepo := repository.NewThresholdRuleRepository(db, logger)
	alertRepo := repository.NewAlertRepository(db, logger)
	goalRepo := repository.NewGoalRepository(db, logger)

	// 4. 创建缓存与状态层
	stateManager := consumer.NewStateManager(cfg, redisClient, logger)
	alertCache := consumer.NewAlertCache(cfg, redisClient, logger)

	// 5. 创建评估器
	occurrence := evaluator.NewOccurrenceTracker(stateManager, logger)
	eval := evaluator.NewEvaluator(ruleRepo, alertRepo, occurrence, logger)

	// 6. 远端同步客户端
	cloudClient := sync.NewCloudClient(cfg.Cloud.BaseURL, cfg.Cloud.APIKey, cfg.Cloud.Enabled, logger)

	s := &AlertService{
		config:       cfg,
		db:           db,
		redisClient:  redisClient,
		logger:       logger,
		ruleRepo:     ruleRepo,
		alertRepo:    alertRepo,
		goalRepo:     goalRepo,
		stateManager: stateManager,
		alertCache:   alertCache,
		evaluator:    eval,
		cloudClient:  cloudClient,
	}

	// 7. 目标进度服务（复用同一测量流）
	s.goalService = NewGoalService(goalRepo, logger)

	// 8. 测量流消费者与升级巡检
	s.streamConsumer = consumer.NewStreamConsumer(cfg, redisClient, s, logger)
	s.sweeper = NewEscalationSweeper(cfg, alertRepo, alertCache, cloudClient, logger)

	return s, nil
}

// Start 启动服务（测量流消费 + 升级巡检，任一退出即返回）
func (s *AlertService) Start(ctx context.Context) error {
	s.logger.Info("Starting alert service")

	errChan := make(chan error, 2)

	go func() {
		errChan <- s.streamConsumer.Start(ctx)
	}()

	go func() {
		errChan <- s.sweeper.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errChan:
		return err
	}
}

// Stop 停止服务
func (s *AlertService) Stop() error {
	s.logger.Info("Stopping alert service")

	if err := database.Close(s.db); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	if err := redisx.Close(s.redisClient); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}

// Goals 目标进度服务
func (s *AlertService) Goals() *GoalService {
	return s.goalService
}
