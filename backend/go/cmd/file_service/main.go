package main

import (
	"context"
	"encoding/json"
	"log"

	"pdf-collab/backend/go/internal/config"
	"pdf-collab/backend/go/internal/database/kafka"
	"pdf-collab/backend/go/internal/database/minio"
	"pdf-collab/backend/go/internal/database/mysql"
	"pdf-collab/backend/go/internal/database/redis"
	"pdf-collab/backend/go/internal/file_service/api"
	"pdf-collab/backend/go/internal/file_service/notify"
	"pdf-collab/backend/go/internal/file_service/service"
	"pdf-collab/backend/go/internal/file_service/store"
	"pdf-collab/backend/go/internal/models"
	"pdf-collab/backend/go/pkg/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New("file_service", "", "")

	appLogger.Info("Logger initialized")

	// Initialize database connection
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Database connection established")

	// Auto-migrate database schema
	err = db.AutoMigrate(&models.File{}, &models.User{}, &models.MagicLinkToken{})
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Database migration completed")

	// Initialize object storage
	minioClient, err := minio.GetClient(&cfg.Databases.MinIO)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Object storage connection established")

	// Initialize Redis for change notifications
	rdb, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer redis.Close()
	appLogger.Info("Redis connection established")

	// Kafka 是可选的: 没有配置 broker 时事件流水关闭, 其余功能不受影响。
	var eventPublisher service.EventPublisher
	if len(cfg.Databases.Kafka.Brokers) > 0 {
		kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
		if err != nil {
			appLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Kafka unavailable, file event trail disabled")
		} else {
			defer kafkaClient.Close()
			eventPublisher = kafka.NewEventPublisher(kafkaClient)
			appLogger.Info("Kafka event publisher initialized")
		}
	}

	channel := cfg.Databases.Redis.Channel
	if channel == "" {
		channel = notify.DefaultChannel
	}
	notifier := notify.NewNotifier(rdb, channel, appLogger)

	// Initialize dependencies (Store -> Service -> Handler)
	metaStore := store.NewStore(db)
	objectStore := store.NewObjectStore(minioClient, cfg.Databases.MinIO.Bucket)
	fileService, err := service.NewService(metaStore, objectStore, notifier, eventPublisher, service.Options{
		SignedURLTTL:  cfg.Storage.SignedURLTTLDuration(),
		URLCacheTTL:   cfg.Storage.URLCacheTTLDuration(),
		URLCacheSize:  cfg.Storage.URLCacheSize,
		MaxUploadSize: int64(cfg.Storage.MaxUploadSize),
	}, appLogger)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	authService := service.NewAuthService(metaStore, cfg.Auth.JwtSecret,
		cfg.Auth.TokenTTLDuration(), cfg.Auth.MagicLinkTTLDuration(), cfg.Auth.BaseURL, appLogger)
	manager := service.NewConnectionManager()
	appLogger.Info("Dependencies injected")

	// 把 Redis 上的变更通知转发给所有 WebSocket 订阅者。
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for event := range notifier.Subscribe(ctx) {
			raw, err := json.Marshal(event)
			if err != nil {
				continue
			}
			manager.Broadcast(raw)
		}
	}()

	// Setup and start Gin router
	apiHandler := api.NewHandler(fileService, authService, manager, appLogger)
	apiHandler.HealthChecks = map[string]func(ctx context.Context) error{
		"mysql": mysql.HealthCheck,
		"redis": redis.HealthCheck,
		"minio": minio.HealthCheck,
	}
	router := api.SetupRouter(apiHandler, cfg.Auth.JwtSecret)
	appLogger.Info("Router setup completed")

	serverAddress := cfg.Server.Address
	if serverAddress == "" {
		serverAddress = ":8080"
	}
	appLogger.Info("Starting server on " + serverAddress)

	if err := router.Run(serverAddress); err != nil {
		appLogger.Fatal(err.Error())
	}
}
