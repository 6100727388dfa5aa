package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"budget-backend/internal/app/config"
	"budget-backend/internal/app/dsn"
	"budget-backend/internal/app/handler"
	"budget-backend/internal/app/middleware"
	"budget-backend/internal/app/redis"
	"budget-backend/internal/app/repository"
	"budget-backend/internal/app/storage"
	"budget-backend/internal/app/workflow"
	"budget-backend/internal/pkg"
)

// StartServer assembles the full application and blocks serving HTTP.
func StartServer() {
	logrus.Info("starting server")

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	repo, err := repository.New(dsn.FromEnv())
	if err != nil {
		logrus.Fatalf("repository init error: %v", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logrus.Fatalf("redis init error: %v", err)
	}

	var minioClient *storage.MinIOClient
	if cfg.Minio.Endpoint != "" {
		minioClient, err = storage.NewMinIOClient(
			cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey,
			cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			logrus.Fatalf("minio init error: %v", err)
		}
	} else {
		logrus.Warn("minio endpoint not set, document uploads disabled")
	}

	wf := workflow.NewService(repo, logrus.StandardLogger(), nil)
	h := handler.NewHandler(repo, wf, redisClient, cfg, minioClient)
	am := middleware.NewAuthMiddleware(redisClient, cfg)

	app := pkg.NewApp(cfg, gin.Default(), h, am)
	app.RunApp()
}
