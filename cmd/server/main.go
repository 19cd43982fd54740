package main

import (
	"log/slog"
	"time"

	"ibimina-reconciliation-backend/internal/config"
	"ibimina-reconciliation-backend/internal/events"
	"ibimina-reconciliation-backend/internal/events/kafka"
	"ibimina-reconciliation-backend/internal/models"
	"ibimina-reconciliation-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, relying on system env")
	}

	cfg := config.Load()
	db := config.InitDB()

	db.AutoMigrate(
		&models.Sacco{},
		&models.Ikimina{},
		&models.Member{},
		&models.SmsMessage{},
		&models.Payment{},
		&models.LedgerEntry{},
		&models.AuditLog{},
		&models.SystemMetric{},
	)

	rdb := config.InitRedis(cfg)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.KafkaBrokers != "" {
		publisher = kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	defer publisher.Close()

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Signature", "X-Timestamp", "X-Actor-Id", "X-Actor-Role", "X-Sacco-Id"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, rdb, publisher, cfg)

	r.Run(":" + cfg.Port)
}
