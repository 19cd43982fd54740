package routes

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ibimina-reconciliation-backend/internal/config"
	"ibimina-reconciliation-backend/internal/events"
	handler "ibimina-reconciliation-backend/internal/handlers"
	"ibimina-reconciliation-backend/internal/middleware"
	"ibimina-reconciliation-backend/internal/repository"
	"ibimina-reconciliation-backend/internal/services/assignment"
	"ibimina-reconciliation-backend/internal/services/importer"
	"ibimina-reconciliation-backend/internal/services/ingestion"
	"ibimina-reconciliation-backend/internal/services/ledger"
	"ibimina-reconciliation-backend/internal/services/matching"
	"ibimina-reconciliation-backend/internal/services/smsparser"
	"ibimina-reconciliation-backend/internal/services/telemetry"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, publisher events.Publisher, cfg config.Config) {
	log := slog.Default()

	paymentRepo := repository.NewPaymentRepository(db)
	smsRepo := repository.NewSmsRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	metricRepo := repository.NewMetricRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	txManager := repository.NewGormTxManager(db)

	recorder := telemetry.NewRecorder(auditRepo, metricRepo, log)
	parser := smsparser.New(cfg.Currency)
	matcher := matching.NewMatcher(directoryRepo)
	poster := ledger.NewPoster(ledgerRepo)

	ingestService := ingestion.NewService(
		smsRepo, paymentRepo, metricRepo,
		parser, matcher, poster, recorder, publisher, log,
	)
	importService := importer.NewService(
		directoryRepo, paymentRepo, txManager, matcher, recorder, cfg.Currency, log,
	)
	assignService := assignment.NewService(paymentRepo, directoryRepo, poster, recorder, log)

	ingestHandler := handler.NewIngestHandler(ingestService)
	importHandler := handler.NewImportHandler(importService)
	assignHandler := handler.NewAssignHandler(assignService)

	limiter := middleware.NewRateLimiter(rdb, 60, time.Minute, log)

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Gateway-facing webhook: HMAC-signed, rate-limited, no actor headers.
	sms := api.Group("/sms")
	sms.POST("/inbox",
		limiter.Middleware("sms-inbox"),
		middleware.WebhookAuth(cfg.WebhookSecret, cfg.WebhookTolerance),
		ingestHandler.Inbox,
	)

	// Staff-facing routes carry the identity asserted by the auth gateway.
	staff := api.Group("", middleware.ResolveActor())
	staff.POST("/imports/statement", importHandler.Import)
	staff.POST("/payments/assign", assignHandler.Assign)
	staff.GET("/sms-ingest/status", ingestHandler.Status)
}
