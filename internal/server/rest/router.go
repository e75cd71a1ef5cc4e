package rest

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/logging"
	"github.com/iudp/ledger/internal/server/clock"
	"github.com/iudp/ledger/internal/server/config"
	"github.com/iudp/ledger/internal/server/slots"
)

type handler struct {
	svc    Services
	clock  clock.Clock
	logger logging.Logger
}

// NewRouter wires middleware and routes. store may be nil to disable rate limiting.
func NewRouter(cfg *config.Config, svc Services, store LimitStore, c clock.Clock, catalog slots.Catalog, l logging.Logger) (*gin.Engine, error) {
	if err := registerValidators(catalog); err != nil {
		return nil, err
	}

	logger := l.With("module", "rest")
	h := &handler{svc: svc, clock: c, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", common.AuthorizationHeaderName},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(requestLogger(logger))
	if store != nil {
		router.Use(rateLimiter(store, cfg.RateLimit, cfg.RateLimitWindow, logger))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": h.clock.Now().Format(time.RFC3339)})
	})

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.GET("/time/current", h.currentTime)

		protected := api.Group("/")
		protected.Use(authRequired([]byte(cfg.SecretKey)))
		{
			protected.POST("/entries/check", h.checkEntry)
			protected.POST("/entries/save", h.saveEntry)
			protected.POST("/entries/month", h.listMonth)
			protected.DELETE("/entries/:id", h.deleteEntry)

			protected.POST("/receipts/upload-url", h.receiptUploadURL)
			protected.GET("/receipts/:entryId/:receiptId", h.receiptDownloadURL)

			protected.POST("/month/close", h.closeMonth)
			protected.POST("/month/reopen", h.reopenMonth)
			protected.POST("/month/status", h.monthStatus)

			protected.POST("/unlock/request", h.requestUnlock)
			protected.POST("/unlock/approve", h.approveUnlock)
			protected.POST("/unlock/reject", h.rejectUnlock)
			protected.GET("/unlock/requests", h.listUnlocks)
			protected.DELETE("/unlock/requests/:id", h.deleteUnlock)

			protected.POST("/dashboard/data", h.dashboard)

			protected.POST("/observations/month", h.saveObservation)
			protected.GET("/observations/month", h.getObservation)
		}
	}

	return router, nil
}
