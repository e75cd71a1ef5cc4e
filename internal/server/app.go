// Package server initializes and runs the ledger application: it opens the
// database, applies migrations, wires services and runs the HTTP and gRPC
// servers until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bsm/redislock"
	"github.com/iudp/ledger/internal/logging"
	"github.com/iudp/ledger/internal/server/access"
	"github.com/iudp/ledger/internal/server/clock"
	"github.com/iudp/ledger/internal/server/config"
	"github.com/iudp/ledger/internal/server/repositories/repomanager"
	"github.com/iudp/ledger/internal/server/rest"
	"github.com/iudp/ledger/internal/server/services"
	"github.com/iudp/ledger/internal/server/slots"
	"github.com/redis/go-redis/v9"

	gs "github.com/iudp/ledger/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	services rest.Services
	limiter  rest.LimitStore
	clock    clock.Clock
	catalog  slots.Catalog
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{
		config:  c,
		logger:  logger,
		db:      db,
		clock:   clock.Real(),
		catalog: slots.Default(),
		limiter: rest.NewMemoryStore(),
	}

	var locker services.Locker = services.NoopLocker{}
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := app.redis.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "redis unavailable; falling back to in-process rate limiting", "address", c.RedisAddr, "error", err)
		} else {
			app.limiter = rest.NewRedisStore(app.redis)
		}
		locker = services.NewRedisLocker(redislock.New(app.redis), logger)
	}

	auditSvc := services.NewAuditService(db, rm, app.clock, logger)
	engine := access.NewEngine(app.clock, app.catalog, rm.Overrides(db), rm.Periods(db), auditSvc, logger)

	app.services = rest.Services{
		Users:        services.NewUserService(db, rm, app.clock, auditSvc, c),
		Entries:      services.NewEntryService(db, rm, engine, app.clock, app.catalog, auditSvc, logger),
		Unlocks:      services.NewUnlockService(db, rm, app.clock, app.catalog, locker, auditSvc, logger),
		Periods:      services.NewPeriodService(db, rm, app.clock, auditSvc),
		Receipts:     services.NewReceiptService(db, rm, c, app.clock, auditSvc),
		Dashboard:    services.NewDashboardService(db, rm, app.catalog),
		Observations: services.NewObservationService(db, rm, app.clock, auditSvc),
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router, err := rest.NewRouter(app.config, app.services, app.limiter, app.clock, app.catalog, app.logger)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := rest.NewServer(app.config.EndpointAddrHTTP, router, app.logger).Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
