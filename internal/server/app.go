// Package server wires configuration, storage, services and the HTTP
// surface together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/cryptox"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/taskkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

// NewApp opens the database, applies migrations and builds the HTTP server.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := dbx.Open(ctx, "pgx", c.DatabaseDSN, dbx.PoolOptions{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxOpenConns,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	m := metrics.New()
	if err := m.RegisterDB(db, "taskkeeper"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("metrics init error: %w", err)
	}

	sessions := services.NewSessionAuthority(db, rm)
	users, err := services.NewUserService(db, rm, sessions,
		cryptox.NewBcryptHasher(c.BcryptCost), auth.NewCodec(c.SecretKey), c.TokenValidityDuration)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("user service init error: %w", err)
	}
	users.WithObserver(m)

	handler := httpapi.NewRouter(httpapi.RouterOptions{
		Users:          users,
		Lists:          services.NewListService(db, rm),
		Tasks:          services.NewTaskService(db, rm),
		Logger:         logger,
		Recorder:       m,
		Metrics:        m.Handler(),
		BypassPaths:    c.BypassPaths,
		AllowedOrigins: c.AllowedOrigins,
		RequestTimeout: c.RequestTimeout,
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		server: httpapi.NewServer(c.EndpointAddrHTTP, handler, logger),
	}, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives, then closes the pool.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
