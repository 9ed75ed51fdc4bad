package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/data/db"
	"github.com/yungbote/newsboy-backend/internal/http"
	"github.com/yungbote/newsboy-backend/internal/jobs/worker"
	"github.com/yungbote/newsboy-backend/internal/observability"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Worker   *worker.Worker

	dbService    *db.Service
	shutdownOtel func(context.Context) error
	cancel       context.CancelFunc
}

func NewLogger() (*logger.Logger, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// Migrate opens the configured database and runs the schema migration only.
func Migrate(configPath string) error {
	log, err := NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := LoadConfig(log, configPath)
	if err != nil {
		return err
	}
	svc, err := db.NewService(log, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer svc.Close()
	if err := svc.AutoMigrateAll(); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	log.Info("Migration complete", "driver", svc.Driver())
	return nil
}

func New(configPath string) (*App, error) {
	log, err := NewLogger()
	if err != nil {
		return nil, err
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log, configPath)
	if err != nil {
		log.Sync()
		return nil, err
	}

	shutdownOtel := observability.InitOTel(context.Background(), log, cfg.Otel)

	dbService, err := db.NewService(log, cfg.Database)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbService.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	w := worker.NewWorker(log)
	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, w)
	if err != nil {
		_ = clients.Close()
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(theDB, log, serviceset)
	middleware := wireMiddleware(log, cfg, serviceset)
	server := wireServer(log, cfg, w, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Worker:       w,
		dbService:    dbService,
		shutdownOtel: shutdownOtel,
	}, nil
}

// Start launches background consumers. Safe to call once.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Clients.Bus != nil {
		log := a.Log.With("component", "EventForwarder")
		err := a.Clients.Bus.StartForwarder(ctx, func(ev realtime.Event) {
			log.Debug("Lifecycle event",
				"type", ev.Type,
				"user_id", ev.UserID,
				"summary_id", ev.SummaryID,
				"sources", len(ev.SourceIDs),
				"error", ev.Error,
			)
			a.Services.SourceActivity.Handle(ev)
		})
		if err != nil {
			a.Log.Warn("Event forwarder not started", "error", err)
		}
	}
}

// Run serves HTTP until SIGINT/SIGTERM, then drains in-flight requests.
func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("Listening", "addr", a.Server.Addr())
		errCh <- a.Server.Run()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-errCh:
		return err
	case s := <-sig:
		a.Log.Info("Shutting down", "signal", s.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()
	if err := a.Server.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) shutdownTimeout() time.Duration {
	if a.Cfg.Server.ShutdownTimeout > 0 {
		return a.Cfg.Server.ShutdownTimeout
	}
	return 30 * time.Second
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	if a.Worker != nil {
		if err := a.Worker.Close(ctx); err != nil {
			a.Log.Warn("Background tasks did not finish", "error", err)
		}
	}
	if err := a.Clients.Close(); err != nil {
		a.Log.Warn("Event bus close failed", "error", err)
	}
	if a.shutdownOtel != nil {
		if err := a.shutdownOtel(ctx); err != nil {
			a.Log.Warn("OpenTelemetry shutdown failed", "error", err)
		}
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
