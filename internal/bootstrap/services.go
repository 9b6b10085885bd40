package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/procurehub/ui-api/config"
	"github.com/procurehub/ui-api/internal/data"
	"github.com/procurehub/ui-api/internal/service"
	"github.com/redis/go-redis/v9"
)

// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
const shutdownWaitTimeout = 15 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth          *service.AuthService
	Verifications *service.VerificationService
	RFQs          *service.RFQService
	Bids          *service.BidService
	Audit         *service.AuditService
	SessionHub    *service.SessionEventHub
	Profiles      data.ProfileStore
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	ProfileRepo      *data.ProfileRepo
	VerificationRepo *data.VerificationRepo
	RFQRepo          *data.RFQRepo
	BidRepo          *data.BidRepo
	AccessEventRepo  *data.AccessEventRepo
}

func buildRepositories(db *sql.DB) *serviceRepositories {
	return &serviceRepositories{
		ProfileRepo:      data.NewProfileRepo(db),
		VerificationRepo: data.NewVerificationRepo(db),
		RFQRepo:          data.NewRFQRepo(db),
		BidRepo:          data.NewBidRepo(db),
		AccessEventRepo:  data.NewAccessEventRepo(db),
	}
}

// NewServices wires repositories and services from shared dependencies.
func NewServices(deps *ServiceDeps) ServiceContainer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos := buildRepositories(deps.DB)
	profiles := data.NewProfileStore(repos.ProfileRepo)
	hub := service.NewSessionEventHub()

	auth := BuildAuthService(AuthConfig{
		Auth:        deps.Config.Auth,
		Session:     deps.Config.Session,
		RedisClient: deps.RedisClient,
		Profiles:    profiles,
		Events:      hub,
		Logger:      logger,
	})

	return ServiceContainer{
		Auth: auth,
		Verifications: service.NewVerificationService(service.VerificationServiceOptions{
			Repo:     repos.VerificationRepo,
			Profiles: profiles,
			Logger:   logger,
		}),
		RFQs: service.NewRFQService(service.RFQServiceOptions{
			Repo:     repos.RFQRepo,
			Profiles: profiles,
			Logger:   logger,
		}),
		Bids: service.NewBidService(service.BidServiceOptions{
			Repo:     repos.BidRepo,
			RFQs:     repos.RFQRepo,
			Profiles: profiles,
			Logger:   logger,
		}),
		Audit: service.NewAuditService(service.AuditServiceOptions{
			Repo:   repos.AccessEventRepo,
			Logger: logger,
		}),
		SessionHub: hub,
		Profiles:   profiles,
	}
}

// ServiceOrchestrationConfig contains everything needed to run the application.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts the HTTP server and manages its lifecycle.
// This function blocks until a shutdown signal is received.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
	})

	return waitForShutdown(shutdownConfig{
		httpServer: server,
		logger:     logger,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// waitForShutdown waits for a shutdown signal.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	<-quit
	cfg.logger.Info("shutting down services...")
	return gracefulStop(cfg)
}

// gracefulStop attempts to gracefully stop the HTTP server.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
	defer cancel()

	return ShutdownHTTPServer(ShutdownConfig{
		Context: shutdownCtx,
		Server:  cfg.httpServer,
		Logger:  cfg.logger,
	})
}
