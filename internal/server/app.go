// Package server initializes and runs the attendance server.
// It configures storage backends and external collaborators, handles
// graceful shutdown and starts the HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/attendkeeper/internal/logging"
	"github.com/dmitrijs2005/attendkeeper/internal/server/attendance"
	"github.com/dmitrijs2005/attendkeeper/internal/server/auth"
	"github.com/dmitrijs2005/attendkeeper/internal/server/config"
	"github.com/dmitrijs2005/attendkeeper/internal/server/facematch"
	"github.com/dmitrijs2005/attendkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/attendkeeper/internal/server/liveness"
	"github.com/dmitrijs2005/attendkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/attendkeeper/internal/server/services"
)

const shutdownGrace = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	http   *httpapi.Server
}

// openRepositories is a seam for tests.
var openRepositories = repomanager.Open

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, err := openRepositories(c.DatabaseDSN, c.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	if c.SecretKey == config.DefaultSecretKey {
		logger.Warn(ctx, "session tokens are signed with the default secret; set JWT_SECRET")
	}

	tokens := auth.NewSessionAuthority(c.SecretKey, c.TokenValidityDuration)
	us := services.NewUserService(repos.Users(nil), tokens)

	probe, err := liveness.NewCommandProbe(c.LivenessCommand, c.LivenessTimeout, logger)
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("liveness init error: %w", err)
	}

	awsCfg, err := facematch.LoadAWSConfig(ctx, facematch.AWSSettings{
		Region:    c.AWSRegion,
		AccessKey: c.AWSAccessKey,
		SecretKey: c.AWSSecretKey,
		Endpoint:  c.AWSEndpoint,
	})
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	matcher := facematch.NewMatcher(
		facematch.NewRekognitionComparer(awsCfg, c.AWSEndpoint, c.SimilarityThreshold),
		c.MatchTimeout,
	)

	var references facematch.ReferenceSource = facematch.NewFileReference(c.ReferenceImagePath)
	if c.ReferenceBucket != "" {
		references = facematch.NewS3Reference(awsCfg, c.AWSEndpoint, c.ReferenceBucket, c.MaxBodyBytes)
	}

	as := attendance.NewService(tokens, probe, matcher, references, repos.Ledger(), c.MaxConcurrentChecks, logger)

	return &App{
		config: c,
		logger: logger,
		repos:  repos,
		http:   httpapi.NewServer(c.HTTPAddr, us, as, c.MaxBodyBytes, logger),
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
	if err := app.http.Run(ctx, shutdownGrace); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.HTTPAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "closing storage", "err", err)
	}
	app.logger.Info(ctx, "App stopped")
}
