// Package server initializes and runs the faculty review server.
// It opens the configured storage backend, prepares its schema, wires the
// services and serves HTTP until a termination signal arrives.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/facultyreview/internal/logging"
	"github.com/dmitrijs2005/facultyreview/internal/server/config"
	"github.com/dmitrijs2005/facultyreview/internal/server/httpapi"
	"github.com/dmitrijs2005/facultyreview/internal/server/mailer"
	"github.com/dmitrijs2005/facultyreview/internal/server/models"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/facultyreview/internal/server/services"
)

// seams for tests
var (
	openMongo = func(ctx context.Context, uri, db string) (repomanager.RepositoryManager, error) {
		return repomanager.OpenMongo(ctx, uri, db)
	}
	openPostgres = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
		return repomanager.OpenPostgres(ctx, dsn)
	}
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	faculty     *services.FacultyService
	httpServer  *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	rm, err := openRepositoryManager(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, rm)
	if err != nil {
		_ = rm.Close(ctx)
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, rm repomanager.RepositoryManager) (*App, error) {
	if err := rm.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	notifier, err := newNotifier(c, logger)
	if err != nil {
		return nil, err
	}

	as := services.NewAuthService(rm, notifier, c, logger)
	fs := services.NewFacultyService(rm, logger)
	is := services.NewImageService(c, logger)

	return &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		faculty:     fs,
		httpServer:  httpapi.NewHTTPServer(c, logger, as, fs, is),
	}, nil
}

func openRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.DBBackend {
	case config.BackendMongo:
		return openMongo(ctx, c.MongoURI, c.MongoDatabase)
	case config.BackendPostgres:
		return openPostgres(ctx, c.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown db backend %q", c.DBBackend)
	}
}

func newNotifier(c *config.Config, logger logging.Logger) (services.Notifier, error) {
	if !c.MailerEnabled {
		return mailer.NewLogMailer(logger), nil
	}
	return mailer.New(mailer.Config{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	})
}

// seed loads a JSON array of faculties from path into an empty store.
func (app *App) seed(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var list []models.Faculty
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	n, err := app.faculty.Seed(ctx, list)
	if err != nil {
		return err
	}
	app.logger.Info(ctx, "seed applied", "file", path, "inserted", n)
	return nil
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

// Run serves HTTP until a termination signal or ctx cancellation, then
// releases the storage connection.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.DBBackend)
	app.initSignalHandler(cancelFunc)

	defer func() {
		if err := app.repomanager.Close(context.WithoutCancel(ctx)); err != nil {
			app.logger.Error(ctx, "close storage", "error", err)
		}
	}()

	if app.config.SeedFile != "" {
		if err := app.seed(ctx, app.config.SeedFile); err != nil {
			return err
		}
	}

	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
