package app

import (
	"fmt"
	"log/slog"
	"os"

	"fraglog/internal/config"
	"fraglog/internal/database"
	"fraglog/internal/handlers"
	"fraglog/internal/jobs"
	"fraglog/internal/logger"
	"fraglog/internal/watcher"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
)

// App wraps PocketBase with the replay engine components
type App struct {
	*pocketbase.PocketBase // Embed PocketBase - all its methods are available

	Config  *config.Config
	Matches *database.MatchStore
	Gateway *handlers.Gateway
	Watcher *watcher.Watcher

	appLogger *logger.Logger

	// Version information (injected at build time via ldflags)
	Version string
	Commit  string
	Date    string
}

// New creates and initializes the fraglog application
func New() (*App, error) {
	return NewWithVersion("dev", "unknown", "unknown")
}

// NewWithVersion creates a new app with version information
func NewWithVersion(version, commit, date string) (*App, error) {
	app := &App{
		PocketBase: pocketbase.New(),
		Version:    version,
		Commit:     commit,
		Date:       date,
	}

	if err := app.setupServices(); err != nil {
		return nil, fmt.Errorf("failed to setup services: %w", err)
	}

	app.setupPlugins()

	return app, nil
}

// setupServices loads configuration and creates the long lived components
func (app *App) setupServices() error {
	cfgVal := app.Store().GetOrSet("config", func() any {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return cfg
	})

	if err, ok := cfgVal.(error); ok {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfgVal.(*config.Config)

	if err := app.Config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// the store and the file logger need the bootstrapped PocketBase logger
	app.OnBootstrap().BindFunc(func(e *core.BootstrapEvent) error {
		if err := e.Next(); err != nil {
			return err
		}
		if err := app.setupLogger(); err != nil {
			return fmt.Errorf("failed to setup logger: %w", err)
		}
		app.Matches = database.NewMatchStore(app)
		return nil
	})

	return nil
}

// setupPlugins configures PocketBase plugins and the replay commands
func (app *App) setupPlugins() {
	// Auto-migrate database
	migratecmd.MustRegister(app.PocketBase, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	app.registerCommands()
}

// Setup registers hooks, routes and jobs
func (app *App) Setup() error {
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		pidData := []byte(fmt.Sprintf("%d", os.Getpid()))
		if err := os.WriteFile("fraglog.pid", pidData, 0644); err != nil {
			app.Logger().Warn("Failed to write PID file", "error", err)
		}
		return app.onServe(e)
	})

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		os.Remove("fraglog.pid")
		return app.onTerminate(e)
	})

	return nil
}

// onServe is called when the server starts
func (app *App) onServe(e *core.ServeEvent) error {
	logger := app.Logger().With("component", "APP")
	logger.Info("Starting fraglog", "version", app.Version)

	app.Gateway = handlers.NewGateway(app.Matches, app.Config.Replay, app.Logger())
	handlers.Register(e, app.Gateway)

	jobs.RegisterRetention(app, app.Matches, app.Config.Retention, app.Logger())

	if app.Config.Watch.Enabled {
		w, err := watcher.NewWatcher(app.Matches, app.Config.Watch.Settle(), app.Logger())
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		if err := os.MkdirAll(app.Config.Watch.InboxPath, 0755); err != nil {
			return fmt.Errorf("failed to create inbox %s: %w", app.Config.Watch.InboxPath, err)
		}
		if err := w.AddPath(app.Config.Watch.InboxPath); err != nil {
			return fmt.Errorf("failed to add inbox to watcher: %w", err)
		}
		app.Watcher = w

		// Start watcher with panic recovery
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Watcher panic recovered", "panic", r)
				}
			}()
			w.Start()
		}()
	}

	return e.Next()
}

// onTerminate is called when the application shuts down
func (app *App) onTerminate(e *core.TerminateEvent) error {
	if app.Watcher != nil {
		app.Watcher.Stop()
	}

	if app.appLogger != nil {
		if err := app.appLogger.Close(); err != nil {
			app.PocketBase.Logger().Error("Failed to close log file", "component", "APP", "error", err)
		}
	}

	return e.Next()
}

// Logger returns the application logger once it is set up, the PocketBase
// logger before that
func (app *App) Logger() *slog.Logger {
	if app.appLogger != nil {
		return app.appLogger.Logger
	}
	return app.PocketBase.Logger()
}

// setupLogger tees the PocketBase logger into the configured log file
func (app *App) setupLogger() error {
	l, err := logger.New(app.PocketBase.Logger().Handler(), logger.Options{
		Level:      app.Config.Logging.Level,
		FilePath:   app.Config.Logging.FilePath,
		MaxSizeMB:  app.Config.Logging.MaxSize,
		MaxBackups: app.Config.Logging.MaxBackups,
	})
	if err != nil {
		return err
	}
	app.appLogger = l
	return nil
}
