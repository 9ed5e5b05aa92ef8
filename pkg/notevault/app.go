// Package notevault is the application layer: configuration, command
// parsing, the HTTP API and the change event feed, all built on the
// storage manager.
package notevault

import (
	"fmt"

	"github.com/notevault/notevault/pkg/logger"
	"github.com/notevault/notevault/pkg/service"
	"github.com/notevault/notevault/pkg/storage/manager"
)

// App holds the application state. There are no package level singletons;
// everything a handler needs hangs off the App.
type App struct {
	config  *Config
	log     *logger.Log
	service *service.Service
	events  *Hub
}

// New creates an application instance from a loaded configuration.
func New(config *Config) (*App, error) {
	log, err := logger.New().WithLevel(config.LogLevel).FromPath(config.LogPath).Make()
	if err != nil {
		return nil, fmt.Errorf("logger setup failed: %w", err)
	}

	mgr, err := manager.New(config.Storage, manager.WithLogger(log.Logger))
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("storage setup failed: %w", err)
	}

	return &App{
		config:  config,
		log:     log,
		service: service.New(mgr),
		events:  NewHub(log.Logger),
	}, nil
}

// Service returns the note service (useful for testing).
func (a *App) Service() *service.Service {
	return a.service
}

// Close releases storage and logging resources.
func (a *App) Close() error {
	a.events.CloseAll()
	err := a.service.Manager().Close()
	if cerr := a.log.Close(); err == nil {
		err = cerr
	}
	return err
}
