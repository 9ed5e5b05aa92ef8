package notevault

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails. On cancellation in-flight requests get up to five
// seconds to complete.
//
// Routes:
//
//	GET    /api/health                  - service health and active storage
//	PUT    /api/workspaces              - create or update a workspace
//	GET    /api/workspaces              - list workspaces
//	GET    /api/workspaces/{id}         - get a workspace
//	PUT    /api/pages                   - create or update a page
//	GET    /api/pages/{id}              - get a page
//	DELETE /api/pages/{id}              - delete a page
//	POST   /api/pages/markdown          - create a page from markdown
//	GET    /api/data/export             - download the export document
//	POST   /api/data/import             - restore an export document
//	DELETE /api/data                    - clear all data
//	GET    /api/storage                 - active storage status
//	POST   /api/storage/migrate         - migrate to another backend
//	POST   /api/storage/sync            - back the dataset up into the fallback
//	GET    /api/events                  - websocket change event feed
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	router := a.Router()

	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.log.Logger.Info().
		Str("addr", addr).
		Str("storage", string(a.service.Manager().Active())).
		Msg("starting notevault server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.events.CloseAll()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	case err := <-serverErr:
		return err
	}
}

// Router builds the HTTP route table. Exposed so tests can drive the API
// without binding a port.
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	api.HandleFunc("/workspaces", a.handleSaveWorkspace).Methods("PUT", "POST")
	api.HandleFunc("/workspaces", a.handleListWorkspaces).Methods("GET")
	api.HandleFunc("/workspaces/{id}", a.handleGetWorkspace).Methods("GET")

	api.HandleFunc("/pages", a.handleSavePage).Methods("PUT", "POST")
	api.HandleFunc("/pages/markdown", a.handleImportMarkdown).Methods("POST")
	api.HandleFunc("/pages/{id}", a.handleGetPage).Methods("GET")
	api.HandleFunc("/pages/{id}", a.handleDeletePage).Methods("DELETE")

	api.HandleFunc("/data/export", a.handleExport).Methods("GET")
	api.HandleFunc("/data/import", a.handleImport).Methods("POST")
	api.HandleFunc("/data", a.handleClearAll).Methods("DELETE")

	api.HandleFunc("/storage", a.handleStorageStatus).Methods("GET")
	api.HandleFunc("/storage/migrate", a.handleMigrate).Methods("POST")
	api.HandleFunc("/storage/sync", a.handleSync).Methods("POST")

	api.HandleFunc("/events", a.events.Subscribe).Methods("GET")

	router.HandleFunc("/health", a.handleHealth).Methods("GET")

	return router
}
