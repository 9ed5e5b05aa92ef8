package notevault

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/notevault/notevault/pkg/models"
	"github.com/notevault/notevault/pkg/storage"
)

// Workspace handlers

func (a *App) handleSaveWorkspace(w http.ResponseWriter, r *http.Request) {
	var workspace models.Workspace
	if err := json.NewDecoder(r.Body).Decode(&workspace); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if workspace.ID == "" {
		workspace.ID = models.NewID()
	}

	ctx := r.Context()
	if err := a.service.SaveWorkspace(ctx, &workspace); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.events.Publish(Event{Type: EventSaved, Entity: "workspace", ID: workspace.ID})
	respondJSON(w, http.StatusOK, workspace)
}

func (a *App) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ctx := r.Context()
	workspace, err := a.service.GetWorkspace(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if workspace == nil {
		respondError(w, http.StatusNotFound, "Workspace not found")
		return
	}

	respondJSON(w, http.StatusOK, workspace)
}

func (a *App) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaces, err := a.service.ListWorkspaces(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, workspaces)
}

// Page handlers

func (a *App) handleSavePage(w http.ResponseWriter, r *http.Request) {
	var page models.Page
	if err := json.NewDecoder(r.Body).Decode(&page); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if page.ID == "" {
		page.ID = models.NewID()
		page.CreatedAt = time.Now().UTC()
	}
	page.UpdatedAt = time.Now().UTC()

	ctx := r.Context()
	if err := a.service.SavePage(ctx, &page); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.events.Publish(Event{Type: EventSaved, Entity: "page", ID: page.ID})
	respondJSON(w, http.StatusOK, page)
}

func (a *App) handleGetPage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ctx := r.Context()
	page, err := a.service.GetPage(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if page == nil {
		respondError(w, http.StatusNotFound, "Page not found")
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (a *App) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ctx := r.Context()
	if err := a.service.DeletePage(ctx, id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.events.Publish(Event{Type: EventDeleted, Entity: "page", ID: id})
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleImportMarkdown(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
		Title   string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "Markdown content is required")
		return
	}

	ctx := r.Context()
	page, err := a.service.ImportMarkdown(ctx, req.Content, req.Title)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.events.Publish(Event{Type: EventSaved, Entity: "page", ID: page.ID})
	respondJSON(w, http.StatusCreated, page)
}

// Data handlers

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := a.service.Export(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="notevault-export.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *App) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	ctx := r.Context()
	if err := a.service.Import(ctx, data); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.events.Publish(Event{Type: EventImported, Entity: "dataset"})
	respondJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (a *App) handleClearAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := a.service.ClearAll(ctx); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.events.Publish(Event{Type: EventCleared, Entity: "dataset"})
	respondJSON(w, http.StatusNoContent, nil)
}

// Storage administration handlers

func (a *App) handleStorageStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mgr := a.service.Manager()
	respondJSON(w, http.StatusOK, map[string]any{
		"type":      mgr.Active(),
		"connected": mgr.TestConnection(ctx),
	})
}

func (a *App) handleMigrate(w http.ResponseWriter, r *http.Request) {
	var target storage.Config
	if err := json.NewDecoder(r.Body).Decode(&target); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := target.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if err := a.service.Migrate(ctx, target); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.events.Publish(Event{Type: EventMigrated, Entity: "storage", ID: string(target.Type)})
	respondJSON(w, http.StatusOK, map[string]string{"status": "migrated", "type": string(target.Type)})
}

func (a *App) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result := a.service.Sync(ctx)

	body := map[string]any{
		"status":     result.Status,
		"workspaces": result.Workspaces,
		"pages":      result.Pages,
	}
	if result.Err != nil {
		body["error"] = result.Err.Error()
	}
	respondJSON(w, http.StatusOK, body)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"storage": string(a.service.Manager().Active()),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
