// Package service is the application facing surface over the storage
// manager. It keeps no state of its own; everything delegates to the
// manager so callers get fallback behavior for free.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/notevault/notevault/pkg/models"
	"github.com/notevault/notevault/pkg/storage"
	"github.com/notevault/notevault/pkg/storage/manager"
)

// Service exposes note operations backed by a storage manager.
type Service struct {
	mgr *manager.Manager
}

// New wraps a manager.
func New(mgr *manager.Manager) *Service {
	return &Service{mgr: mgr}
}

// Manager exposes the underlying manager for administrative operations
// such as migration and sync.
func (s *Service) Manager() *manager.Manager { return s.mgr }

// SaveWorkspace persists a workspace.
func (s *Service) SaveWorkspace(ctx context.Context, ws *models.Workspace) error {
	return s.mgr.SaveWorkspace(ctx, ws)
}

// GetWorkspace loads a workspace, returning (nil, nil) when absent.
func (s *Service) GetWorkspace(ctx context.Context, id string) (*models.Workspace, error) {
	return s.mgr.GetWorkspace(ctx, id)
}

// ListWorkspaces returns every stored workspace.
func (s *Service) ListWorkspaces(ctx context.Context) ([]*models.Workspace, error) {
	return s.mgr.ListWorkspaces(ctx)
}

// SavePage persists a page.
func (s *Service) SavePage(ctx context.Context, page *models.Page) error {
	return s.mgr.SavePage(ctx, page)
}

// GetPage loads a page, returning (nil, nil) when absent.
func (s *Service) GetPage(ctx context.Context, id string) (*models.Page, error) {
	return s.mgr.GetPage(ctx, id)
}

// DeletePage removes a page. Deleting an absent page is not an error.
func (s *Service) DeletePage(ctx context.Context, id string) error {
	return s.mgr.DeletePage(ctx, id)
}

// ClearAll wipes the active dataset.
func (s *Service) ClearAll(ctx context.Context) error {
	return s.mgr.ClearAll(ctx)
}

// Export returns the active provider's export document.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	return s.mgr.Export(ctx)
}

// Import restores an export document into the active provider.
func (s *Service) Import(ctx context.Context, data []byte) error {
	return s.mgr.Import(ctx, data)
}

// Migrate moves the dataset to the target configuration.
func (s *Service) Migrate(ctx context.Context, target storage.Config) error {
	return s.mgr.Migrate(ctx, target)
}

// Sync copies the active dataset into the fallback store.
func (s *Service) Sync(ctx context.Context) manager.SyncResult {
	return s.mgr.Sync(ctx)
}

// ImportMarkdown creates a page from raw markdown content and saves it.
// The title argument wins when non-empty; otherwise the first ATX heading
// in the document is used, and failing that the page is called
// "Imported note". The returned page carries a fresh id and timestamps.
func (s *Service) ImportMarkdown(ctx context.Context, content, title string) (*models.Page, error) {
	if title == "" {
		title = markdownTitle(content)
	}
	now := time.Now().UTC()
	page := &models.Page{
		ID:        models.NewID(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.mgr.SavePage(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

// markdownTitle extracts the text of the first ATX heading, at any level.
func markdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		title := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		if title != "" {
			return title
		}
	}
	return "Imported note"
}
