// Package localdir implements the storage provider backed by a directory of
// JSON files.
//
// Each workspace and page is one pretty-printed JSON file directly inside the
// granted directory: workspace-<id>.json and page-<id>.json, flat, with no
// per-workspace subfolder and no manifest. Listing and export are O(n)
// directory scans filtered by filename prefix and suffix.
//
// The directory is a scoped resource. It must be granted once with
// [Store.Acquire] (the Go stand-in for the browser's directory picker); the
// handle is then cached for the provider's lifetime and re-acquired
// transparently if the directory disappears underneath us. A provider whose
// directory was never granted and does not exist reports TestConnection
// false and fails operations.
package localdir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/notevault/notevault/pkg/models"
	"github.com/notevault/notevault/pkg/storage"
)

const (
	workspaceFilePrefix = "workspace-"
	pageFilePrefix      = "page-"
	fileSuffix          = ".json"
)

// Store persists entities as JSON files in a user-granted directory.
type Store struct {
	path string

	mu      sync.Mutex
	granted bool
}

var _ storage.Provider = (*Store)(nil)

// New creates a provider for the given directory path. No filesystem access
// happens until [Store.Acquire] or the first operation.
func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &storage.ConfigError{Field: "localPath", Reason: "required for local storage"}
	}
	return &Store{path: filepath.Clean(path)}, nil
}

// Kind reports the provider kind.
func (s *Store) Kind() storage.Kind { return storage.KindLocal }

// Close releases the cached directory handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granted = false
	return nil
}

// Acquire grants the provider its directory, creating it if needed. This is
// the explicit consent step; every other operation only re-validates the
// cached grant.
func (s *Store) Acquire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.path, 0o755); err != nil {
		return storage.WrapOp(storage.KindLocal, "acquire directory", err)
	}
	s.granted = true
	return nil
}

// handle returns the directory path, re-validating the cached grant. A grant
// lost at runtime (directory removed) is re-acquired; a directory that was
// never granted and does not exist is an error.
func (s *Store) handle() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	switch {
	case err == nil && info.IsDir():
		s.granted = true
		return s.path, nil
	case s.granted:
		// Handle was valid once and is gone; re-acquire a fresh one.
		if err := os.MkdirAll(s.path, 0o755); err != nil {
			s.granted = false
			return "", fmt.Errorf("reacquire directory: %w", err)
		}
		return s.path, nil
	case err == nil:
		return "", fmt.Errorf("%s is not a directory", s.path)
	default:
		return "", fmt.Errorf("directory not granted: %w", err)
	}
}

func (s *Store) writeFile(name string, value any) error {
	dir, err := s.handle()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// readFile loads one entity file. A missing file reports found=false; every
// other failure propagates.
func (s *Store) readFile(name string, out any) (bool, error) {
	dir, err := s.handle()
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, out)
}

// SaveWorkspace writes workspace-<id>.json.
func (s *Store) SaveWorkspace(ctx context.Context, ws *models.Workspace) error {
	if err := s.writeFile(workspaceFilePrefix+ws.ID+fileSuffix, ws); err != nil {
		return storage.WrapOp(storage.KindLocal, "save workspace "+ws.ID, err)
	}
	return nil
}

// GetWorkspace returns the workspace with the given id, or (nil, nil) when
// the file lookup reports not-found.
func (s *Store) GetWorkspace(ctx context.Context, id string) (*models.Workspace, error) {
	var ws models.Workspace
	found, err := s.readFile(workspaceFilePrefix+id+fileSuffix, &ws)
	if err != nil {
		return nil, storage.WrapOp(storage.KindLocal, "get workspace "+id, err)
	}
	if !found {
		return nil, nil
	}
	return &ws, nil
}

// ListWorkspaces scans the directory for workspace-*.json entries.
func (s *Store) ListWorkspaces(ctx context.Context) ([]*models.Workspace, error) {
	names, err := s.scan(workspaceFilePrefix)
	if err != nil {
		return nil, storage.WrapOp(storage.KindLocal, "list workspaces", err)
	}
	workspaces := []*models.Workspace{}
	for _, name := range names {
		var ws models.Workspace
		if _, err := s.readFile(name, &ws); err != nil {
			return nil, storage.WrapOp(storage.KindLocal, "list workspaces", err)
		}
		workspaces = append(workspaces, &ws)
	}
	return workspaces, nil
}

// SavePage writes page-<id>.json.
func (s *Store) SavePage(ctx context.Context, page *models.Page) error {
	if err := s.writeFile(pageFilePrefix+page.ID+fileSuffix, page); err != nil {
		return storage.WrapOp(storage.KindLocal, "save page "+page.ID, err)
	}
	return nil
}

// GetPage returns the page with the given id, or (nil, nil).
func (s *Store) GetPage(ctx context.Context, id string) (*models.Page, error) {
	var page models.Page
	found, err := s.readFile(pageFilePrefix+id+fileSuffix, &page)
	if err != nil {
		return nil, storage.WrapOp(storage.KindLocal, "get page "+id, err)
	}
	if !found {
		return nil, nil
	}
	return &page, nil
}

// DeletePage removes page-<id>.json. Absent files are a no-op.
func (s *Store) DeletePage(ctx context.Context, id string) error {
	dir, err := s.handle()
	if err != nil {
		return storage.WrapOp(storage.KindLocal, "delete page "+id, err)
	}
	err = os.Remove(filepath.Join(dir, pageFilePrefix+id+fileSuffix))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storage.WrapOp(storage.KindLocal, "delete page "+id, err)
	}
	return nil
}

// ClearAll deletes every workspace-*.json and page-*.json file. Foreign
// files in the directory are left alone.
func (s *Store) ClearAll(ctx context.Context) error {
	dir, err := s.handle()
	if err != nil {
		return storage.WrapOp(storage.KindLocal, "clear all", err)
	}
	for _, prefix := range []string{workspaceFilePrefix, pageFilePrefix} {
		names, err := s.scan(prefix)
		if err != nil {
			return storage.WrapOp(storage.KindLocal, "clear all", err)
		}
		for _, name := range names {
			if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return storage.WrapOp(storage.KindLocal, "clear all", err)
			}
		}
	}
	return nil
}

// scan lists file names under the directory matching prefix*.json.
func (s *Store) scan(prefix string) ([]string, error) {
	dir, err := s.handle()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Export serializes everything into a {workspaces, pages, exportDate}
// envelope, pretty-printed.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	workspaces, err := s.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	pageNames, err := s.scan(pageFilePrefix)
	if err != nil {
		return nil, storage.WrapOp(storage.KindLocal, "export", err)
	}
	pages := []*models.Page{}
	for _, name := range pageNames {
		var page models.Page
		if _, err := s.readFile(name, &page); err != nil {
			return nil, storage.WrapOp(storage.KindLocal, "export", err)
		}
		pages = append(pages, &page)
	}
	snap := storage.Snapshot{Workspaces: workspaces, Pages: pages, ExportDate: time.Now().UTC()}
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, storage.WrapOp(storage.KindLocal, "export", err)
	}
	return out, nil
}

// Import restores state from a local-directory export envelope, replacing
// the directory's current contents.
func (s *Store) Import(ctx context.Context, data []byte) error {
	var snap storage.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return storage.WrapOp(storage.KindLocal, "import", fmt.Errorf("parse payload: %w", err))
	}
	if err := s.ClearAll(ctx); err != nil {
		return err
	}
	for _, ws := range snap.Workspaces {
		if err := s.SaveWorkspace(ctx, ws); err != nil {
			return err
		}
	}
	for _, page := range snap.Pages {
		if err := s.SavePage(ctx, page); err != nil {
			return err
		}
	}
	return nil
}

// TestConnection reports whether a granted directory is currently usable.
// It does not acquire one.
func (s *Store) TestConnection(ctx context.Context) bool {
	info, err := os.Stat(s.path)
	return err == nil && info.IsDir()
}

// Available probes for the directory-selection capability in this
// environment, not for a previously granted handle: the path must be
// non-empty and its parent reachable.
func (s *Store) Available(ctx context.Context) bool {
	if s.path == "" {
		return false
	}
	parent := filepath.Dir(s.path)
	info, err := os.Stat(parent)
	return err == nil && info.IsDir()
}
