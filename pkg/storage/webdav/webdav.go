// Package webdav implements the storage provider backed by a remote WebDAV
// server.
//
// Every operation is an HTTP request (GET, PUT, DELETE, PROPFIND, MKCOL)
// against a configured base URL with a Basic credential. Workspace resources
// live at /workspace-<id>.json; page resources live under a per-workspace
// collection /pages/workspace-<workspaceID>/page-<pageID>.json, created with
// MKCOL before the first page write.
//
// There is no page-to-workspace index on the server. SavePage resolves the
// owning workspace by scanning each workspace's embedded page list; GetPage
// and DeletePage probe each workspace's page path in turn until one responds.
// Workspace discovery parses the Depth:1 PROPFIND multistatus response for
// workspace-*.json members; servers whose PROPFIND yields nothing are
// retried by probing a small set of conventional workspace ids.
package webdav

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/notevault/notevault/pkg/models"
	"github.com/notevault/notevault/pkg/storage"
)

// conventionalIDs are probed as a last-resort discovery path for servers
// that reject or return empty Depth:1 PROPFIND listings.
var conventionalIDs = []string{"default", "main", "primary"}

const (
	workspaceFilePrefix = "workspace-"
	pageFilePrefix      = "page-"
	fileSuffix          = ".json"
	pagesRoot           = "/pages"
)

// Store persists entities as JSON resources on a WebDAV server.
type Store struct {
	cfg *storage.WebDAVConfig
	dav *client
}

var _ storage.Provider = (*Store)(nil)

// New constructs the provider, failing fast on an incomplete config.
func New(cfg *storage.WebDAVConfig) (*Store, error) {
	if cfg == nil {
		return nil, &storage.ConfigError{Field: "webdavConfig", Reason: "required for webdav storage"}
	}
	if cfg.URL == "" {
		return nil, &storage.ConfigError{Field: "webdavConfig.url", Reason: "required for webdav storage"}
	}
	return &Store{cfg: cfg, dav: newClient(cfg.URL, cfg.Username, cfg.Password)}, nil
}

// Kind reports the provider kind.
func (s *Store) Kind() storage.Kind { return storage.KindWebDAV }

// Close is a no-op; the provider holds no connection state.
func (s *Store) Close() error { return nil }

func workspacePath(id string) string {
	return "/" + workspaceFilePrefix + id + fileSuffix
}

func pagesCollection(workspaceID string) string {
	return pagesRoot + "/" + workspaceFilePrefix + workspaceID
}

func pagePath(workspaceID, pageID string) string {
	return pagesCollection(workspaceID) + "/" + pageFilePrefix + pageID + fileSuffix
}

// SaveWorkspace PUTs the whole-workspace resource.
func (s *Store) SaveWorkspace(ctx context.Context, ws *models.Workspace) error {
	body, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return storage.WrapOp(storage.KindWebDAV, "save workspace "+ws.ID, err)
	}
	if err := s.dav.Put(ctx, workspacePath(ws.ID), body); err != nil {
		return storage.WrapOp(storage.KindWebDAV, "save workspace "+ws.ID, err)
	}
	return nil
}

// GetWorkspace GETs /workspace-<id>.json; a 404 collapses to (nil, nil).
func (s *Store) GetWorkspace(ctx context.Context, id string) (*models.Workspace, error) {
	body, found, err := s.dav.Get(ctx, workspacePath(id))
	if err != nil {
		return nil, storage.WrapOp(storage.KindWebDAV, "get workspace "+id, err)
	}
	if !found {
		return nil, nil
	}
	var ws models.Workspace
	if err := json.Unmarshal(body, &ws); err != nil {
		return nil, storage.WrapOp(storage.KindWebDAV, "get workspace "+id, err)
	}
	return &ws, nil
}

// ListWorkspaces discovers workspace resources by parsing the Depth:1
// PROPFIND listing of the base collection. When the listing yields no
// workspace members, the conventional ids are probed instead so that
// minimal servers still work.
func (s *Store) ListWorkspaces(ctx context.Context) ([]*models.Workspace, error) {
	ids, err := s.discoverWorkspaceIDs(ctx)
	if err != nil {
		return nil, storage.WrapOp(storage.KindWebDAV, "list workspaces", err)
	}
	workspaces := []*models.Workspace{}
	for _, id := range ids {
		ws, err := s.GetWorkspace(ctx, id)
		if err != nil {
			return nil, err
		}
		if ws != nil {
			workspaces = append(workspaces, ws)
		}
	}
	return workspaces, nil
}

func (s *Store) discoverWorkspaceIDs(ctx context.Context) ([]string, error) {
	body, err := s.dav.Propfind(ctx, "/", 1)
	if err != nil {
		return nil, err
	}
	names, err := listResources(body)
	if err != nil {
		// Unparseable multistatus; fall back to probing.
		return conventionalIDs, nil
	}
	var ids []string
	for _, name := range names {
		if strings.HasPrefix(name, workspaceFilePrefix) && strings.HasSuffix(name, fileSuffix) {
			ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, workspaceFilePrefix), fileSuffix))
		}
	}
	if len(ids) == 0 {
		return conventionalIDs, nil
	}
	return ids, nil
}

// resolveOwner returns the workspace whose embedded page list contains the
// page id, or "" when no workspace claims it.
func (s *Store) resolveOwner(ctx context.Context, pageID string) (string, error) {
	workspaces, err := s.ListWorkspaces(ctx)
	if err != nil {
		return "", err
	}
	for _, ws := range workspaces {
		if ws.FindPage(pageID) != nil {
			return ws.ID, nil
		}
	}
	return "", nil
}

// SavePage resolves the owning workspace from the embedded page lists, then
// PUTs the page under that workspace's pages collection, creating the
// collection on demand. A page no workspace claims lands under "default".
func (s *Store) SavePage(ctx context.Context, page *models.Page) error {
	owner, err := s.resolveOwner(ctx, page.ID)
	if err != nil {
		return storage.WrapOp(storage.KindWebDAV, "save page "+page.ID, err)
	}
	if owner == "" {
		owner = "default"
	}
	if err := s.dav.Mkcol(ctx, pagesRoot); err != nil {
		return storage.WrapOp(storage.KindWebDAV, "save page "+page.ID, err)
	}
	if err := s.dav.Mkcol(ctx, pagesCollection(owner)); err != nil {
		return storage.WrapOp(storage.KindWebDAV, "save page "+page.ID, err)
	}
	body, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return storage.WrapOp(storage.KindWebDAV, "save page "+page.ID, err)
	}
	if err := s.dav.Put(ctx, pagePath(owner, page.ID), body); err != nil {
		return storage.WrapOp(storage.KindWebDAV, "save page "+page.ID, err)
	}
	return nil
}

// GetPage probes each workspace's page path in turn until one responds.
func (s *Store) GetPage(ctx context.Context, id string) (*models.Page, error) {
	ids, err := s.discoverWorkspaceIDs(ctx)
	if err != nil {
		return nil, storage.WrapOp(storage.KindWebDAV, "get page "+id, err)
	}
	for _, wsID := range ids {
		body, found, err := s.dav.Get(ctx, pagePath(wsID, id))
		if err != nil {
			return nil, storage.WrapOp(storage.KindWebDAV, "get page "+id, err)
		}
		if !found {
			continue
		}
		var page models.Page
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, storage.WrapOp(storage.KindWebDAV, "get page "+id, err)
		}
		return &page, nil
	}
	return nil, nil
}

// DeletePage probes each workspace's page path and deletes the first match.
// A page absent everywhere is a successful no-op.
func (s *Store) DeletePage(ctx context.Context, id string) error {
	ids, err := s.discoverWorkspaceIDs(ctx)
	if err != nil {
		return storage.WrapOp(storage.KindWebDAV, "delete page "+id, err)
	}
	for _, wsID := range ids {
		existed, err := s.dav.Delete(ctx, pagePath(wsID, id))
		if err != nil {
			return storage.WrapOp(storage.KindWebDAV, "delete page "+id, err)
		}
		if existed {
			return nil
		}
	}
	return nil
}

// listPageIDs enumerates page resources in a workspace's pages collection.
// A missing collection means no pages.
func (s *Store) listPageIDs(ctx context.Context, workspaceID string) ([]string, error) {
	body, err := s.dav.Propfind(ctx, pagesCollection(workspaceID), 1)
	if err != nil {
		// Collection may not exist yet.
		return nil, nil
	}
	names, err := listResources(body)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, name := range names {
		if strings.HasPrefix(name, pageFilePrefix) && strings.HasSuffix(name, fileSuffix) {
			ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, pageFilePrefix), fileSuffix))
		}
	}
	return ids, nil
}

// ClearAll removes every workspace resource and every page resource under
// each workspace's pages collection.
func (s *Store) ClearAll(ctx context.Context) error {
	ids, err := s.discoverWorkspaceIDs(ctx)
	if err != nil {
		return storage.WrapOp(storage.KindWebDAV, "clear all", err)
	}
	for _, wsID := range ids {
		pageIDs, err := s.listPageIDs(ctx, wsID)
		if err != nil {
			return storage.WrapOp(storage.KindWebDAV, "clear all", err)
		}
		for _, pageID := range pageIDs {
			if _, err := s.dav.Delete(ctx, pagePath(wsID, pageID)); err != nil {
				return storage.WrapOp(storage.KindWebDAV, "clear all", err)
			}
		}
		if _, err := s.dav.Delete(ctx, workspacePath(wsID)); err != nil {
			return storage.WrapOp(storage.KindWebDAV, "clear all", err)
		}
	}
	return nil
}

// Export dumps all reachable workspaces and pages as a flat JSON map of
// workspace_<id> / page_<id> to object.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	workspaces, err := s.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	dump := map[string]any{}
	for _, ws := range workspaces {
		dump[storage.WorkspaceKey(ws.ID)] = ws
		pageIDs, err := s.listPageIDs(ctx, ws.ID)
		if err != nil {
			return nil, storage.WrapOp(storage.KindWebDAV, "export", err)
		}
		for _, pageID := range pageIDs {
			body, found, err := s.dav.Get(ctx, pagePath(ws.ID, pageID))
			if err != nil {
				return nil, storage.WrapOp(storage.KindWebDAV, "export", err)
			}
			if !found {
				continue
			}
			var page models.Page
			if err := json.Unmarshal(body, &page); err != nil {
				return nil, storage.WrapOp(storage.KindWebDAV, "export", err)
			}
			dump[storage.PageKey(page.ID)] = &page
		}
	}
	out, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return nil, storage.WrapOp(storage.KindWebDAV, "export", err)
	}
	return out, nil
}

// Import restores state from a webdav export map, replacing the server's
// current dataset. Workspaces are written before pages so that page writes
// can resolve their owners.
func (s *Store) Import(ctx context.Context, data []byte) error {
	var dump map[string]json.RawMessage
	if err := json.Unmarshal(data, &dump); err != nil {
		return storage.WrapOp(storage.KindWebDAV, "import", fmt.Errorf("parse payload: %w", err))
	}
	if err := s.ClearAll(ctx); err != nil {
		return err
	}
	for key, raw := range dump {
		if !strings.HasPrefix(key, storage.WorkspaceKeyPrefix) {
			continue
		}
		var ws models.Workspace
		if err := json.Unmarshal(raw, &ws); err != nil {
			return storage.WrapOp(storage.KindWebDAV, "import key "+key, err)
		}
		if err := s.SaveWorkspace(ctx, &ws); err != nil {
			return err
		}
	}
	for key, raw := range dump {
		if !strings.HasPrefix(key, storage.PageKeyPrefix) {
			continue
		}
		var page models.Page
		if err := json.Unmarshal(raw, &page); err != nil {
			return storage.WrapOp(storage.KindWebDAV, "import key "+key, err)
		}
		if err := s.SavePage(ctx, &page); err != nil {
			return err
		}
	}
	return nil
}

// TestConnection issues a zero-depth PROPFIND against the base URL and
// reports the HTTP outcome. Network failures are reported as false, never
// raised.
func (s *Store) TestConnection(ctx context.Context) bool {
	_, err := s.dav.Propfind(ctx, "/", 0)
	return err == nil
}

// Available reports whether the remote is configured, enabled and reachable.
func (s *Store) Available(ctx context.Context) bool {
	if s.cfg == nil || !s.cfg.Enabled {
		return false
	}
	return s.TestConnection(ctx)
}
