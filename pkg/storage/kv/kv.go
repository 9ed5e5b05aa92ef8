// Package kv implements the embedded key-value storage provider.
//
// This is the notevault analog of the browser's IndexedDB store: an
// always-available, binary-safe key-value namespace that the manager keeps
// as its permanent fallback. The backing medium is a single-table SQLite
// database (modernc.org/sqlite, pure Go, no server), values are CBOR-encoded
// entities. Keys are namespaced by kind: workspace_<id> and page_<id>.
//
// Export dumps the entire namespaced keyspace as one JSON object of key to
// value; Import clears the store and writes each key from the payload back
// verbatim. That keeps the export format coupled to this provider's own key
// scheme: it round-trips through another kv provider but is not portable to
// other provider kinds. Cross-kind transfer is the manager's job, through
// parsed entities.
package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"

	"github.com/notevault/notevault/pkg/models"
	"github.com/notevault/notevault/pkg/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`

// Store persists entities in an embedded SQLite key-value table.
type Store struct {
	db   *sql.DB
	enc  cbor.EncMode
	dec  cbor.DecMode
	path string
}

var _ storage.Provider = (*Store)(nil)

// Open opens (creating if necessary) the key-value store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &storage.ConfigError{Field: "dataDir", Reason: "kv store path is required"}
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storage.WrapOp(storage.KindKV, "open", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, storage.WrapOp(storage.KindKV, "open", err)
	}

	// Tag times so they survive the CBOR round-trip as time.Time, at full
	// precision.
	enc, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano, TimeTag: cbor.EncTagRequired}.EncMode()
	if err != nil {
		_ = db.Close()
		return nil, storage.WrapOp(storage.KindKV, "open", err)
	}
	dec, err := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if err != nil {
		_ = db.Close()
		return nil, storage.WrapOp(storage.KindKV, "open", err)
	}
	return &Store{db: db, enc: enc, dec: dec, path: path}, nil
}

// Kind reports the provider kind.
func (s *Store) Kind() storage.Kind { return storage.KindKV }

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) put(ctx context.Context, key string, value any) error {
	blob, err := s.enc.Marshal(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, blob)
	return err
}

func (s *Store) get(ctx context.Context, key string, out any) (bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, s.dec.Unmarshal(blob, out)
}

// SaveWorkspace creates or replaces the workspace record.
func (s *Store) SaveWorkspace(ctx context.Context, ws *models.Workspace) error {
	if err := s.put(ctx, storage.WorkspaceKey(ws.ID), ws); err != nil {
		return storage.WrapOp(storage.KindKV, "save workspace "+ws.ID, err)
	}
	return nil
}

// GetWorkspace returns the workspace with the given id, or (nil, nil).
func (s *Store) GetWorkspace(ctx context.Context, id string) (*models.Workspace, error) {
	var ws models.Workspace
	found, err := s.get(ctx, storage.WorkspaceKey(id), &ws)
	if err != nil {
		return nil, storage.WrapOp(storage.KindKV, "get workspace "+id, err)
	}
	if !found {
		return nil, nil
	}
	return &ws, nil
}

// ListWorkspaces enumerates every workspace_ key and loads each value.
func (s *Store) ListWorkspaces(ctx context.Context) ([]*models.Workspace, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM kv WHERE key LIKE ? ORDER BY key`, storage.WorkspaceKeyPrefix+"%")
	if err != nil {
		return nil, storage.WrapOp(storage.KindKV, "list workspaces", err)
	}
	defer rows.Close()

	workspaces := []*models.Workspace{}
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, storage.WrapOp(storage.KindKV, "list workspaces", err)
		}
		var ws models.Workspace
		if err := s.dec.Unmarshal(blob, &ws); err != nil {
			return nil, storage.WrapOp(storage.KindKV, "list workspaces", err)
		}
		workspaces = append(workspaces, &ws)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.WrapOp(storage.KindKV, "list workspaces", err)
	}
	return workspaces, nil
}

// SavePage creates or replaces a page record.
func (s *Store) SavePage(ctx context.Context, page *models.Page) error {
	if err := s.put(ctx, storage.PageKey(page.ID), page); err != nil {
		return storage.WrapOp(storage.KindKV, "save page "+page.ID, err)
	}
	return nil
}

// GetPage returns the page with the given id, or (nil, nil).
func (s *Store) GetPage(ctx context.Context, id string) (*models.Page, error) {
	var page models.Page
	found, err := s.get(ctx, storage.PageKey(id), &page)
	if err != nil {
		return nil, storage.WrapOp(storage.KindKV, "get page "+id, err)
	}
	if !found {
		return nil, nil
	}
	return &page, nil
}

// DeletePage removes a page record. Absent ids are a no-op.
func (s *Store) DeletePage(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, storage.PageKey(id)); err != nil {
		return storage.WrapOp(storage.KindKV, "delete page "+id, err)
	}
	return nil
}

// ClearAll removes every workspace and page key.
func (s *Store) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key LIKE ? OR key LIKE ?`,
		storage.WorkspaceKeyPrefix+"%", storage.PageKeyPrefix+"%")
	if err != nil {
		return storage.WrapOp(storage.KindKV, "clear all", err)
	}
	return nil
}

// Export dumps the whole namespaced keyspace as a single JSON object of
// key to stored value.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv WHERE key LIKE ? OR key LIKE ? ORDER BY key`,
		storage.WorkspaceKeyPrefix+"%", storage.PageKeyPrefix+"%")
	if err != nil {
		return nil, storage.WrapOp(storage.KindKV, "export", err)
	}
	defer rows.Close()

	dump := map[string]json.RawMessage{}
	for rows.Next() {
		var (
			key  string
			blob []byte
		)
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, storage.WrapOp(storage.KindKV, "export", err)
		}
		var value any
		if err := s.dec.Unmarshal(blob, &value); err != nil {
			return nil, storage.WrapOp(storage.KindKV, "export", err)
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, storage.WrapOp(storage.KindKV, "export", err)
		}
		dump[key] = raw
	}
	if err := rows.Err(); err != nil {
		return nil, storage.WrapOp(storage.KindKV, "export", err)
	}
	out, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return nil, storage.WrapOp(storage.KindKV, "export", err)
	}
	return out, nil
}

// Import clears the store, then writes every key from the payload back.
// Only documents produced by a kv provider's Export restore correctly.
func (s *Store) Import(ctx context.Context, data []byte) error {
	var dump map[string]json.RawMessage
	if err := json.Unmarshal(data, &dump); err != nil {
		return storage.WrapOp(storage.KindKV, "import", fmt.Errorf("parse payload: %w", err))
	}
	if err := s.ClearAll(ctx); err != nil {
		return err
	}
	for key, raw := range dump {
		var err error
		switch {
		case strings.HasPrefix(key, storage.WorkspaceKeyPrefix):
			var ws models.Workspace
			if err = json.Unmarshal(raw, &ws); err == nil {
				err = s.put(ctx, key, &ws)
			}
		case strings.HasPrefix(key, storage.PageKeyPrefix):
			var page models.Page
			if err = json.Unmarshal(raw, &page); err == nil {
				err = s.put(ctx, key, &page)
			}
		default:
			var value any
			if err = json.Unmarshal(raw, &value); err == nil {
				err = s.put(ctx, key, value)
			}
		}
		if err != nil {
			return storage.WrapOp(storage.KindKV, "import key "+key, err)
		}
	}
	return nil
}

// TestConnection probes the database handle.
func (s *Store) TestConnection(ctx context.Context) bool {
	if s == nil || s.db == nil {
		return false
	}
	return s.db.PingContext(ctx) == nil
}

// Available reports whether the embedded store can be used. It is the
// fallback medium, so short of a closed handle it always can.
func (s *Store) Available(ctx context.Context) bool {
	return s.TestConnection(ctx)
}
