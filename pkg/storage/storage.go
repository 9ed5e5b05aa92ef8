// Package storage defines the persistence contract for notevault.
//
// The [Provider] interface is implemented by three backends, one per storage
// kind: an embedded key-value store ([github.com/notevault/notevault/pkg/storage/kv]),
// a local directory of JSON files
// ([github.com/notevault/notevault/pkg/storage/localdir]), and a remote WebDAV
// server ([github.com/notevault/notevault/pkg/storage/webdav]). The manager in
// [github.com/notevault/notevault/pkg/storage/manager] selects the active
// provider from a [Config], keeps the key-value provider as a permanent
// fallback, and replays failed operations against it.
//
// Contract conventions, uniform across providers:
//
//   - Get operations return (nil, nil) when the entity does not exist.
//     Absence is never an error.
//   - List operations return empty slices for no results.
//   - Delete operations are idempotent; deleting an absent entity succeeds.
//   - Save operations are whole-document create-or-replace and idempotent
//     under retry.
//   - TestConnection and Available never return an error; every failure mode
//     collapses to false.
//   - Transport and filesystem failures are wrapped in [*OpError] carrying
//     the failed operation and the underlying cause.
//
// Export and Import serialize a provider's complete dataset to a single JSON
// document. The document shape is provider-kind specific and only round-trips
// through a provider of the same kind; moving data across kinds goes through
// [DecodeExport] and entity-by-entity re-saving (the manager does this during
// migration).
package storage

import (
	"context"

	"github.com/notevault/notevault/pkg/models"
)

// Kind identifies a provider implementation.
type Kind string

const (
	// KindKV is the embedded key-value store, the always-available fallback.
	KindKV Kind = "kv"
	// KindLocal persists entities as JSON files in a user-chosen directory.
	KindLocal Kind = "local"
	// KindWebDAV persists entities as JSON resources on a WebDAV server.
	KindWebDAV Kind = "webdav"
)

// Valid reports whether k names a known provider kind.
func (k Kind) Valid() bool {
	switch k {
	case KindKV, KindLocal, KindWebDAV:
		return true
	}
	return false
}

// Provider is the capability set implemented by every storage backend.
type Provider interface {
	// Kind identifies the implementation.
	Kind() Kind

	// SaveWorkspace creates or replaces the whole-workspace resource.
	SaveWorkspace(ctx context.Context, ws *models.Workspace) error
	// GetWorkspace returns the workspace with the given id, or (nil, nil)
	// if no such workspace exists.
	GetWorkspace(ctx context.Context, id string) (*models.Workspace, error)
	// ListWorkspaces returns every workspace the provider owns.
	ListWorkspaces(ctx context.Context) ([]*models.Workspace, error)

	// SavePage creates or replaces a single page resource.
	SavePage(ctx context.Context, page *models.Page) error
	// GetPage returns the page with the given id, or (nil, nil) if absent.
	GetPage(ctx context.Context, id string) (*models.Page, error)
	// DeletePage removes a page. Deleting an absent page is not an error.
	DeletePage(ctx context.Context, id string) error

	// ClearAll removes every workspace and page resource owned by this
	// provider. Foreign data sharing the backing medium is left alone.
	ClearAll(ctx context.Context) error

	// Export serializes the provider's complete dataset to one JSON document.
	// The shape is specific to the provider kind.
	Export(ctx context.Context) ([]byte, error)
	// Import restores state from a document produced by Export on a provider
	// of the same kind, replacing whatever the provider currently holds.
	Import(ctx context.Context, data []byte) error

	// TestConnection probes the backing medium. It never returns an error;
	// any failure reports false.
	TestConnection(ctx context.Context) bool
	// Available reports whether the backing medium can be used in this
	// environment at all. Like TestConnection it never fails loudly.
	Available(ctx context.Context) bool

	// Close releases resources held by the provider. Safe to call twice.
	Close() error
}

// Key prefixes shared by the flat-keyspace providers (kv and webdav exports)
// and the file-name prefixes used by the local directory provider.
const (
	WorkspaceKeyPrefix = "workspace_"
	PageKeyPrefix      = "page_"
)

// WorkspaceKey returns the namespaced key for a workspace id.
func WorkspaceKey(id string) string { return WorkspaceKeyPrefix + id }

// PageKey returns the namespaced key for a page id.
func PageKey(id string) string { return PageKeyPrefix + id }
