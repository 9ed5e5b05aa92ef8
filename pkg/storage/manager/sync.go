package manager

import (
	"context"

	"github.com/notevault/notevault/pkg/storage"
)

// SyncStatus classifies the outcome of a fallback sync.
type SyncStatus string

const (
	// SyncSkipped means the active provider is the fallback itself, so
	// there is nothing to copy.
	SyncSkipped SyncStatus = "skipped"
	// SyncCompleted means the fallback now mirrors the active dataset.
	SyncCompleted SyncStatus = "completed"
	// SyncFailed means the copy did not finish; the fallback may hold a
	// partial or stale dataset.
	SyncFailed SyncStatus = "failed"
)

// SyncResult reports what a Sync call did. Err is set only for SyncFailed.
type SyncResult struct {
	Status     SyncStatus
	Workspaces int
	Pages      int
	Err        error
}

// Sync pushes the active provider's dataset into the kv fallback so the
// fallback holds a usable copy if the active backend disappears. It is a
// one-way, best-effort copy: failures are logged and reported in the
// result, never returned as errors, and a no-op when the active provider
// is the fallback.
func (m *Manager) Sync(ctx context.Context) SyncResult {
	active, replay := m.providers()
	if !replay {
		return SyncResult{Status: SyncSkipped}
	}

	data, err := active.Export(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("fallback sync: export failed")
		return SyncResult{Status: SyncFailed, Err: err}
	}
	snap, err := storage.DecodeExport(active.Kind(), data)
	if err != nil {
		m.log.Warn().Err(err).Msg("fallback sync: export unreadable")
		return SyncResult{Status: SyncFailed, Err: err}
	}

	for _, ws := range snap.Workspaces {
		if err := m.fallback.SaveWorkspace(ctx, ws); err != nil {
			m.log.Warn().Err(err).Str("workspace", ws.ID).Msg("fallback sync: workspace write failed")
			return SyncResult{Status: SyncFailed, Err: err}
		}
	}
	for _, page := range snap.Pages {
		if err := m.fallback.SavePage(ctx, page); err != nil {
			m.log.Warn().Err(err).Str("page", page.ID).Msg("fallback sync: page write failed")
			return SyncResult{Status: SyncFailed, Err: err}
		}
	}

	m.log.Debug().
		Int("workspaces", len(snap.Workspaces)).
		Int("pages", len(snap.Pages)).
		Msg("fallback sync complete")
	return SyncResult{
		Status:     SyncCompleted,
		Workspaces: len(snap.Workspaces),
		Pages:      len(snap.Pages),
	}
}
