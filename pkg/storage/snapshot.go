package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/notevault/notevault/pkg/models"
)

// Snapshot is the parsed-entity form of a provider's dataset. It is the
// common currency for moving data between providers of different kinds,
// where piping one kind's raw export into another kind's Import would
// corrupt state: export documents share no shape across kinds.
type Snapshot struct {
	Workspaces []*models.Workspace `json:"workspaces"`
	Pages      []*models.Page      `json:"pages"`
	ExportDate time.Time           `json:"exportDate"`
}

// DecodeExport parses an export document produced by a provider of the given
// kind into a [Snapshot].
//
// The kv and webdav kinds export a flat JSON object of namespaced key to
// entity; the local kind exports a {workspaces, pages, exportDate} envelope.
func DecodeExport(kind Kind, data []byte) (*Snapshot, error) {
	switch kind {
	case KindLocal:
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("decode %s export: %w", kind, err)
		}
		return &snap, nil
	case KindKV, KindWebDAV:
		var flat map[string]json.RawMessage
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, fmt.Errorf("decode %s export: %w", kind, err)
		}
		snap := &Snapshot{ExportDate: time.Now().UTC()}
		for key, raw := range flat {
			switch {
			case strings.HasPrefix(key, WorkspaceKeyPrefix):
				var ws models.Workspace
				if err := json.Unmarshal(raw, &ws); err != nil {
					return nil, fmt.Errorf("decode %s export: key %s: %w", kind, key, err)
				}
				snap.Workspaces = append(snap.Workspaces, &ws)
			case strings.HasPrefix(key, PageKeyPrefix):
				var page models.Page
				if err := json.Unmarshal(raw, &page); err != nil {
					return nil, fmt.Errorf("decode %s export: key %s: %w", kind, key, err)
				}
				snap.Pages = append(snap.Pages, &page)
			}
			// Unknown keys are skipped; imports of the same kind keep them,
			// cross-kind transfers have nowhere to put them.
		}
		return snap, nil
	}
	return nil, fmt.Errorf("decode export: unrecognized provider kind %q", kind)
}
