package notevault

import "github.com/notevault/notevault/pkg/storage"

// Command represents a discrete application operation with its specific
// options. Commands are produced by Parse and executed by the matching
// method on [App], which keeps argument handling separate from execution.
type Command interface {
	// Name returns the identifier used to route the command, matching the
	// CLI sub-command name.
	Name() string
}

// RunCommand starts the HTTP server. All of its configuration comes from
// the application [Config].
type RunCommand struct{}

func (c *RunCommand) Name() string { return "run" }

// MigrateCommand moves the full dataset from the active storage backend to
// Target, then makes Target the active backend. Target is built from the
// -target-* flags; the active backend comes from the regular configuration.
type MigrateCommand struct {
	Target storage.Config
}

func (c *MigrateCommand) Name() string { return "migrate" }

// SyncCommand copies the active dataset into the embedded fallback store so
// a usable local copy exists if the active backend disappears. It is safe
// to run repeatedly and does nothing when the embedded store is active.
type SyncCommand struct{}

func (c *SyncCommand) Name() string { return "sync" }

// ExportCommand writes the active provider's export document to a file, or
// to standard output when Output is "-" or empty.
type ExportCommand struct {
	Output string
}

func (c *ExportCommand) Name() string { return "export" }

// ImportCommand restores an export document from a file into the active
// provider, replacing its current contents.
type ImportCommand struct {
	Input string
}

func (c *ImportCommand) Name() string { return "import" }
