package notevault

import (
	"context"
	"fmt"
	"os"
)

// Main is the entry point for the notevault application. It parses args,
// builds the App and executes the requested command. Tests can call it
// directly with a cancellable context instead of building the binary.
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	app, err := New(config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	switch c := cmd.(type) {
	case *RunCommand:
		if err := app.Run(ctx, c); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case *MigrateCommand:
		if err := app.service.Migrate(ctx, c.Target); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case *SyncCommand:
		result := app.service.Sync(ctx)
		if result.Err != nil {
			return fmt.Errorf("sync failed: %w", result.Err)
		}
		app.log.Logger.Info().
			Str("status", string(result.Status)).
			Int("workspaces", result.Workspaces).
			Int("pages", result.Pages).
			Msg("sync finished")
	case *ExportCommand:
		data, err := app.service.Export(ctx)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if err := writeOutput(c.Output, data); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
	case *ImportCommand:
		data, err := os.ReadFile(c.Input)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		if err := app.service.Import(ctx, data); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}

	return nil
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
