package notevault

import (
	"flag"
	"fmt"

	"github.com/notevault/notevault/pkg/storage"
)

// Parse parses command line arguments and returns the command to execute
// and the application configuration. The configuration is layered from
// defaults, the optional YAML file named by -config, NOTEVAULT_*
// environment variables, and finally the command line flags.
func Parse(args []string) (Command, *Config, error) {
	flagSet := flag.NewFlagSet("notevault", flag.ContinueOnError)

	var (
		configPath = flagSet.String("config", "", "Path to YAML configuration file")
		port       = flagSet.String("port", "", "Server port")
		logLevel   = flagSet.String("log-level", "", "Log level: trace, debug, info, warn, error")

		targetType = flagSet.String("target-type", "", "Migration target storage type: kv, local, webdav")
		targetPath = flagSet.String("target-path", "", "Migration target directory (local storage)")
		targetURL  = flagSet.String("target-url", "", "Migration target WebDAV URL")
		targetUser = flagSet.String("target-user", "", "Migration target WebDAV username")
		targetPass = flagSet.String("target-pass", "", "Migration target WebDAV password")

		output = flagSet.String("out", "", "Export output file (defaults to stdout)")
		input  = flagSet.String("in", "", "Import input file")
	)

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}

	remainingArgs := flagSet.Args()
	if len(remainingArgs) == 0 {
		return nil, nil, fmt.Errorf(`subcommand required

Usage: notevault [flags] <command>

Commands:
  run       Start the NoteVault server
  migrate   Move all data to another storage backend
  sync      Copy the active dataset into the embedded fallback store
  export    Write the active dataset to a file
  import    Restore a dataset from a file

Examples:
  notevault run                                      # Embedded storage on :8080
  notevault -config notevault.yaml run               # Configured backend
  notevault -config notevault.yaml sync              # Back up into the fallback
  notevault -target-type local -target-path ./notes migrate
  notevault -target-type webdav -target-url https://dav.example.com/notes migrate
  notevault export -out notes.json
  notevault import -in notes.json`)
	}

	config, err := LoadConfig(*configPath)
	if err != nil {
		return nil, nil, err
	}
	if *port != "" {
		config.ServerPort = *port
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}

	var cmd Command
	switch remainingArgs[0] {
	case "run":
		cmd = &RunCommand{}
	case "migrate":
		target := storage.Config{
			Type:    storage.Kind(*targetType),
			Path:    *targetPath,
			DataDir: config.Storage.DataDir,
		}
		if *targetURL != "" {
			target.WebDAV = &storage.WebDAVConfig{
				URL:      *targetURL,
				Username: *targetUser,
				Password: *targetPass,
				Enabled:  true,
			}
		}
		if err := target.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid migration target: %w", err)
		}
		cmd = &MigrateCommand{Target: target}
	case "sync":
		cmd = &SyncCommand{}
	case "export":
		cmd = &ExportCommand{Output: *output}
	case "import":
		if *input == "" {
			return nil, nil, fmt.Errorf("import requires -in <file>")
		}
		cmd = &ImportCommand{Input: *input}
	default:
		return nil, nil, fmt.Errorf("unknown command: %s\n\nValid commands: run, migrate, sync, export, import", remainingArgs[0])
	}

	return cmd, config, nil
}
