// Package cli defines the cobra command tree for codecomments.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/code-comments/internal/client"
	"github.com/evcraddock/code-comments/internal/config"
	"github.com/evcraddock/code-comments/internal/db"
)

var (
	flagFormat string
	flagDB     string
	flagConfig string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "codecomments",
		Short:         "Review comments on changesets and source files",
		Long:          "A code review service: comment on changesets, files and lines, bundle comments into tickets, and administer the server from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: db_path from the server config)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "server config file (YAML)")

	root.AddCommand(
		newServeCmd(),
		newListCmd(),
		newAddCmd(),
		newShowCmd(),
		newDeleteCmd(),
		newBundleCmd(),
		newUserCmd(),
		newKeyCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// dbPath returns the --db flag, falling back to the server config.
func dbPath() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return "", err
	}
	return cfg.DBPath, nil
}

// openDB opens the server's SQLite database for the admin commands.
func openDB() (*sql.DB, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the comments API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
