package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the API key for the configured server",
		Long:  "Removes the stored API key. The server URL is kept for the next login.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.OutOrStdout())
		},
	}
}

func runLogout(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	server := cfg.ServerURL
	if server == "" {
		server = getServerURL()
	}
	if cfg.APIKey == "" {
		fmt.Fprintf(out, "No API key stored for %s.\n", server)
		return nil
	}

	cfg.APIKey = ""
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintf(out, "✓ Removed the API key for %s.\n", server)
	return nil
}
