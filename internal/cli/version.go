package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/code-comments/internal/client"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client and server versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd.OutOrStdout())
		},
	}
}

func runVersion(out io.Writer) error {
	serverURL := getServerURL()
	fmt.Fprintf(out, "client  %s\n", Version)

	h, err := client.New(serverURL, "").Health()
	if err != nil {
		fmt.Fprintf(out, "server  unreachable at %s\n", serverURL)
		return nil
	}
	v := h.Version
	if v == "" {
		v = "unknown"
	}
	fmt.Fprintf(out, "server  %s at %s\n", v, serverURL)
	return nil
}
