package cli

import (
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/evcraddock/code-comments/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the code-comments server and checks if the stored API key is valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout())
		},
	}
}

func runStatus(out io.Writer) error {
	serverURL := getServerURL()
	apiKey := getAPIKey()
	c := client.New(serverURL, apiKey)

	fmt.Fprintf(out, "Server:  %s\n", serverURL)
	if h, err := c.Health(); err == nil && h.Version != "" {
		fmt.Fprintf(out, "Version: %s\n", h.Version)
	}

	if apiKey == "" {
		fmt.Fprintln(out, "API Key: not configured (requests are anonymous)")
	} else {
		prefix := apiKey
		if len(prefix) > 8 {
			prefix = prefix[:8]
		}
		fmt.Fprintf(out, "API Key: %s…\n", prefix)
	}

	// An id no comment can have keeps the response empty.
	_, err := c.Search(url.Values{"id": {"0"}})
	switch {
	case err == nil && apiKey != "":
		fmt.Fprintln(out, "Status:  ✓ connected and authenticated")
	case err == nil:
		fmt.Fprintln(out, "Status:  ✓ connected")
		fmt.Fprintln(out, "\nRun 'codecomments login' to authenticate.")
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(out, "Status:  ✗ invalid API key")
		fmt.Fprintln(out, "\nRun 'codecomments login' to re-authenticate.")
	default:
		fmt.Fprintf(out, "Status:  ✗ %v\n", err)
	}

	return nil
}
