package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [field=value]...",
		Short: "List comments",
		Long: `List comments from the server, optionally filtered.

Filters use the API's query syntax, e.g.:
  codecomments list revision=abc123 path=src/main.go
  codecomments list author__in=alice,bob line__gt=10`,
		RunE: runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	filters, err := parseFilters(args)
	if err != nil {
		return err
	}

	comments, err := newAPIClient().Search(filters)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(comments)
	}

	return printCommentTable(comments)
}

// parseFilters turns field=value arguments into query values.
func parseFilters(args []string) (url.Values, error) {
	filters := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q (want field=value)", arg)
		}
		filters.Add(key, value)
	}
	return filters, nil
}
