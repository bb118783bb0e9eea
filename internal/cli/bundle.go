package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newBundleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bundle <id>...",
		Short: "Bundle comments into a new ticket",
		Long:  "Print the new-ticket URL whose description lists the given comments.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBundle,
	}
}

func runBundle(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid comment ID: %s", arg)
		}
		ids = append(ids, id)
	}

	ticketURL, err := newAPIClient().BundleURL(ids)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]string{"url": ticketURL})
	}

	fmt.Println(ticketURL)
	return nil
}
