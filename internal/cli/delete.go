package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/code-comments/internal/comment"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a comment",
		Long:  "Delete a comment directly from the server's database.",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid comment ID: %s", args[0])
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	if err := comment.NewRepository(database).Delete(context.Background(), id); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{
			"id":      id,
			"deleted": true,
		})
	}

	fmt.Printf("Comment #%d deleted.\n", id)
	return nil
}
