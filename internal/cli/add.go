package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/code-comments/internal/comment"
)

func newAddCmd() *cobra.Command {
	var req comment.CreateRequest

	cmd := &cobra.Command{
		Use:   `add "text"`,
		Short: "Add a comment",
		Long:  "Add a comment to a changeset, or to a file or line with --path and --line.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Text = strings.Join(args, " ")
			return runAdd(req)
		},
	}

	cmd.Flags().StringVar(&req.Revision, "revision", "", "revision the comment refers to (required)")
	cmd.Flags().StringVar(&req.Path, "path", "", "file path; empty for a changeset comment")
	cmd.Flags().IntVar(&req.Line, "line", 0, "line number within --path")
	cmd.Flags().StringVar(&req.Author, "author", "", "author (default: the authenticated user)")
	_ = cmd.MarkFlagRequired("revision")

	return cmd
}

func runAdd(req comment.CreateRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("comment text is required")
	}
	if req.Line > 0 && req.Path == "" {
		return fmt.Errorf("--line requires --path")
	}

	c, err := newAPIClient().Create(req)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(c)
	}

	fmt.Printf("Comment #%d added on %s.\n", c.ID, c.Comment().PathRevisionLine())
	return nil
}
