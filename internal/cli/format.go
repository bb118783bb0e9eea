package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/code-comments/internal/auth"
	"github.com/evcraddock/code-comments/internal/comment"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printComment prints a single comment in text format.
func printComment(c *comment.JSON) {
	fmt.Printf("Comment #%d\n", c.ID)
	fmt.Printf("  On:       %s\n", c.Comment().PathRevisionLine())
	fmt.Printf("  Author:   %s\n", c.Author)
	fmt.Printf("  Date:     %s\n", c.FormattedDate)
	fmt.Printf("  Link:     %s\n", c.Permalink)
	fmt.Println()
	for _, line := range strings.Split(c.Text, "\n") {
		fmt.Printf("  %s\n", line)
	}
}

// printCommentTable prints a list of comments as a formatted table.
func printCommentTable(comments []comment.JSON) error {
	if len(comments) == 0 {
		fmt.Println("No comments found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tON\tAUTHOR\tDATE\tTEXT"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t--\t------\t----\t----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, c := range comments {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			c.ID, truncate(c.Comment().PathRevisionLine(), 40), c.Author, c.FormattedDate,
			truncate(firstLine(c.Text), 50)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d comments\n", len(comments))
	return nil
}

// printUserTable prints users as a formatted table.
func printUserTable(users []*auth.User) error {
	if len(users) == 0 {
		fmt.Println("No users.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tADMIN"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, u := range users {
		admin := "-"
		if u.IsAdmin {
			admin = "yes"
		}
		email := u.Email
		if email == "" {
			email = "-"
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, email, admin); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// printKeyTable prints API keys as a formatted table.
func printKeyTable(keys []auth.APIKey) error {
	if len(keys) == 0 {
		fmt.Println("No API keys.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tUSER\tPREFIX\tCREATED\tLAST USED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, k := range keys {
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.Format("2006-01-02 15:04")
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s…\t%s\t%s\n",
			k.ID, k.Name, k.Username, k.KeyPrefix, k.CreatedAt.Format("2006-01-02 15:04"), lastUsed); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// firstLine returns text up to its first newline.
func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(line)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
