package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/code-comments/internal/auth"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
		Long:  "Manage the users known to the server. Administrators may delete comments.",
	}
	cmd.AddCommand(newUserAddCmd(), newUserListCmd(), newUserRemoveCmd(), newUserAdminCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var email string
	var admin bool

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Add a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(func(users *auth.UserStore) error {
				u, err := users.Add(args[0], email, admin)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(u)
				}
				fmt.Printf("User %s added.\n", u.Username)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the administrative permission")

	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(func(users *auth.UserStore) error {
				list, err := users.List()
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(list)
				}
				return printUserTable(list)
			})
		},
	}
}

func newUserRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user ID: %s", args[0])
			}
			return withUsers(func(users *auth.UserStore) error {
				if err := users.Delete(id); err != nil {
					return err
				}
				fmt.Printf("User #%d removed.\n", id)
				return nil
			})
		},
	}
}

func newUserAdminCmd() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "admin <username>",
		Short: "Grant or revoke the administrative permission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(func(users *auth.UserStore) error {
				if err := users.SetAdmin(args[0], !revoke); err != nil {
					return err
				}
				if revoke {
					fmt.Printf("%s is no longer an administrator.\n", args[0])
				} else {
					fmt.Printf("%s is now an administrator.\n", args[0])
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke instead of grant")

	return cmd
}

// withUsers opens the database for the duration of fn.
func withUsers(fn func(*auth.UserStore) error) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	return fn(auth.NewUserStore(database, nil))
}
