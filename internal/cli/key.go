package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/code-comments/internal/auth"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage API keys",
		Long:  "Manage the API keys the CLI and other clients authenticate with.",
	}
	cmd.AddCommand(newKeyCreateCmd(), newKeyListCmd(), newKeyRevokeCmd())
	return cmd
}

func newKeyCreateCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an API key",
		Long:  "Create an API key acting as --user. The key is printed once.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeys(func(keys *auth.APIKeyStore) error {
				raw, key, err := keys.Create(args[0], username)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(map[string]interface{}{"key": raw, "record": key})
				}
				fmt.Printf("API key %q created for %s:\n\n  %s\n\n", key.Name, key.Username, raw)
				fmt.Println("Store it now; it cannot be shown again. Run 'codecomments login' to use it.")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "username the key acts as (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newKeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeys(func(keys *auth.APIKeyStore) error {
				list, err := keys.List()
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(list)
				}
				return printKeyTable(list)
			})
		},
	}
}

func newKeyRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key ID: %s", args[0])
			}
			return withKeys(func(keys *auth.APIKeyStore) error {
				if err := keys.Delete(id); err != nil {
					return err
				}
				fmt.Printf("API key #%d revoked.\n", id)
				return nil
			})
		},
	}
}

func withKeys(fn func(*auth.APIKeyStore) error) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	return fn(auth.NewAPIKeyStore(database))
}
