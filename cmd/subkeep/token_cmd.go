package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"subkeep/internal/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "API token helpers",
	}
	cmd.AddCommand(newTokenHashCmd())
	return cmd
}

func newTokenHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [token]",
		Short: "Print a bcrypt hash for api_token_hash (reads SUBKEEP_API_TOKEN when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(os.Getenv(apiTokenEnvKey))
			if len(args) == 1 {
				token = strings.TrimSpace(args[0])
			}
			if token == "" {
				return fmt.Errorf("token is required")
			}
			hash, err := auth.HashToken(token)
			if err != nil {
				return err
			}
			return writePlain("%s\n", hash)
		},
	}
}
