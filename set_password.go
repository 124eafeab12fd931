package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jyotish-ai/server/internal/agent/repo"
	"github.com/jyotish-ai/server/internal/auth"
	"github.com/jyotish-ai/server/internal/config"
)

func newSetPasswordCmd(logLevel *string) *cobra.Command {
	var password, algo string

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Hash a password and store it as the access password override",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(config.CommandSetPassword, *logLevel)
			if err != nil {
				return err
			}
			secret := password
			if secret == "" {
				// Only an explicit APP_PASSWORD is stored, never the config default.
				secret = os.Getenv("APP_PASSWORD")
			}
			if secret == "" {
				return &config.MissingConfigError{Command: config.CommandSetPassword, Fields: []string{"APP_PASSWORD"}}
			}

			ctx := cmd.Context()
			rdb, err := cfg.Redis.New(ctx)
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer rdb.Close()

			rec, err := auth.NewGate(repo.NewRedisAppConfig(rdb), cfg.Auth.AppPassword).SetPassword(ctx, secret, algo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password hash set (algo=%s, updated_at=%s).\n", rec.Algo, rec.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new password (default: APP_PASSWORD)")
	cmd.Flags().StringVar(&algo, "algo", auth.AlgoSHA256, "hash algorithm (sha256|bcrypt)")
	return cmd
}
