package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/templui/walletauth/internal/config"
	"github.com/templui/walletauth/internal/repository"
	"github.com/templui/walletauth/internal/service"
)

func SweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired verification tokens and wallet challenges once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, conn *sqlx.DB) error {
				sweeper := service.NewSweeper(repository.NewStore(conn), cfg.TokenRetention)
				result, err := sweeper.SweepOnce(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d tokens and %d challenges\n", result.Tokens, result.Challenges)
				return nil
			})
		},
	}
}
