/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/staffdesk/apiserver/config"
	"github.com/staffdesk/apiserver/internal/db"
	"github.com/staffdesk/apiserver/internal/services"
	"github.com/staffdesk/apiserver/internal/store"
	"github.com/staffdesk/apiserver/internal/token"
)

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed reference data",
}

var seedRolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Create any missing roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect failed: %w", err)
		}
		defer func() {
			_ = dbConn.Close()
		}()

		auth := services.NewAuthService(
			store.NewUserRepository(dbConn),
			store.NewRoleRepository(dbConn),
			token.NewIssuer(cfg.JWT),
			cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL,
			nil,
		)

		created, err := auth.SeedRoles(cmd.Context())
		if err != nil {
			return fmt.Errorf("seed roles failed: %w", err)
		}
		if len(created) == 0 {
			fmt.Println("roles already seeded")
			return nil
		}
		fmt.Printf("created roles: %v\n", created)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.AddCommand(seedRolesCmd)
}
