package main

import (
	"errors" // Error checks
	"fmt"    // Command output

	"shop_system/internal/config"  // Configuration
	"shop_system/internal/db"      // Database connection and migration
	"shop_system/internal/service" // Business services
	"shop_system/internal/utils"   // Tokens, passwords and cache

	"github.com/spf13/cobra" // CLI commands
	"gorm.io/gorm"           // GORM ORM library
)

// openDB loads configuration from the environment and opens the database.
func openDB() (*config.Config, *gorm.DB, error) {
	cfg := config.LoadConfig()
	cfg.ConfigureLogging()
	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gdb, nil
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// shopctl migrate
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gdb, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(gdb)
			return db.Migrate(gdb)
		},
	}
}

// shopctl hash-password <password>
func newHashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt digest for seeding users by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cost < config.MinBcryptCost {
				return fmt.Errorf("cost must be at least %d", config.MinBcryptCost)
			}
			hash, err := utils.HashPassword(args[0], cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", config.MinBcryptCost, "bcrypt work factor")
	return cmd
}

// shopctl create-superadmin --email --password
func newCreateSuperAdminCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-superadmin",
		Short: "Create a superadmin account (migrates the schema first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			cfg, gdb, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(gdb)
			if err := db.Migrate(gdb); err != nil {
				return err
			}
			accounts := service.NewAccountService(gdb, nil, cfg.BcryptCost)
			user, err := accounts.CreateSuperAdmin(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created superadmin %s (id %d)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (min 6 characters)")
	return cmd
}
