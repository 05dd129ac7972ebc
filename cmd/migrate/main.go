package main

import (
	"errors"  // Argument validation
	"os"      // Exit codes
	"strings" // Username normalization

	"shopfront/internal/config" // Custom import path (Config)
	"shopfront/internal/db"     // Custom import path (Database)
	"shopfront/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"github.com/spf13/cobra"     // Command line interface
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

func connect() (*gorm.DB, error) {
	cfg := config.LoadConfig() // Load configuration
	return db.Open(cfg.DBDriver, cfg.DSN())
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Create or update the database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := connect()
			if err != nil {
				return err
			}
			return db.Migrate(database)
		},
	}
	root.AddCommand(newSeedAdminCmd())
	return root
}

func newSeedAdminCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			username = strings.ToLower(strings.TrimSpace(username))
			if username == "" || len(password) < 8 {
				return errors.New("username and a password of at least 8 characters are required")
			}
			database, err := connect()
			if err != nil {
				return err
			}
			if err := db.Migrate(database); err != nil {
				return err
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			admin := domain.User{
				Username: username,
				Email:    email,
				Password: string(hash),
				Role:     domain.RoleAdmin,
				IsAdmin:  true,
			}
			if err := database.WithContext(cmd.Context()).Create(&admin).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errors.New("username already exists")
				}
				return err
			}
			logrus.WithFields(logrus.Fields{"user_id": admin.ID, "username": admin.Username}).Info("Admin created")
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// Main entry point for migration
func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
