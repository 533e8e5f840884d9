// Command receptionist runs the voice receptionist backend and its
// operator tools.
//
// @title                      Receptionist Backend API
// @version                    1.0
// @description                Tenant onboarding, call routing webhooks and call history for the AI phone receptionist.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-receptionist-backend/internal/config"
	"github.com/tbourn/go-receptionist-backend/internal/repo"
	"github.com/tbourn/go-receptionist-backend/internal/sysutil"
)

var Version = "dev"

var (
	envFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:           "receptionist",
	Short:         "AI phone receptionist backend",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal outside local development.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		sysutil.ConfigureLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateAssistantsCmd)
	rootCmd.AddCommand(inspectNumberCmd)
	rootCmd.AddCommand(purgeIdempotencyCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDB opens the configured store and, when traceQueries is set, adds
// query spans.
func openDB(traceQueries bool) (*gorm.DB, error) {
	dsn := cfg.DB.Path
	if cfg.DB.Driver == "postgres" {
		dsn = cfg.DB.URL
	}
	db, err := repo.Open(cfg.DB.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.DB.Driver, err)
	}
	if traceQueries {
		if err := repo.EnableTracing(db); err != nil {
			return nil, fmt.Errorf("enable query tracing: %w", err)
		}
	}
	return db, nil
}
