package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-receptionist-backend/internal/blueprint"
	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/repo"
	"github.com/tbourn/go-receptionist-backend/internal/services"
	"github.com/tbourn/go-receptionist-backend/internal/vapi"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(false)
		if err != nil {
			return err
		}
		if err := repo.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info().Str("db", cfg.DB.Driver).Msg("schema up to date")
		return nil
	},
}

var (
	migrateUsers   []string
	migratePersona string
	migrateDryRun  bool
	migrateJSON    bool
)

var migrateAssistantsCmd = &cobra.Command{
	Use:   "migrate-assistants",
	Short: "Give tenants a fresh copy of a persona blueprint",
	Long: `Clone the persona's blueprint assistant for each selected tenant and
point their number at the copy.

Examples:
  receptionist migrate-assistants --persona tradie
  receptionist migrate-assistants --persona pro --user U1 --user U2
  receptionist migrate-assistants --persona coach --dry-run`,
	RunE: runMigrateAssistants,
}

func init() {
	migrateAssistantsCmd.Flags().StringSliceVar(&migrateUsers, "user", nil, "tenant ids to migrate (default: all linked tenants)")
	migrateAssistantsCmd.Flags().StringVar(&migratePersona, "persona", "", "persona id (default: the configured default persona)")
	migrateAssistantsCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "show what would change without creating assistants")
	migrateAssistantsCmd.Flags().BoolVarP(&migrateJSON, "json", "j", false, "print results as JSON")
}

func runMigrateAssistants(cmd *cobra.Command, args []string) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	svc := &services.PersonaService{
		DB:         db,
		Assistants: vapi.NewClient(cfg.Vapi.BaseURL, cfg.Vapi.APIKey, cfg.Vapi.Timeout),
		Personas:   domain.NewPersonaCatalog(cfg.Personas.Blueprints, cfg.Personas.Default),
		Builder:    blueprint.NewBuilder(nil, ""),
	}

	results, err := svc.MigrateTenants(cmd.Context(), services.MigrateOptions{
		UserIDs:   migrateUsers,
		PersonaID: migratePersona,
		DryRun:    migrateDryRun,
	})
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Status == services.MigrationFailed {
			failed++
		}
	}

	if migrateJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "USER\tBUSINESS\tSTATUS\tASSISTANT\tERROR")
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.UserID, r.BusinessName, r.Status, r.AssistantID, r.Error)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d tenants, %d failed\n", len(results), failed)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tenants failed", failed, len(results))
	}
	return nil
}

var inspectNumberCmd = &cobra.Command{
	Use:   "inspect-number <e164>",
	Short: "Show which tenant owns a purchased number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(false)
		if err != nil {
			return err
		}
		svc := &services.AccountService{
			DB:       db,
			Personas: domain.NewPersonaCatalog(cfg.Personas.Blueprints, cfg.Personas.Default),
		}
		rep, err := svc.InspectNumber(cmd.Context(), args[0])
		if errors.Is(err, services.ErrLinkNotFound) {
			return fmt.Errorf("no tenant owns %s", args[0])
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}

var purgeIdempotencyCmd = &cobra.Command{
	Use:   "purge-idempotency",
	Short: "Delete expired idempotency records",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(false)
		if err != nil {
			return err
		}
		n, err := repo.PurgeExpiredIdempotency(cmd.Context(), db, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired records\n", n)
		return nil
	},
}
