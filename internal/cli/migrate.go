package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/recall/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [store-path]",
	Short: "Create or upgrade the fact store schema",
	Long: "Bring the fact store schema up to date. Safe to run any number of\n" +
		"times: existing objects are left untouched and reported as such.",
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Database.Path
	if len(args) > 0 {
		path = args[0]
	}

	db, err := store.OpenForMigration(path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	report, err := db.Migrate()
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	fmt.Printf("Migrating %s\n", path)
	for _, o := range report.Objects {
		if o.Status == store.StatusAdded {
			fmt.Printf("  + %s\n", o.Name)
		} else {
			fmt.Printf("  = %s (already exists)\n", o.Name)
		}
	}

	version, err := db.SchemaVersion()
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	fmt.Printf("Schema version %d, %d objects added\n", version, report.Added())
	return nil
}
