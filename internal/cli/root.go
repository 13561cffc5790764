package cli

import (
	"github.com/spf13/cobra"

	"github.com/lazypower/recall/internal/config"
	"github.com/lazypower/recall/internal/store"
)

var (
	flagConfig  string
	flagDB      string
	flagJournal string
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Durable fact memory distilled from daily journals",
	Long: "Recall extracts facts, relations, and aliases from dated journal files\n" +
		"into a local SQLite knowledge graph, then answers natural-language\n" +
		"queries against it. Single Go binary, local-first.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.recall/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagJournal, "journal", "", "Journal directory (overrides config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(decayCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig layers defaults, the config file, env vars, and flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDB != "" {
		cfg.Database.Path = flagDB
	}
	if flagJournal != "" {
		cfg.Journal.Dir = flagJournal
	}
	return cfg, nil
}

// openDB opens the store for write commands, creating and migrating it
// on first use.
func openDB() (*store.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Database.Path)
}

// openExistingDB opens the store for read commands. A missing store is
// an error pointing at `recall migrate` rather than a silently created
// empty file.
func openExistingDB() (*store.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.OpenExisting(cfg.Database.Path)
}
