package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/recall/internal/store"
)

// seedFacts is the operator-curated baseline: durable decisions and
// conventions that should exist before any journal is ingested. Edit
// to taste; seeding skips anything already present.
var seedFacts = []store.Fact{
	{
		Entity: "decision", Key: "SQLite over PostgreSQL for fact memory",
		Value:    "Local-first, no server dependency, FTS5 built-in",
		Category: "decision", Source: "seed", Permanent: true,
	},
	{
		Entity: "decision", Key: "Hybrid retrieval over pure vector search",
		Value:    "Most queries are structured lookups; vector search is overkill",
		Category: "decision", Source: "seed", Permanent: true,
	},
	{
		Entity: "convention", Key: "tag journal observations with importance",
		Value:    "Lines like '- [decision|i=0.85] ...' survive pruning by tier",
		Category: "convention", Source: "seed", Permanent: true,
	},
	{
		Entity: "convention", Key: "run decay daily from cron",
		Value:    "Retrieval resets scores, so unaccessed facts cool off naturally",
		Category: "convention", Source: "seed", Permanent: true,
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the curated baseline facts",
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	inserted, skipped := 0, 0
	for i := range seedFacts {
		f := seedFacts[i]
		outcome, err := db.UpsertFact(&f)
		if err != nil {
			return fmt.Errorf("seed %s.%s: %w", f.Entity, f.Key, err)
		}
		switch outcome {
		case store.Inserted:
			inserted++
			fmt.Printf("  + %s.%s\n", f.Entity, f.Key)
		default:
			skipped++
			fmt.Printf("  = %s.%s (exists)\n", f.Entity, f.Key)
		}
	}

	total, err := db.FactCount()
	if err != nil {
		return err
	}
	fmt.Printf("\nSeeded %d facts, %d already present, %d total in store\n", inserted, skipped, total)
	return nil
}
