package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/recall/internal/extract"
	"github.com/lazypower/recall/internal/journal"
	"github.com/lazypower/recall/internal/store"
)

var (
	ingestDryRun bool
	ingestFile   string
	ingestAll    bool
	ingestStats  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Extract facts from journal files into the graph",
	Long: "Parse unindexed journal files into facts, relations, and aliases.\n" +
		"By default only dated files (YYYY-MM-DD*.md) are considered; --all\n" +
		"processes every unindexed markdown file.",
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "Show what would be added without writing")
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "Process a specific file")
	ingestCmd.Flags().BoolVar(&ingestAll, "all", false, "Process all unindexed files, not just dated ones")
	ingestCmd.Flags().BoolVar(&ingestStats, "stats", false, "Show graph statistics")
}

// ingestCounts tracks new rows across a batch.
type ingestCounts struct {
	facts     int
	relations int
	aliases   int
}

func (c ingestCounts) total() int { return c.facts + c.relations + c.aliases }

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if ingestStats {
		return printGraphStats(db, cfg.Journal.Dir)
	}

	var files []string
	switch {
	case ingestFile != "":
		if _, err := os.Stat(ingestFile); err != nil {
			return fmt.Errorf("file not found: %s", ingestFile)
		}
		files = []string{ingestFile}
	default:
		files, err = unindexedFiles(db, cfg.Journal.Dir)
		if err != nil {
			return err
		}
		if !ingestAll {
			dated := files[:0]
			for _, f := range files {
				if journal.HasDatedStem(filepath.Base(f)) {
					dated = append(dated, f)
				}
			}
			files = dated
		}
	}

	if len(files) == 0 {
		fmt.Println("All files already indexed.")
		return nil
	}

	beforeFacts, _ := db.FactCount()
	beforeRels, _ := db.RelationCount()
	beforeAliases, _ := db.AliasCount()

	prefix := ""
	if ingestDryRun {
		prefix = "DRY RUN: "
	}
	fmt.Printf("%sProcessing %d files...\n\n", prefix, len(files))

	var total ingestCounts
	for _, path := range files {
		name := filepath.Base(path)

		content, err := journal.ReadLossy(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ! %s: %v (skipped)\n", name, err)
			continue
		}

		result := extract.Extract(content, name)
		counts, err := insertResult(db, result, ingestDryRun)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", name, err)
		}

		total.facts += counts.facts
		total.relations += counts.relations
		total.aliases += counts.aliases

		if counts.total() > 0 || ingestDryRun {
			fmt.Printf("  %s: +%df +%dr +%da\n", name, counts.facts, counts.relations, counts.aliases)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 50))
	verb := "Added"
	if ingestDryRun {
		verb = "Would add"
	}
	fmt.Printf("  %s: %d facts, %d relations, %d aliases\n",
		verb, total.facts, total.relations, total.aliases)

	if !ingestDryRun {
		afterFacts, _ := db.FactCount()
		afterRels, _ := db.RelationCount()
		afterAliases, _ := db.AliasCount()
		fmt.Printf("  Graph: %d facts (%+d), %d relations (%+d), %d aliases (%+d)\n",
			afterFacts, afterFacts-beforeFacts,
			afterRels, afterRels-beforeRels,
			afterAliases, afterAliases-beforeAliases)
	}
	return nil
}

// insertResult writes one file's extraction into the store, counting
// new rows. In dry-run mode it only probes for existence.
func insertResult(db *store.DB, r extract.Result, dryRun bool) (ingestCounts, error) {
	var counts ingestCounts

	for i := range r.Facts {
		f := &r.Facts[i]
		if dryRun {
			exists, err := db.FactExists(f.Entity, f.Key, f.Value)
			if err != nil {
				return counts, err
			}
			if !exists {
				counts.facts++
			}
			continue
		}
		outcome, err := db.UpsertFact(f)
		if err != nil {
			return counts, err
		}
		if outcome == store.Inserted {
			counts.facts++
		}
	}

	for i := range r.Relations {
		rel := &r.Relations[i]
		if dryRun {
			exists, err := db.RelationExists(rel.Subject, rel.Predicate, rel.Object)
			if err != nil {
				return counts, err
			}
			if !exists {
				counts.relations++
			}
			continue
		}
		outcome, err := db.UpsertRelation(rel)
		if err != nil {
			return counts, err
		}
		if outcome == store.Inserted {
			counts.relations++
		}
	}

	for i := range r.Aliases {
		a := &r.Aliases[i]
		if dryRun {
			exists, err := db.AliasExists(a.Alias, a.Entity)
			if err != nil {
				return counts, err
			}
			if !exists {
				counts.aliases++
			}
			continue
		}
		outcome, err := db.UpsertAlias(a)
		if err != nil {
			return counts, err
		}
		if outcome == store.Inserted {
			counts.aliases++
		}
	}
	return counts, nil
}

// unindexedFiles finds journal files whose name or stem appears in no
// recorded fact or relation source.
func unindexedFiles(db *store.DB, dir string) ([]string, error) {
	indexed, err := db.IndexedSources()
	if err != nil {
		return nil, err
	}

	all, err := journal.MarkdownFiles(dir)
	if err != nil {
		return nil, err
	}

	var unindexed []string
	for _, path := range all {
		base := filepath.Base(path)
		stem := strings.TrimSuffix(base, ".md")
		found := false
		for s := range indexed {
			if strings.Contains(s, base) || strings.Contains(s, stem) {
				found = true
				break
			}
		}
		if !found {
			unindexed = append(unindexed, path)
		}
	}
	return unindexed, nil
}

func printGraphStats(db *store.DB, journalDir string) error {
	facts, _ := db.FactCount()
	rels, _ := db.RelationCount()
	aliases, _ := db.AliasCount()
	entities, _ := db.EntityCount()
	sources, err := db.IndexedSources()
	if err != nil {
		return err
	}

	fmt.Println("Knowledge Graph Stats")
	fmt.Printf("  Facts:     %d\n", facts)
	fmt.Printf("  Relations: %d\n", rels)
	fmt.Printf("  Aliases:   %d\n", aliases)
	fmt.Printf("  Entities:  %d\n", entities)
	fmt.Printf("  Sources:   %d\n", len(sources))

	top, err := db.TopEntities(10)
	if err != nil {
		return err
	}
	if len(top) > 0 {
		fmt.Println("\n  Top entities:")
		for _, e := range top {
			fmt.Printf("    %s: %d facts\n", e.Entity, e.Count)
		}
	}

	unindexed, err := unindexedFiles(db, journalDir)
	if err != nil {
		return err
	}
	fmt.Printf("\n  Unindexed journal files: %d\n", len(unindexed))
	for i, f := range unindexed {
		if i == 10 {
			fmt.Printf("    ... and %d more\n", len(unindexed)-10)
			break
		}
		fmt.Printf("    %s\n", filepath.Base(f))
	}
	return nil
}
