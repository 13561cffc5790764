package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/recall/internal/store"
)

var (
	queryEntity   string
	queryKey      string
	queryCategory string
	queryStats    bool
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Look up facts directly",
	Long: "Query the fact store: full-text over the argument, or filtered by\n" +
		"--entity (optionally with --key for an exact lookup) or --category.",
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryEntity, "entity", "", "Filter by entity")
	queryCmd.Flags().StringVar(&queryKey, "key", "", "Exact key lookup (requires --entity)")
	queryCmd.Flags().StringVar(&queryCategory, "category", "", "Filter by category")
	queryCmd.Flags().BoolVar(&queryStats, "stats", false, "Show store statistics")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Output as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	db, err := openExistingDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if queryStats {
		return printQueryStats(db)
	}

	if queryKey != "" && queryEntity == "" {
		return fmt.Errorf("--key requires --entity")
	}

	if queryEntity != "" && queryKey != "" {
		f, err := db.FactByEntityKey(queryEntity, queryKey)
		if err != nil {
			return err
		}
		if f == nil {
			fmt.Println("No match found.")
			return nil
		}
		if queryJSON {
			return json.NewEncoder(os.Stdout).Encode(f)
		}
		fmt.Printf("%s.%s = %s\n", f.Entity, f.Key, f.Value)
		fmt.Printf("  category: %s | source: %s | permanent: %v\n", f.Category, f.Source, f.Permanent)
		return nil
	}

	var facts []store.Fact
	switch {
	case queryEntity != "":
		facts, err = db.FactsByEntity(queryEntity)
	case queryCategory != "":
		facts, err = db.FactsByCategory(queryCategory)
	case len(args) > 0:
		facts, err = db.SearchFactsFTS(strings.Join(args, " "), 50)
	default:
		return cmd.Help()
	}
	if err != nil {
		return err
	}

	if queryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(facts)
	}

	if len(facts) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for _, f := range facts {
		perm := ""
		if f.Permanent {
			perm = " (permanent)"
		}
		fmt.Printf("  %s.%s = %s%s\n", f.Entity, f.Key, f.Value, perm)
	}
	return nil
}

func printQueryStats(db *store.DB) error {
	total, err := db.FactCount()
	if err != nil {
		return err
	}
	var permanent int
	if err := db.QueryRow("SELECT COUNT(*) FROM facts WHERE permanent = 1").Scan(&permanent); err != nil {
		return err
	}

	fmt.Printf("Total facts: %d (%d permanent)\n", total, permanent)

	counts, err := db.CategoryCounts()
	if err != nil {
		return err
	}
	type catCount struct {
		name string
		n    int
	}
	ordered := make([]catCount, 0, len(counts))
	for name, n := range counts {
		ordered = append(ordered, catCount{name, n})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].n != ordered[j].n {
			return ordered[i].n > ordered[j].n
		}
		return ordered[i].name < ordered[j].name
	})

	fmt.Println("\nBy category:")
	for _, c := range ordered {
		fmt.Printf("  %s: %d\n", c.name, c.n)
	}
	return nil
}
