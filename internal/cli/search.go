package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/recall/internal/engine"
)

var (
	searchJSON bool
	searchTopK int
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Answer a natural-language question from the graph",
	Long: "Resolve entities and intents from the query, then rank matching\n" +
		"facts and relations by confidence. Full-text search backfills when\n" +
		"nothing resolves directly.",
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output as JSON")
	searchCmd.Flags().IntVar(&searchTopK, "top-k", engine.DefaultTopK, "Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	db, err := openExistingDB()
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := engine.Search(db, query, searchTopK)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if searchJSON {
		if results == nil {
			results = []engine.Result{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for _, r := range results {
		fmt.Printf("[%d] [%s] %s\n", r.Score, r.Method, r.Answer)
		fmt.Printf("    source: %s\n", r.Source)
	}
	return nil
}
