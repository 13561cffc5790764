package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/recall/internal/journal"
)

var pruneDryRun bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop aged-out observations from journal files",
	Long: "Scan dated journal files and remove low-importance observations past\n" +
		"their retention window. Structural observations (i >= 0.8) are never\n" +
		"removed and get listed as promotion candidates.",
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "Preview without modifying files")
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report, err := journal.Prune(cfg.Journal.Dir, time.Now().UTC(), pruneDryRun)
	if err != nil {
		return err
	}

	action := "pruned"
	if pruneDryRun {
		action = "would prune"
	}
	for _, f := range report.Files {
		fmt.Printf("  %s: %s %d observations (%dd old)\n", f.Name, action, f.Pruned, f.AgeDays)
	}

	if len(report.Promoted) > 0 {
		fmt.Printf("\n%d structural observations (i >= %.1f), candidates for promotion:\n",
			len(report.Promoted), journal.StructuralThreshold)
		for i, p := range report.Promoted {
			if i == 10 {
				fmt.Printf("  ... and %d more\n", len(report.Promoted)-10)
				break
			}
			content := p.Content
			if len(content) > 100 {
				content = content[:100]
			}
			fmt.Printf("  [%s] %s: %s\n", p.Type, p.Date, content)
		}
	}

	fmt.Printf("\nSummary: %d pruned, %d files modified, %d promotion candidates\n",
		report.Pruned, report.FilesModified, len(report.Promoted))
	return nil
}
