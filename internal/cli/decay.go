package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/recall/internal/engine"
)

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Apply one round of score decay to all facts",
	Long: "Multiply every non-permanent fact's decay score by the daily rate,\n" +
		"with a floor so nothing disappears entirely. Meant to run once a day\n" +
		"from cron; retrieval resets scores on access.",
	RunE: runDecay,
}

func runDecay(cmd *cobra.Command, args []string) error {
	db, err := openExistingDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := engine.RunDecay(db); err != nil {
		return err
	}

	stats, err := engine.Stats(db)
	if err != nil {
		return err
	}

	fmt.Printf("Decay run @ %s (rate %.2f, floor %.2f)\n",
		time.Now().UTC().Format(time.RFC3339), engine.DecayRate, engine.DecayFloor)
	fmt.Printf("  Facts:     %d (%d permanent, %d decaying)\n", stats.Total, stats.Permanent, stats.Decayed)
	fmt.Printf("  Hot:       %d (score >= %.2f)\n", stats.Hot, engine.HotThreshold)
	fmt.Printf("  Cold:      %d (score < %.2f)\n", stats.Cold, engine.ColdThreshold)
	fmt.Printf("  Avg score: %.3f  Min: %.3f\n", stats.AvgScore, stats.MinScore)

	if len(stats.Coldest) > 0 {
		fmt.Println("\n  Coldest facts:")
		for _, c := range stats.Coldest {
			fmt.Printf("    %.3f  %s.%s (last accessed: %s)\n", c.DecayScore, c.Entity, c.Key, c.LastAccessed)
		}
	}
	return nil
}
