package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// obsRe matches tagged observation lines: "- [type|i=0.85] content".
var obsRe = regexp.MustCompile(`^- \[(\w+)\|i=(\d+\.\d+)\]\s+(.+)$`)

// Retention tiers. Observations at or above the structural threshold
// are never pruned and get surfaced as promotion candidates; the rest
// age out on two schedules.
const (
	StructuralThreshold = 0.8
	PotentialThreshold  = 0.4
	PotentialDays       = 30
	ContextualDays      = 7
)

// Observation is one tagged journal line, e.g.
// "- [decision|i=0.85] Switched the proxy to Caddy".
type Observation struct {
	Type       string
	Importance float64
	Content    string
	Date       string
}

// FileResult records what pruning did to one journal file.
type FileResult struct {
	Name    string
	AgeDays int
	Pruned  int
}

// PruneReport aggregates a pruning run.
type PruneReport struct {
	Files         []FileResult
	Pruned        int
	FilesModified int
	Promoted      []Observation
	DryRun        bool
}

// shouldPrune applies the retention tiers to one observation.
func shouldPrune(importance float64, ageDays int) bool {
	switch {
	case importance >= StructuralThreshold:
		return false
	case importance >= PotentialThreshold:
		return ageDays > PotentialDays
	default:
		return ageDays > ContextualDays
	}
}

// Prune walks the dated files in dir and drops observations that have
// aged past their tier. Files younger than the contextual window are
// skipped without being opened. Non-observation lines (headers, manual
// notes) pass through verbatim, and a file is only rewritten when
// something was actually pruned and dryRun is off.
//
// Pruning touches journal text only. Facts already extracted into the
// store age out through decay instead; removing a journal line never
// retracts the rows it produced.
func Prune(dir string, today time.Time, dryRun bool) (*PruneReport, error) {
	report := &PruneReport{DryRun: dryRun}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return nil, fmt.Errorf("read journal dir: %w", err)
	}

	todayDate := dateOnly(today)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fileDate, ok := FileDate(e.Name())
		if !ok {
			continue
		}
		ageDays := int(todayDate.Sub(fileDate).Hours() / 24)
		if ageDays < ContextualDays {
			continue
		}

		path := filepath.Join(dir, e.Name())
		pruned, promoted, err := pruneFile(path, fileDate, ageDays, dryRun)
		if err != nil {
			return nil, err
		}

		if pruned > 0 {
			report.Files = append(report.Files, FileResult{
				Name:    e.Name(),
				AgeDays: ageDays,
				Pruned:  pruned,
			})
			report.Pruned += pruned
			report.FilesModified++
		}
		report.Promoted = append(report.Promoted, promoted...)
	}
	return report, nil
}

func pruneFile(path string, fileDate time.Time, ageDays int, dryRun bool) (int, []Observation, error) {
	content, err := ReadLossy(path)
	if err != nil {
		return 0, nil, err
	}

	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	pruned := 0
	var promoted []Observation

	for _, line := range lines {
		m := obsRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			kept = append(kept, line)
			continue
		}

		importance, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			kept = append(kept, line)
			continue
		}

		if shouldPrune(importance, ageDays) {
			pruned++
			continue
		}
		kept = append(kept, line)

		if importance >= StructuralThreshold {
			promoted = append(promoted, Observation{
				Type:       m[1],
				Importance: importance,
				Content:    m[3],
				Date:       fileDate.Format("2006-01-02"),
			})
		}
	}

	if pruned > 0 && !dryRun {
		if err := os.WriteFile(path, []byte(strings.Join(kept, "\n")), 0o644); err != nil {
			return 0, nil, fmt.Errorf("rewrite %s: %w", path, err)
		}
	}
	return pruned, promoted, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
