// Package engine holds the maintenance and retrieval algorithms that run
// over the fact store: daily activation decay and the multi-phase graph
// search.
package engine

import (
	"fmt"

	"github.com/lazypower/recall/internal/store"
)

// Decay model constants.
const (
	DecayRate = 0.95 // per-day multiplier (5% decay/day)
	// DecayFloor is the minimum score; facts never fully vanish.
	DecayFloor = 0.01
	// Hot/cold thresholds used by the stats report.
	HotThreshold  = 0.90
	ColdThreshold = 0.10
)

// ColdFact is one entry in the coldest-facts report.
type ColdFact struct {
	Entity       string
	Key          string
	DecayScore   float64
	LastAccessed string
}

// DecayStats summarizes the store's heat distribution.
type DecayStats struct {
	Total     int
	Permanent int
	Decayed   int
	Hot       int
	Cold      int
	AvgScore  float64
	MinScore  float64
	Coldest   []ColdFact
}

// RunDecay applies one day's decay to every non-permanent fact: unset
// scores initialize to 1.0, the rest multiply by DecayRate with a floor.
// Permanent facts are untouched. Running twice in one day compounds decay
// twice; scheduling is the caller's job.
func RunDecay(db *store.DB) error {
	// Initialize any unset scores first so new facts start hot
	_, err := db.Exec(`
		UPDATE facts SET decay_score = 1.0
		WHERE decay_score IS NULL AND permanent = 0
	`)
	if err != nil {
		return fmt.Errorf("init decay scores: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf(`
		UPDATE facts SET decay_score = MAX(%g, decay_score * %g)
		WHERE permanent = 0
	`, DecayFloor, DecayRate))
	if err != nil {
		return fmt.Errorf("apply decay: %w", err)
	}
	return nil
}

// Stats reads the current heat distribution without modifying anything.
func Stats(db *store.DB) (*DecayStats, error) {
	s := &DecayStats{}

	queries := []struct {
		dest *int
		sql  string
	}{
		{&s.Total, "SELECT COUNT(*) FROM facts"},
		{&s.Permanent, "SELECT COUNT(*) FROM facts WHERE permanent = 1"},
		{&s.Decayed, "SELECT COUNT(*) FROM facts WHERE permanent = 0"},
		{&s.Hot, fmt.Sprintf("SELECT COUNT(*) FROM facts WHERE permanent = 0 AND decay_score >= %g", HotThreshold)},
		{&s.Cold, fmt.Sprintf("SELECT COUNT(*) FROM facts WHERE permanent = 0 AND decay_score < %g", ColdThreshold)},
	}
	for _, q := range queries {
		if err := db.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("decay stats: %w", err)
		}
	}

	err := db.QueryRow(
		"SELECT COALESCE(AVG(decay_score), 0), COALESCE(MIN(decay_score), 0) FROM facts WHERE permanent = 0",
	).Scan(&s.AvgScore, &s.MinScore)
	if err != nil {
		return nil, fmt.Errorf("decay aggregates: %w", err)
	}

	rows, err := db.Query(`
		SELECT entity, key, decay_score, COALESCE(last_accessed, 'never')
		FROM facts
		WHERE permanent = 0 AND decay_score IS NOT NULL
		ORDER BY decay_score ASC, id ASC
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("coldest facts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c ColdFact
		if err := rows.Scan(&c.Entity, &c.Key, &c.DecayScore, &c.LastAccessed); err != nil {
			return nil, fmt.Errorf("scan cold fact: %w", err)
		}
		s.Coldest = append(s.Coldest, c)
	}
	return s, rows.Err()
}
