package store

import (
	"database/sql"
	"fmt"
)

// CoOccurrence is an associative weight between two facts, keyed
// symmetrically. Reserved for spreading-activation retrieval; ingestion
// does not populate it, but the schema contract is maintained here.
type CoOccurrence struct {
	FactA      int64   `json:"fact_a"`
	FactB      int64   `json:"fact_b"`
	Weight     float64 `json:"weight"`
	LastLinked string  `json:"last_linked,omitempty"`
}

// LinkFacts records (or strengthens) the association between two facts.
// The pair key is symmetric: LinkFacts(a, b) and LinkFacts(b, a) hit the
// same row.
func (db *DB) LinkFacts(a, b int64, weight float64) error {
	if a == b {
		return fmt.Errorf("link facts: cannot link fact %d to itself", a)
	}
	if b < a {
		a, b = b, a
	}
	_, err := db.Exec(`
		INSERT INTO co_occurrences (fact_a, fact_b, weight, last_linked)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT (fact_a, fact_b) DO UPDATE SET
			weight = weight + excluded.weight,
			last_linked = excluded.last_linked
	`, a, b, weight)
	if err != nil {
		return fmt.Errorf("link facts %d<->%d: %w", a, b, err)
	}
	return nil
}

// CoOccurrences returns all associations involving a fact, strongest first.
func (db *DB) CoOccurrences(factID int64) ([]CoOccurrence, error) {
	rows, err := db.Query(`
		SELECT fact_a, fact_b, weight, last_linked FROM co_occurrences
		WHERE fact_a = ? OR fact_b = ?
		ORDER BY weight DESC
	`, factID, factID)
	if err != nil {
		return nil, fmt.Errorf("co-occurrences for %d: %w", factID, err)
	}
	defer rows.Close()

	var links []CoOccurrence
	for rows.Next() {
		var c CoOccurrence
		var linked sql.NullString
		if err := rows.Scan(&c.FactA, &c.FactB, &c.Weight, &linked); err != nil {
			return nil, fmt.Errorf("scan co-occurrence: %w", err)
		}
		c.LastLinked = linked.String
		links = append(links, c)
	}
	return links, rows.Err()
}
