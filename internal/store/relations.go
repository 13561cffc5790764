package store

import (
	"database/sql"
	"fmt"
)

// Relation is a directed (subject, predicate, object) edge between entity
// names. Neither endpoint is required to exist as a fact entity.
type Relation struct {
	ID        int64  `json:"id,omitempty"`
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	Source    string `json:"source,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

const relationColumnsSQL = `id, subject, predicate, object, source, created_at`

// UpsertRelation inserts a relation, ignoring duplicates on
// (subject, predicate, object).
func (db *DB) UpsertRelation(r *Relation) (Outcome, error) {
	res, err := db.Exec(`
		INSERT OR IGNORE INTO relations (subject, predicate, object, source)
		VALUES (?, ?, ?, NULLIF(?, ''))
	`, r.Subject, r.Predicate, r.Object, r.Source)
	if err != nil {
		return AlreadyExists, fmt.Errorf("upsert relation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return AlreadyExists, fmt.Errorf("upsert relation rows: %w", err)
	}
	if n == 0 {
		return AlreadyExists, nil
	}
	id, _ := res.LastInsertId()
	r.ID = id
	return Inserted, nil
}

// RelationExists reports whether the (subject, predicate, object) triple
// is stored.
func (db *DB) RelationExists(subject, predicate, object string) (bool, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM relations WHERE subject = ? AND predicate = ? AND object = ?",
		subject, predicate, object,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("relation exists: %w", err)
	}
	return n > 0, nil
}

// RelationCount returns the total number of stored relations.
func (db *DB) RelationCount() (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM relations").Scan(&n)
	return n, err
}

// RelationsBySubject returns all relations where the entity is the subject.
func (db *DB) RelationsBySubject(subject string) ([]Relation, error) {
	rows, err := db.Query(
		"SELECT "+relationColumnsSQL+" FROM relations WHERE subject = ? ORDER BY id", subject)
	if err != nil {
		return nil, fmt.Errorf("relations by subject: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// RelationsBySubjectPredicateLike returns relations for a subject whose
// predicate contains the given fragment (intent matching).
func (db *DB) RelationsBySubjectPredicateLike(subject, fragment string) ([]Relation, error) {
	rows, err := db.Query(
		"SELECT "+relationColumnsSQL+" FROM relations WHERE subject = ? AND predicate LIKE ? ORDER BY id",
		subject, "%"+fragment+"%")
	if err != nil {
		return nil, fmt.Errorf("relations by subject+predicate: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// SearchRelationsFTS runs a full-text query over the relations index.
func (db *DB) SearchRelationsFTS(match string, limit int) ([]Relation, error) {
	rows, err := db.Query(`
		SELECT `+relationColumnsSQL+` FROM relations
		WHERE id IN (SELECT rowid FROM relations_fts WHERE relations_fts MATCH ?)
		ORDER BY id LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("relations fts: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

func scanRelations(rows *sql.Rows) ([]Relation, error) {
	var rels []Relation
	for rows.Next() {
		var r Relation
		var source, createdAt sql.NullString
		if err := rows.Scan(&r.ID, &r.Subject, &r.Predicate, &r.Object,
			&source, &createdAt); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		r.Source = source.String
		r.CreatedAt = createdAt.String
		rels = append(rels, r)
	}
	return rels, rows.Err()
}
