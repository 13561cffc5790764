package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// Outcome reports what an insert-or-ignore operation did.
type Outcome int

const (
	Inserted Outcome = iota
	AlreadyExists
)

func (o Outcome) String() string {
	if o == Inserted {
		return "inserted"
	}
	return "already-exists"
}

// Fact is a single (entity, key, value) assertion with scoring metadata.
// The (entity, key, value) triple is unique within the store.
type Fact struct {
	ID           int64    `json:"id,omitempty"`
	Entity       string   `json:"entity"`
	Key          string   `json:"key"`
	Value        string   `json:"value"`
	Category     string   `json:"category,omitempty"`
	Source       string   `json:"source,omitempty"`
	Permanent    bool     `json:"permanent,omitempty"`
	DecayScore   *float64 `json:"decay_score,omitempty"`
	Activation   float64  `json:"activation,omitempty"`
	Importance   float64  `json:"importance,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
	LastAccessed string   `json:"last_accessed,omitempty"`
}

const factColumnsSQL = `id, entity, key, value, category, source, permanent,
	decay_score, activation, importance, created_at, last_accessed`

// UpsertFact inserts a fact, ignoring duplicates on (entity, key, value).
func (db *DB) UpsertFact(f *Fact) (Outcome, error) {
	category := f.Category
	if category == "" {
		category = "other"
	}
	res, err := db.Exec(`
		INSERT OR IGNORE INTO facts (entity, key, value, category, source, permanent, importance)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), ?, COALESCE(NULLIF(?, 0.0), 0.5))
	`, f.Entity, f.Key, f.Value, category, f.Source, f.Permanent, f.Importance)
	if err != nil {
		return AlreadyExists, fmt.Errorf("upsert fact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return AlreadyExists, fmt.Errorf("upsert fact rows: %w", err)
	}
	if n == 0 {
		return AlreadyExists, nil
	}
	id, _ := res.LastInsertId()
	f.ID = id
	return Inserted, nil
}

// FactExists reports whether the (entity, key, value) triple is stored.
func (db *DB) FactExists(entity, key, value string) (bool, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM facts WHERE entity = ? AND key = ? AND value = ?",
		entity, key, value,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("fact exists: %w", err)
	}
	return n > 0, nil
}

// ResolveEntity maps a surface name to a canonical entity: first through
// the alias table, then by exact case-insensitive entity match. A missing
// alias table (pre-upgrade store) degrades to the entity match alone.
func (db *DB) ResolveEntity(name string) (string, bool, error) {
	var entity string
	err := db.QueryRow(
		"SELECT entity FROM aliases WHERE alias = ? COLLATE NOCASE", name,
	).Scan(&entity)
	if err == nil {
		return entity, true, nil
	}
	if err != sql.ErrNoRows && !isMissingTable(err) {
		return "", false, fmt.Errorf("resolve alias: %w", err)
	}

	err = db.QueryRow(
		"SELECT DISTINCT entity FROM facts WHERE entity = ? COLLATE NOCASE", name,
	).Scan(&entity)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolve entity: %w", err)
	}
	return entity, true, nil
}

// FactsByEntity returns all facts for an entity.
func (db *DB) FactsByEntity(entity string) ([]Fact, error) {
	rows, err := db.Query(
		"SELECT "+factColumnsSQL+" FROM facts WHERE entity = ? ORDER BY id", entity)
	if err != nil {
		return nil, fmt.Errorf("facts by entity: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// FactsByEntityKeyLike returns facts for an entity whose key contains
// the given fragment (intent matching).
func (db *DB) FactsByEntityKeyLike(entity, keyFragment string) ([]Fact, error) {
	rows, err := db.Query(
		"SELECT "+factColumnsSQL+" FROM facts WHERE entity = ? AND key LIKE ? ORDER BY id",
		entity, "%"+keyFragment+"%")
	if err != nil {
		return nil, fmt.Errorf("facts by entity+key: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// FactsByCategory returns all facts in a category.
func (db *DB) FactsByCategory(category string) ([]Fact, error) {
	rows, err := db.Query(
		"SELECT "+factColumnsSQL+" FROM facts WHERE category = ? ORDER BY id", category)
	if err != nil {
		return nil, fmt.Errorf("facts by category: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// FactByEntityKey returns the first fact for an exact entity+key pair,
// or nil when absent.
func (db *DB) FactByEntityKey(entity, key string) (*Fact, error) {
	rows, err := db.Query(
		"SELECT "+factColumnsSQL+" FROM facts WHERE entity = ? AND key = ? LIMIT 1",
		entity, key)
	if err != nil {
		return nil, fmt.Errorf("fact by entity+key: %w", err)
	}
	defer rows.Close()
	facts, err := scanFacts(rows)
	if err != nil || len(facts) == 0 {
		return nil, err
	}
	return &facts[0], nil
}

// SearchFactsFTS runs a full-text query over the facts index. Invalid
// FTS syntax is reported as an error for the caller to downgrade.
func (db *DB) SearchFactsFTS(match string, limit int) ([]Fact, error) {
	rows, err := db.Query(`
		SELECT `+factColumnsSQL+` FROM facts
		WHERE id IN (SELECT rowid FROM facts_fts WHERE facts_fts MATCH ?)
		ORDER BY id LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("facts fts: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// TouchFact marks a fact as accessed: decay_score snaps back to 1.0 so
// retrieved facts stay hot.
func (db *DB) TouchFact(id int64) error {
	_, err := db.Exec(`
		UPDATE facts SET decay_score = 1.0, last_accessed = datetime('now')
		WHERE id = ? AND permanent = 0
	`, id)
	if err != nil {
		return fmt.Errorf("touch fact %d: %w", id, err)
	}
	return nil
}

// IndexedSources returns every distinct source recorded on facts or
// relations, for unindexed-file discovery.
func (db *DB) IndexedSources() (map[string]bool, error) {
	rows, err := db.Query(`
		SELECT DISTINCT source FROM facts WHERE source IS NOT NULL
		UNION
		SELECT DISTINCT source FROM relations WHERE source IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("indexed sources: %w", err)
	}
	defer rows.Close()

	sources := make(map[string]bool)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources[s] = true
	}
	return sources, rows.Err()
}

// FactCount returns the total number of stored facts.
func (db *DB) FactCount() (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM facts").Scan(&n)
	return n, err
}

// EntityCount returns the number of distinct fact entities.
func (db *DB) EntityCount() (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(DISTINCT entity) FROM facts").Scan(&n)
	return n, err
}

// TopEntities returns the entities with the most facts, best first.
func (db *DB) TopEntities(limit int) ([]struct {
	Entity string
	Count  int
}, error) {
	rows, err := db.Query(`
		SELECT entity, COUNT(*) c FROM facts
		GROUP BY entity ORDER BY c DESC, entity LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top entities: %w", err)
	}
	defer rows.Close()

	var out []struct {
		Entity string
		Count  int
	}
	for rows.Next() {
		var e struct {
			Entity string
			Count  int
		}
		if err := rows.Scan(&e.Entity, &e.Count); err != nil {
			return nil, fmt.Errorf("scan top entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CategoryCounts returns fact counts per category, largest first.
func (db *DB) CategoryCounts() (map[string]int, error) {
	rows, err := db.Query("SELECT category, COUNT(*) FROM facts GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[cat] = n
	}
	return counts, rows.Err()
}

func scanFacts(rows *sql.Rows) ([]Fact, error) {
	var facts []Fact
	for rows.Next() {
		var f Fact
		var category, source, createdAt, lastAccessed sql.NullString
		var permanent int
		var decay, activation, importance sql.NullFloat64
		if err := rows.Scan(&f.ID, &f.Entity, &f.Key, &f.Value,
			&category, &source, &permanent,
			&decay, &activation, &importance,
			&createdAt, &lastAccessed); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		f.Category = category.String
		f.Source = source.String
		f.Permanent = permanent != 0
		if decay.Valid {
			v := decay.Float64
			f.DecayScore = &v
		}
		f.Activation = activation.Float64
		f.Importance = importance.Float64
		f.CreatedAt = createdAt.String
		f.LastAccessed = lastAccessed.String
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// isMissingTable detects "no such table" errors so read paths can degrade
// on stores that predate an upgrade instead of failing the whole query.
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
