package store

import (
	"database/sql"
	"fmt"
)

// Object statuses reported by Migrate.
const (
	StatusAdded  = "added"
	StatusExists = "exists"
)

// ObjectStatus records the outcome for a single schema object.
type ObjectStatus struct {
	Name   string
	Status string
}

// MigrationReport lists every schema object Migrate considered, in order.
type MigrationReport struct {
	Objects []ObjectStatus
}

// Added returns the number of objects created by this run.
func (r *MigrationReport) Added() int {
	n := 0
	for _, o := range r.Objects {
		if o.Status == StatusAdded {
			n++
		}
	}
	return n
}

func (r *MigrationReport) record(name, status string) {
	r.Objects = append(r.Objects, ObjectStatus{Name: name, Status: status})
}

// columnDef describes a column added to an existing table by an upgrade.
type columnDef struct {
	Table      string
	Name       string
	Definition string
}

// factColumns are the scoring columns added on top of the base facts table.
var factColumns = []columnDef{
	{"facts", "decay_score", "REAL"},
	{"facts", "activation", "REAL DEFAULT 0.0"},
	{"facts", "importance", "REAL DEFAULT 0.5"},
}

// Migrate brings the schema up to date and reports per-object status.
// Safe to run any number of times: existing objects are reported as
// "exists" and left untouched, and no statement drops or rewrites data.
// The whole upgrade runs in one transaction, so an unexpected structural
// error rolls everything back.
func (db *DB) Migrate() (*MigrationReport, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	report := &MigrationReport{}

	if err := migrateIn(tx, report); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit migration: %w", err)
	}
	return report, nil
}

func migrateIn(tx *sql.Tx, report *MigrationReport) error {
	// Marker table so older stores can be distinguished from fresh ones.
	if err := createTable(tx, report, "schema_versions", `
CREATE TABLE schema_versions (
    version     INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at  TEXT NOT NULL DEFAULT (datetime('now'))
)`); err != nil {
		return err
	}

	if err := createTable(tx, report, "facts", `
CREATE TABLE facts (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    entity        TEXT NOT NULL,
    key           TEXT NOT NULL,
    value         TEXT NOT NULL,
    category      TEXT NOT NULL DEFAULT 'other',
    source        TEXT,
    permanent     INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL DEFAULT (datetime('now')),
    last_accessed TEXT,
    UNIQUE (entity, key, value)
)`); err != nil {
		return err
	}
	if err := createIndex(tx, report, "idx_facts_entity",
		"CREATE INDEX idx_facts_entity ON facts(entity)"); err != nil {
		return err
	}

	for _, col := range factColumns {
		if err := addColumn(tx, report, col); err != nil {
			return err
		}
	}

	if err := createTable(tx, report, "facts_fts", `
CREATE VIRTUAL TABLE facts_fts USING fts5(
    entity, key, value,
    content=facts,
    content_rowid=id
)`); err != nil {
		return err
	}
	if err := ftsTriggers(tx, report, "facts", "facts_fts",
		[]string{"entity", "key", "value"}); err != nil {
		return err
	}

	if err := createTable(tx, report, "relations", `
CREATE TABLE relations (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    subject    TEXT NOT NULL,
    predicate  TEXT NOT NULL,
    object     TEXT NOT NULL,
    source     TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE (subject, predicate, object)
)`); err != nil {
		return err
	}
	if err := createIndex(tx, report, "idx_relations_subject",
		"CREATE INDEX idx_relations_subject ON relations(subject)"); err != nil {
		return err
	}
	if err := createIndex(tx, report, "idx_relations_predicate",
		"CREATE INDEX idx_relations_predicate ON relations(predicate)"); err != nil {
		return err
	}

	if err := createTable(tx, report, "relations_fts", `
CREATE VIRTUAL TABLE relations_fts USING fts5(
    subject, predicate, object,
    content=relations,
    content_rowid=id
)`); err != nil {
		return err
	}
	if err := ftsTriggers(tx, report, "relations", "relations_fts",
		[]string{"subject", "predicate", "object"}); err != nil {
		return err
	}

	if err := createTable(tx, report, "aliases", `
CREATE TABLE aliases (
    alias  TEXT NOT NULL COLLATE NOCASE,
    entity TEXT NOT NULL COLLATE NOCASE,
    PRIMARY KEY (alias, entity)
)`); err != nil {
		return err
	}

	if err := createTable(tx, report, "co_occurrences", `
CREATE TABLE co_occurrences (
    fact_a      INTEGER NOT NULL,
    fact_b      INTEGER NOT NULL,
    weight      REAL NOT NULL DEFAULT 1.0,
    last_linked TEXT,
    PRIMARY KEY (fact_a, fact_b),
    FOREIGN KEY (fact_a) REFERENCES facts(id),
    FOREIGN KEY (fact_b) REFERENCES facts(id)
)`); err != nil {
		return err
	}
	if err := createIndex(tx, report, "idx_co_occ_a",
		"CREATE INDEX idx_co_occ_a ON co_occurrences(fact_a)"); err != nil {
		return err
	}
	if err := createIndex(tx, report, "idx_co_occ_b",
		"CREATE INDEX idx_co_occ_b ON co_occurrences(fact_b)"); err != nil {
		return err
	}

	_, err := tx.Exec(
		"INSERT OR IGNORE INTO schema_versions (version, description) VALUES (?, ?)",
		2, "facts graph: scoring columns, relations, aliases, co-occurrences, FTS")
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return nil
}

func objectExists(tx *sql.Tx, kind, name string) (bool, error) {
	var n int
	err := tx.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?",
		kind, name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check %s %s: %w", kind, name, err)
	}
	return n > 0, nil
}

func createTable(tx *sql.Tx, report *MigrationReport, name, ddl string) error {
	exists, err := objectExists(tx, "table", name)
	if err != nil {
		return err
	}
	if exists {
		report.record(name, StatusExists)
		return nil
	}
	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	report.record(name, StatusAdded)
	return nil
}

func createIndex(tx *sql.Tx, report *MigrationReport, name, ddl string) error {
	exists, err := objectExists(tx, "index", name)
	if err != nil {
		return err
	}
	if exists {
		report.record(name, StatusExists)
		return nil
	}
	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	report.record(name, StatusAdded)
	return nil
}

func addColumn(tx *sql.Tx, report *MigrationReport, col columnDef) error {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", col.Table))
	if err != nil {
		return fmt.Errorf("table_info %s: %w", col.Table, err)
	}
	found := false
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return fmt.Errorf("scan table_info %s: %w", col.Table, err)
		}
		if name == col.Name {
			found = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	qualified := col.Table + "." + col.Name
	if found {
		report.record(qualified, StatusExists)
		return nil
	}
	_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		col.Table, col.Name, col.Definition))
	if err != nil {
		return fmt.Errorf("add column %s: %w", qualified, err)
	}
	report.record(qualified, StatusAdded)
	return nil
}

// ftsTriggers keeps an external-content FTS table in sync with its base
// table across inserts, deletes, and updates. Newly created indices over
// a table that already has rows are backfilled with a rebuild.
func ftsTriggers(tx *sql.Tx, report *MigrationReport, table, fts string, cols []string) error {
	colList := ""
	newList := ""
	oldList := ""
	for i, c := range cols {
		if i > 0 {
			colList += ", "
			newList += ", "
			oldList += ", "
		}
		colList += `"` + c + `"`
		newList += `new."` + c + `"`
		oldList += `old."` + c + `"`
	}

	triggers := []struct {
		name string
		ddl  string
	}{
		{table + "_ai", fmt.Sprintf(
			`CREATE TRIGGER %s_ai AFTER INSERT ON %s BEGIN
  INSERT INTO %s(rowid, %s) VALUES (new.id, %s);
END`, table, table, fts, colList, newList)},
		{table + "_ad", fmt.Sprintf(
			`CREATE TRIGGER %s_ad AFTER DELETE ON %s BEGIN
  INSERT INTO %s(%s, rowid, %s) VALUES('delete', old.id, %s);
END`, table, table, fts, fts, colList, oldList)},
		// Scoring updates (decay, touch) leave the indexed text unchanged,
		// so the update trigger fires only on indexed columns.
		{table + "_au", fmt.Sprintf(
			`CREATE TRIGGER %s_au AFTER UPDATE OF `+colList+` ON %s BEGIN
  INSERT INTO %s(%s, rowid, %s) VALUES('delete', old.id, %s);
  INSERT INTO %s(rowid, %s) VALUES (new.id, %s);
END`, table, table, fts, fts, colList, oldList, fts, colList, newList)},
	}

	createdAny := false
	for _, tr := range triggers {
		exists, err := objectExists(tx, "trigger", tr.name)
		if err != nil {
			return err
		}
		if exists {
			report.record(tr.name, StatusExists)
			continue
		}
		if _, err := tx.Exec(tr.ddl); err != nil {
			return fmt.Errorf("create trigger %s: %w", tr.name, err)
		}
		report.record(tr.name, StatusAdded)
		createdAny = true
	}

	if createdAny {
		if _, err := tx.Exec(fmt.Sprintf(
			"INSERT INTO %s(%s) VALUES('rebuild')", fts, fts)); err != nil {
			return fmt.Errorf("rebuild %s: %w", fts, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest recorded schema version, 0 for a
// store that predates the marker table.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
