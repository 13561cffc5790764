package store

import "fmt"

// Alias maps a surface form to a canonical entity name. Both sides
// compare case-insensitively; many aliases may point at one entity.
type Alias struct {
	Alias  string `json:"alias"`
	Entity string `json:"entity"`
}

// UpsertAlias inserts an alias pair, ignoring case-insensitive duplicates.
func (db *DB) UpsertAlias(a *Alias) (Outcome, error) {
	res, err := db.Exec(
		"INSERT OR IGNORE INTO aliases (alias, entity) VALUES (?, ?)",
		a.Alias, a.Entity)
	if err != nil {
		return AlreadyExists, fmt.Errorf("upsert alias: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return AlreadyExists, fmt.Errorf("upsert alias rows: %w", err)
	}
	if n == 0 {
		return AlreadyExists, nil
	}
	return Inserted, nil
}

// AliasExists reports whether the pair is already stored, matching the
// table's case-insensitive collation.
func (db *DB) AliasExists(alias, entity string) (bool, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM aliases WHERE alias = ? AND entity = ?",
		alias, entity).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("alias exists: %w", err)
	}
	return n > 0, nil
}

// AllAliases returns every distinct alias surface form on record. A
// store that predates the alias table yields an empty list.
func (db *DB) AllAliases() ([]string, error) {
	rows, err := db.Query("SELECT DISTINCT alias FROM aliases ORDER BY alias")
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("all aliases: %w", err)
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

// AliasCount returns the number of stored alias pairs.
func (db *DB) AliasCount() (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM aliases").Scan(&n)
	return n, err
}
