package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Visit summarizes the journal rows for one path.
type Visit struct {
	Path      string
	Count     int
	Amount    float64 // sum of recorded increases
	LastVisit time.Time
}

// Record appends one visit of path.
func (db *DB) Record(path string, amount float64, at time.Time) error {
	if path == "" {
		return errors.New("record visit: empty path")
	}
	_, err := db.Exec(`
		INSERT INTO visits (path, amount, visited_at) VALUES (?, ?, ?)
	`, path, amount, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// Recent returns up to limit paths ordered by their latest visit, newest
// first.
func (db *DB) Recent(limit int) ([]Visit, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := db.Query(`
		SELECT path, COUNT(*), COALESCE(SUM(amount), 0), MAX(visited_at)
		FROM visits
		GROUP BY path
		ORDER BY MAX(visited_at) DESC, path ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		var last int64
		if err := rows.Scan(&v.Path, &v.Count, &v.Amount, &last); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		v.LastVisit = time.UnixMilli(last)
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// Count returns the number of recorded visits.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM visits").Scan(&n); err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return n, nil
}

// Forget deletes every visit of the given paths and returns the number of
// rows removed.
func (db *DB) Forget(paths ...string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(paths)), ",")
	args := make([]any, len(paths))
	for i, p := range paths {
		args[i] = p
	}

	result, err := db.Exec("DELETE FROM visits WHERE path IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("forget visits: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// Prune deletes visits recorded before the cutoff.
func (db *DB) Prune(before time.Time) (int64, error) {
	result, err := db.Exec("DELETE FROM visits WHERE visited_at < ?", before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune visits: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
