package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/crmx/internal/models"
)

// DefaultLimit is the page size used when a query does not name one.
const DefaultLimit = 10

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// ListOptions selects one page of a collection.
//
// Query matches the collection's text columns; an empty Query lists everything.
type ListOptions struct {
	Page   int
	Limit  int
	Status string
	Query  string
	SortBy models.SortField
	Order  models.SortOrder
}

// Normalize clamps page and limit and fills in the default sort.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	switch {
	case o.Limit <= 0:
		o.Limit = DefaultLimit
	case o.Limit > MaxLimit:
		o.Limit = MaxLimit
	}
	if o.SortBy == "" {
		o.SortBy = models.SortCreatedAt
	}
	if o.Order != models.Asc {
		o.Order = models.Desc
	}
	return o
}

func (o ListOptions) offset() int {
	return (o.Page - 1) * o.Limit
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers break ties between rows sharing a sort value so that paging is stable.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

// filter accumulates WHERE clauses and their arguments.
type filter struct {
	clauses []string
	args    []any
}

func (f *filter) add(clause string, args ...any) {
	f.clauses = append(f.clauses, clause)
	f.args = append(f.args, args...)
}

// search adds a LIKE match of q against any of columns.
func (f *filter) search(q string, columns ...string) {
	q = strings.TrimSpace(q)
	if q == "" {
		return
	}
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, c)
		f.args = append(f.args, pattern)
	}
	f.clauses = append(f.clauses, "("+strings.Join(parts, " OR ")+")")
}

func (f *filter) where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// orderBy maps a sort field through columns, falling back to fallback for unknown fields.
func orderBy(columns map[models.SortField]string, fallback string, o ListOptions, tiebreak string) string {
	col, ok := columns[o.SortBy]
	if !ok {
		col = fallback
	}
	dir := "DESC"
	if o.Order == models.Asc {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, %s %s", col, dir, tiebreak, dir)
}

// countByStatus returns per-status totals plus [models.CountsTotalKey] for rows matching f.
func countByStatus(db *sql.DB, from string, f filter) (map[string]int, error) {
	rows, err := db.Query("SELECT status, COUNT(*) FROM "+from+f.where()+" GROUP BY status", f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{models.CountsTotalKey: 0}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = n
		counts[models.CountsTotalKey] += n
	}
	return counts, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
