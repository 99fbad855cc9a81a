package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/garyjia/freelance-billing/internal/infrastructure/persistence/sqlite"
)

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// requireAffected turns a write that touched no rows into notFound
func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return sqlite.Wrap("read rows affected", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

func count(ctx context.Context, db *sql.DB, query string, args ...interface{}) (int, error) {
	var n int
	if err := sqlite.Exec(ctx, db).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, sqlite.Wrap(fmt.Sprintf("count (%s)", strings.TrimSpace(query)), err)
	}
	return n, nil
}

// where joins conditions with AND, returning "" when there are none
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
