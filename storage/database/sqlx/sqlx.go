// Package sqlxrepos is the PostgreSQL Entity Store.
// Read-modify-write operations lock the target row (SELECT ... FOR UPDATE) inside one transaction.
package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	uniqueViolation     = pq.ErrorCode("23505")
	foreignKeyViolation = pq.ErrorCode("23503")
)

// NewDB wraps an opened PostgreSQL handle.
func NewDB(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

func pqCode(err error) pq.ErrorCode {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code
	}
	return ""
}

// trapNoRowsErr converts sql.ErrNoRows into `notFound`.
func trapNoRowsErr(err, notFound error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return err
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

// conditions accumulates AND-ed WHERE clauses with positional args.
type conditions struct {
	clauses []string
	args    []interface{}
}

// add appends `clause`, whose `%d` verbs all receive the position of `arg`.
func (c *conditions) add(clause string, arg interface{}) {
	c.args = append(c.args, arg)
	n := len(c.args)
	verbs := strings.Count(clause, "%d")
	pos := make([]interface{}, verbs)
	for i := range pos {
		pos[i] = n
	}
	c.clauses = append(c.clauses, fmt.Sprintf(clause, pos...))
}

func (c conditions) String() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}
