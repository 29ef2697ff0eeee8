package core

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type (
	// DBExecutor is satisfied by both *sqlx.DB and *sqlx.Tx so repositories
	// can run the same queries inside or outside a transaction.
	DBExecutor interface {
		sqlx.QueryerContext
		sqlx.ExecerContext
	}

	DB interface {
		DBExecutor

		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// Pagination is a page-number/page-size window over an ordered query.
type Pagination struct {
	Page     int
	PageSize int
}

func (p Pagination) Limit() int {
	return p.PageSize
}

func (p Pagination) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.PageSize
}

// Pages returns the number of pages needed for `count` rows.
func (p Pagination) Pages(count int) int {
	if p.PageSize <= 0 {
		return 0
	}
	n := count / p.PageSize
	if count%p.PageSize > 0 {
		n++
	}
	return n
}
