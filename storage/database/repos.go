package database

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
)

// psql builds queries with Postgres-style $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func isNoRows(err error) bool {
	return errors.Cause(err) == sql.ErrNoRows
}
