package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/catalog-service/internal/pagination"
	"github.com/maxviazov/catalog-service/internal/repository"
)

// pgSource is a pagination.Source over one filtered table expression.
// where and orderBy are trusted SQL fragments; user input travels only in args.
type pgSource[T any] struct {
	pool    *pgxpool.Pool
	columns string
	from    string
	where   string
	orderBy string
	args    []any
	scan    func(pgx.Row) (T, error)
}

func (s pgSource[T]) Count(ctx context.Context) (int, error) {
	sql := "SELECT COUNT(*) FROM " + s.from + s.whereClause()
	var n int
	if err := getQ(ctx, s.pool).QueryRow(ctx, sql, s.args...).Scan(&n); err != nil {
		return 0, repository.MapPgError(err)
	}
	return n, nil
}

func (s pgSource[T]) Window(ctx context.Context, offset, limit int) ([]T, error) {
	// Postgres rejects a negative OFFSET, so I clamp it the way SliceSource does.
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return []T{}, nil
	}
	n := len(s.args)
	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		s.columns, s.from, s.whereClause(), s.orderBy, n+1, n+2)
	args := append(append(make([]any, 0, n+2), s.args...), limit, offset)

	rows, err := getQ(ctx, s.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()

	out := make([]T, 0, limit)
	for rows.Next() {
		item, err := s.scan(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.MapPgError(err)
	}
	return out, nil
}

func (s pgSource[T]) whereClause() string {
	if s.where == "" {
		return ""
	}
	return " WHERE " + s.where
}

// paginate runs count and window inside one read-only snapshot.
func paginate[T any](ctx context.Context, tx repository.TxManager, src pgSource[T], req pagination.Request) (pagination.Result[T], error) {
	var res pagination.Result[T]
	err := tx.WithinReadTx(ctx, func(ctx context.Context) error {
		var err error
		res, err = pagination.Paginate[T](ctx, src, req)
		return err
	})
	return res, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string { return likeEscaper.Replace(s) }

var _ pagination.Source[int] = pgSource[int]{}
