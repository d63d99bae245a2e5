package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hongminglow/storefront-api/internal/storage"
)

// Ensure Store satisfies every storage interface at compile time.
var (
	_ storage.UserStore     = (*Store)(nil)
	_ storage.TokenStore    = (*Store)(nil)
	_ storage.CategoryStore = (*Store)(nil)
	_ storage.ProductStore  = (*Store)(nil)
	_ storage.OrderStore    = (*Store)(nil)
)

// Postgres error codes mapped to storage errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Store provides Postgres-backed persistence on top of a database/sql pool
// opened with the pgx driver.
type Store struct {
	db *sql.DB
}

// New wraps an open pool. The caller owns db and closes it.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// translate maps driver errors onto the storage sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", storage.ErrReference, pgErr.ConstraintName)
		}
	}
	return err
}

// list runs a paginated, filtered, sorted SELECT over t and scans each row.
func list[T any](ctx context.Context, db *sql.DB, t table, params storage.ListParams, scan func(rowScanner) (T, error)) ([]T, error) {
	params = params.Normalize()

	where, args, err := t.where(params.Filter)
	if err != nil {
		return nil, err
	}
	orderBy, err := t.orderBy(params.Sort)
	if err != nil {
		return nil, err
	}

	args = append(args, params.Limit, params.Offset())
	q := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT $%d OFFSET $%d",
		t.selectList, t.name, where, orderBy, len(args)-1, len(args))

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, translate(err))
	}
	defer rows.Close()

	out := make([]T, 0, params.Limit)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, translate(err))
	}
	return out, nil
}

// exists reports whether t has a row with id owned by userID.
func exists(ctx context.Context, db *sql.DB, t table, id, userID int64) (bool, error) {
	q := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND user_id = $2)", t.name)
	var found bool
	if err := db.QueryRowContext(ctx, q, id, userID).Scan(&found); err != nil {
		return false, fmt.Errorf("check %s ownership: %w", t.name, translate(err))
	}
	return found, nil
}

// assignment is one "column = value" pair of an UPDATE.
type assignment struct {
	column string
	value  any
}

// update sets the given columns plus updated_at on row id and returns the
// number of affected rows.
func update(ctx context.Context, db *sql.DB, t table, id int64, sets []assignment) (int64, error) {
	clauses := make([]string, 0, len(sets)+1)
	args := make([]any, 0, len(sets)+1)
	for _, a := range sets {
		args = append(args, a.value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", a.column, len(args)))
	}
	clauses = append(clauses, "updated_at = NOW()")
	args = append(args, id)

	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", t.name, strings.Join(clauses, ", "), len(args))
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", t.name, translate(err))
	}
	return res.RowsAffected()
}

// remove deletes row id and returns the number of affected rows.
func remove(ctx context.Context, db *sql.DB, t table, id int64) (int64, error) {
	res, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.name), id)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", t.name, translate(err))
	}
	return res.RowsAffected()
}
