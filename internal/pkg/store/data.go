package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/paulexconde/surveychat/pkg/fault"
)

type dataStore[T any] struct {
	db        *sqlx.DB
	tablename string
	columns   string
}

func NewDataStore[T any](db *sqlx.DB, tablename string) *dataStore[T] {
	return &dataStore[T]{
		db:        db,
		tablename: tablename,
		columns:   strings.Join(getStructFieldNamesFromInstance(new(T)), ", "),
	}
}

func (s *dataStore[T]) QueryRow(ctx context.Context, query string, args ...any) (any, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(query), args...)

	var result any

	err := row.Scan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, err
	}

	return result, nil
}

func (s *dataStore[T]) Get(ctx context.Context, query string, args ...any) (*T, error) {
	var result T

	if err := s.db.GetContext(ctx, &result, s.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, err
	}

	return &result, nil
}

func (s *dataStore[T]) Select(ctx context.Context, query string, args ...any) ([]T, error) {
	results := []T{}

	if err := s.db.SelectContext(ctx, &results, s.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []T{}, nil
		}
		return nil, err
	}

	return results, nil
}

func (s *dataStore[T]) Create(ctx context.Context, data DTO) (*T, error) {
	var model *T

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		columns, placeholders := getStructFieldsFromDTO(data)

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.tablename, columns, placeholders)

		if _, err := tx.NamedExecContext(ctx, query, data); err != nil {
			return translateError(err)
		}

		var err error
		model, err = s.getByID(ctx, tx, data.PrimaryKey())
		return err
	})
	if err != nil {
		return nil, err
	}

	return model, nil
}

func (s *dataStore[T]) Update(ctx context.Context, id string, data DTO) (*T, error) {
	params := map[string]any{"id": id}
	setClause := getNonEmptyFieldsFromDTO(data, params)

	if setClause == "" {
		return nil, fmt.Errorf("no fields to update")
	}

	var model *T

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", s.tablename, setClause)

		res, err := tx.NamedExecContext(ctx, query, params)
		if err != nil {
			return translateError(err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fault.ErrNotFound
		}

		model, err = s.getByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return model, nil
}

func (s *dataStore[T]) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, translateError(err)
	}

	return res.RowsAffected()
}

func (s *dataStore[T]) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)

	return err
}

func (s *dataStore[T]) getByID(ctx context.Context, tx *sqlx.Tx, id string) (*T, error) {
	var instance T

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", s.columns, s.tablename)

	if err := tx.GetContext(ctx, &instance, tx.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, err
	}

	return &instance, nil
}

// translateError maps driver constraint errors onto fault sentinels.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fault.ErrUniqueViolation
		case "23503": // foreign_key_violation
			return fault.ErrForeignKeyViolation
		}
		return err
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fault.ErrUniqueViolation
		case sqlite3.ErrConstraintForeignKey:
			return fault.ErrForeignKeyViolation
		}
	}

	return err
}
