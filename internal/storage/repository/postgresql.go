// Package repository implements the PostgreSQL data access layer for the
// marketplace: accounts, services, budget requests, contracts, notifications
// and reviews. Database conditions (missing rows, unique violations) are
// translated into the domain error taxonomy so services never see
// driver-level errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	// pgx driver registration for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/decorent/decorent/internal/models"
)

const uniqueViolation = "23505"

// Storage wraps the PostgreSQL connection and implements the repositories
// the services depend on.
type Storage struct {
	DB *sql.DB
}

// New opens a PostgreSQL connection and verifies it with a ping.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// translate maps driver errors onto the domain taxonomy. Unknown errors
// pass through unchanged.
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return models.ErrConflict
	}
	return err
}
