// Package migrate applies the embedded floor-plan schema with golang-migrate.
package migrate

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/floorcraft/floorplan-backend/internal/db"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Up, Down:
		return d, nil
	}
	return "", fmt.Errorf("direction must be up or down, got %q", s)
}

// ErrDirty means a previous run failed half-way; fix the schema by hand and
// pin the version with Force.
var ErrDirty = errors.New("schema is dirty")

// Result is the schema version before and after a run. Version 0 is an empty
// database.
type Result struct {
	From uint
	To   uint
}

func (r Result) Changed() bool { return r.From != r.To }

// Run moves the schema in dir. steps 0 means all the way; otherwise at most
// steps migrations are applied or reverted.
func Run(dsn string, dir Direction, steps int) (Result, error) {
	if _, err := ParseDirection(string(dir)); err != nil {
		return Result{}, err
	}
	if steps < 0 {
		return Result{}, fmt.Errorf("steps must not be negative, got %d", steps)
	}
	m, err := open(dsn)
	if err != nil {
		return Result{}, err
	}
	defer func() { _, _ = m.Close() }()

	from, dirty, err := version(m)
	if err != nil {
		return Result{}, err
	}
	if dirty {
		return Result{From: from, To: from}, fmt.Errorf("%w at version %d", ErrDirty, from)
	}

	switch {
	case steps > 0 && dir == Down:
		err = m.Steps(-steps)
	case steps > 0:
		err = m.Steps(steps)
	case dir == Down:
		err = m.Down()
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return Result{From: from}, fmt.Errorf("migrate %s from version %d: %w", dir, from, err)
	}

	to, _, err := version(m)
	if err != nil {
		return Result{From: from}, err
	}
	return Result{From: from, To: to}, nil
}

// Force records v as the current version and clears the dirty flag without
// running any SQL.
func Force(dsn string, v int) error {
	if v < 0 {
		return fmt.Errorf("version must not be negative, got %d", v)
	}
	m, err := open(dsn)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()
	return m.Force(v)
}

func open(dsn string) (*migrate.Migrate, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is empty; set DATABASE_URL or DB_HOST")
	}
	src, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return m, nil
}

func version(m *migrate.Migrate) (uint, bool, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return v, dirty, nil
}
