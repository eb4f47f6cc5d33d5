// Package migrations embeds the schema and applies it with golang-migrate.
package migrations

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

//go:embed *.sql
var files embed.FS

// Up applies every pending migration. An up-to-date schema is not an error.
func Up(db *gorm.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return pkgerrors.Wrap(err, "apply migrations")
	}
	return nil
}

// Down reverts every migration.
func Down(db *gorm.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err = m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return pkgerrors.Wrap(err, "revert migrations")
	}
	return nil
}

// newMigrate builds a migrator over the embedded files and the pool behind db.
func newMigrate(db *gorm.DB) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get sql.DB")
	}
	source, err := iofs.New(files, ".")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open embedded migrations")
	}
	driver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create migrate driver")
	}
	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create migrator")
	}
	return m, nil
}
