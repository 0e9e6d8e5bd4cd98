package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

// MigrationsTable records applied versions for the storefront schema.
const MigrationsTable = "storefront_schema_migrations"

//go:embed sql/*.sql
var files embed.FS

// Run applies the schema and the stored procedures (filter_products, log_event)
// that the PostgreSQL adapters call.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	// m.Close would close the shared *sql.DB owned by the caller.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// Version reports the applied schema version and whether it is dirty.
func Version(db *gorm.DB) (uint, bool, error) {
	if db == nil {
		return 0, false, errors.New("postgres not configured")
	}
	m, err := newMigrate(db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func newMigrate(db *gorm.DB) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql db: %w", err)
	}
	driver, err := migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}
	source, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("could not open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return m, nil
}
