package db

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Counter ids minted into human-readable document numbers, plus the schema
// version ledger used by Migrate.
const (
	CounterProNo           = "pro_no"
	CounterJobNo           = "job_no"
	CounterInvoiceNo       = "invoice_no"
	CounterGRNNo           = "grn_no"
	CounterEstimateInvoice = "estimate_invoice"
	CounterSchemaVersion   = "schema_version"
)

var BaseCounters = []string{
	CounterProNo,
	CounterJobNo,
	CounterInvoiceNo,
	CounterGRNNo,
	CounterEstimateInvoice,
	CounterSchemaVersion,
}

// Bootstrap creates the schema and seeds the counters. It is safe to run on
// every start. A DDL failure is fatal; a seed failure is only logged.
func Bootstrap(ctx context.Context, store Store, log *zap.Logger) error {
	if !store.Persistent() {
		log.Info("non-persistent store, skipping schema bootstrap", zap.String("backend", string(store.Name())))
		return nil
	}

	m, ok := store.(Migratable)
	if !ok {
		return fmt.Errorf("%w: backend %s cannot apply migrations", ErrBootstrap, store.Name())
	}
	if err := applySchema(m, log); err != nil {
		return fmt.Errorf("%w: %w", ErrBootstrap, err)
	}

	for _, id := range BaseCounters {
		if err := seedCounter(ctx, store, id); err != nil {
			log.Warn("could not seed counter", zap.String("counter", id), zap.Error(err))
		}
	}
	return nil
}

func applySchema(m Migratable, log *zap.Logger) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("could not read embedded migrations: %w", err)
	}

	name, driver, err := m.MigrationDriver()
	if err != nil {
		return fmt.Errorf("could not start migration driver: %w", err)
	}

	mig, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("migration failed to start: %w", err)
	}
	// Closes the migration-only handle, not the shared store.
	defer mig.Close()

	err = mig.Up()
	var dirty migrate.ErrDirty
	if errors.As(err, &dirty) {
		// Every schema file is written with IF NOT EXISTS, so replaying from
		// scratch after an interrupted run is safe.
		log.Warn("schema left dirty by an earlier run, replaying", zap.Int("version", dirty.Version))
		if err = mig.Force(database.NilVersion); err == nil {
			err = mig.Up()
		}
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run up migrations: %w", err)
	}

	version, _, verr := mig.Version()
	if verr != nil {
		log.Warn("could not read schema version", zap.Error(verr))
	}
	log.Info("schema bootstrap complete", zap.Uint("version", version))
	return nil
}

func seedCounter(ctx context.Context, store Store, id string) error {
	_, err := store.Run(ctx, `INSERT OR IGNORE INTO counters (id, current_value) VALUES (?, 0)`, id)
	return err
}
