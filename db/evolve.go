package db

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

// Step is one additive schema change. Apply must be idempotent by inspection:
// running it against a schema that already has the change is a no-op.
type Step struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, store Store) error
}

type Report struct {
	From    int
	To      int
	Applied []string
	Failed  []string
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s can be spliced into SQL as a table or column name.
func ValidIdentifier(s string) bool {
	return identPattern.MatchString(s)
}

func AddColumn(version int, table, column, definition string) Step {
	return Step{
		Version: version,
		Name:    fmt.Sprintf("add %s.%s", table, column),
		Apply: func(ctx context.Context, store Store) error {
			if !ValidIdentifier(table) || !ValidIdentifier(column) {
				return fmt.Errorf("invalid identifier %s.%s", table, column)
			}
			exists, err := ColumnExists(ctx, store, table, column)
			if err != nil {
				return err
			}
			if exists {
				return nil
			}
			_, err = store.Run(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
			return err
		},
	}
}

func CreateTable(version int, name, ddl string) Step {
	return Step{
		Version: version,
		Name:    "create " + name,
		Apply: func(ctx context.Context, store Store) error {
			_, err := store.Run(ctx, ddl)
			return err
		},
	}
}

func SeedCounter(version int, id string) Step {
	return Step{
		Version: version,
		Name:    "seed counter " + id,
		Apply: func(ctx context.Context, store Store) error {
			return seedCounter(ctx, store, id)
		},
	}
}

// ColumnExists inspects the live schema rather than relying on ALTER errors.
func ColumnExists(ctx context.Context, store Store, table, column string) (bool, error) {
	row, err := store.Get(ctx, `SELECT COUNT(*) AS n FROM pragma_table_info(?) WHERE name = ?`, table, column)
	if err != nil {
		return false, err
	}
	if row == nil {
		return false, nil
	}
	n, _ := row["n"].(int64)
	return n > 0, nil
}

// TableColumns lists a table's columns in declaration order.
func TableColumns(ctx context.Context, store Store, table string) ([]string, error) {
	rows, err := store.All(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(rows))
	for _, r := range rows {
		if name, ok := r["name"].(string); ok {
			cols = append(cols, name)
		}
	}
	return cols, nil
}

const (
	invoicesDDL = `CREATE TABLE IF NOT EXISTS invoices (
		id INTEGER PRIMARY KEY AUTOINCREMENT, inv_no TEXT NOT NULL UNIQUE,
		job_card_id INTEGER, estimate_id INTEGER,
		customer_name TEXT DEFAULT '', customer_phone TEXT DEFAULT '', vehicle_number TEXT DEFAULT '',
		subtotal REAL DEFAULT 0, discount REAL DEFAULT 0, tax REAL DEFAULT 0, total REAL DEFAULT 0,
		paid_amount REAL DEFAULT 0, payment_method TEXT DEFAULT 'cash', notes TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	invoiceItemsDDL = `CREATE TABLE IF NOT EXISTS invoice_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT, invoice_id INTEGER NOT NULL, part_id INTEGER,
		description TEXT DEFAULT '', quantity INTEGER NOT NULL DEFAULT 1,
		unit_price REAL DEFAULT 0, total_price REAL DEFAULT 0
	)`
	stockReceivesDDL = `CREATE TABLE IF NOT EXISTS stock_receives (
		id INTEGER PRIMARY KEY AUTOINCREMENT, grn_no TEXT NOT NULL UNIQUE,
		supplier_name TEXT DEFAULT '', supplier_invoice TEXT DEFAULT '',
		received_date DATE, total_amount REAL DEFAULT 0, notes TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	stockReceiveItemsDDL = `CREATE TABLE IF NOT EXISTS stock_receive_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT, stock_receive_id INTEGER NOT NULL, part_id INTEGER,
		quantity INTEGER NOT NULL DEFAULT 1, cost_price REAL DEFAULT 0,
		selling_price REAL DEFAULT 0, total_price REAL DEFAULT 0
	)`
)

// DefaultSteps is the ordered list of changes made to the schema after the
// first release. Append only; never renumber.
func DefaultSteps() []Step {
	return []Step{
		AddColumn(1, "parts", "photo", "TEXT"),
		AddColumn(2, "parts", "updated_at", "DATETIME"),
		AddColumn(3, "job_cards", "advance", "REAL DEFAULT 0"),
		AddColumn(4, "job_cards", "service_advisor", "TEXT DEFAULT ''"),
		AddColumn(5, "job_cards", "updated_at", "DATETIME"),
		AddColumn(6, "estimates", "updated_at", "DATETIME"),
		CreateTable(7, "invoices", invoicesDDL),
		CreateTable(8, "invoice_items", invoiceItemsDDL),
		CreateTable(9, "stock_receives", stockReceivesDDL),
		CreateTable(10, "stock_receive_items", stockReceiveItemsDDL),
		SeedCounter(11, CounterInvoiceNo),
		SeedCounter(12, CounterGRNNo),
		SeedCounter(13, CounterEstimateInvoice),
	}
}

// Migrate applies every step newer than the recorded schema_version. A failing
// step is logged and skipped; later steps still run. The recorded version only
// advances across the unbroken run of successes, so a failed step is attempted
// again on the next start.
func Migrate(ctx context.Context, store Store, steps []Step, log *zap.Logger) (Report, error) {
	current, err := schemaVersion(ctx, store)
	if err != nil {
		log.Warn("could not read schema version, applying all steps", zap.Error(err))
		current = 0
	}

	report := Report{From: current, To: current}
	contiguous := true
	for _, step := range steps {
		if step.Version <= current {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := step.Apply(ctx, store); err != nil {
			log.Warn("migration step failed",
				zap.Int("version", step.Version),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			report.Failed = append(report.Failed, step.Name)
			contiguous = false
			continue
		}
		report.Applied = append(report.Applied, step.Name)
		if contiguous {
			report.To = step.Version
		}
	}

	if report.To > current {
		if err := setSchemaVersion(ctx, store, report.To); err != nil {
			log.Warn("could not record schema version", zap.Int("version", report.To), zap.Error(err))
		}
	}

	log.Info("schema evolution finished",
		zap.Int("from", report.From),
		zap.Int("to", report.To),
		zap.Int("applied", len(report.Applied)),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func schemaVersion(ctx context.Context, store Store) (int, error) {
	row, err := store.Get(ctx, `SELECT current_value FROM counters WHERE id = ?`, CounterSchemaVersion)
	if err != nil || row == nil {
		return 0, err
	}
	v, _ := row["current_value"].(int64)
	return int(v), nil
}

func setSchemaVersion(ctx context.Context, store Store, version int) error {
	if err := seedCounter(ctx, store, CounterSchemaVersion); err != nil {
		return err
	}
	_, err := store.Run(ctx,
		`UPDATE counters SET current_value = ? WHERE id = ? AND current_value < ?`,
		version, CounterSchemaVersion, version)
	return err
}
