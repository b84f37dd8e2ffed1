package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"

	"vehicleinventory/db"
	"vehicleinventory/db/postgres"
)

type PostgresRemoteRepo struct {
	DB *postgres.PostgresDB
}

func NewPostgresRemoteRepo(conn *postgres.PostgresDB) *PostgresRemoteRepo {
	return &PostgresRemoteRepo{DB: conn}
}

func (r *PostgresRemoteRepo) FetchAll(ctx context.Context, table string) ([]db.Row, error) {
	if !db.ValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	rows, err := r.DB.Conn.QueryxContext(ctx, "SELECT * FROM "+pq.QuoteIdentifier(table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []db.Row{}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PostgresRemoteRepo) Insert(ctx context.Context, table string, row db.Row) error {
	cols, err := sortedColumns(table, row)
	if err != nil {
		return err
	}

	quoted := make([]string, len(cols))
	holders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		quoted[i] = pq.QuoteIdentifier(c)
		holders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[c]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(holders, ", "))
	_, err = r.DB.Conn.ExecContext(ctx, query, args...)
	return err
}

func (r *PostgresRemoteRepo) Update(ctx context.Context, table, key string, id any, row db.Row) error {
	if !db.ValidIdentifier(key) {
		return fmt.Errorf("invalid key column %q", key)
	}
	cols, err := sortedColumns(table, row)
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		if c == key {
			continue
		}
		args = append(args, row[c])
		sets = append(sets, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c), len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		pq.QuoteIdentifier(table), strings.Join(sets, ", "), pq.QuoteIdentifier(key), len(args))
	_, err = r.DB.Conn.ExecContext(ctx, query, args...)
	return err
}

func (r *PostgresRemoteRepo) Close() error {
	return r.DB.Disconnect()
}

// sortedColumns validates every identifier and fixes the column order so
// statements are stable across runs.
func sortedColumns(table string, row db.Row) ([]string, error) {
	if !db.ValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	cols := make([]string, 0, len(row))
	for c := range row {
		if !db.ValidIdentifier(c) {
			return nil, fmt.Errorf("invalid column name %q", c)
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols, nil
}
