// Package cloudsync mirrors a fixed set of local tables to an optional remote
// store using last-write-wins on each row's timestamp column.
//
// Rows whose timestamps are equal or unreadable are left alone on both sides,
// so two edits made within the same timestamp resolution never converge.
package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"vehicleinventory/db"
	"vehicleinventory/metrics"
	"vehicleinventory/models"
	"vehicleinventory/repository"
)

// TableSpec names a synced table, its key column and its last-modified column.
type TableSpec struct {
	Name      string
	Key       string
	Timestamp string
}

var DefaultTables = []TableSpec{
	{Name: "parts", Key: "id", Timestamp: "updated_at"},
	{Name: "stock_movements", Key: "id", Timestamp: "created_at"},
	{Name: "job_cards", Key: "id", Timestamp: "updated_at"},
	{Name: "job_card_parts", Key: "id", Timestamp: "created_at"},
	{Name: "low_stock_alerts", Key: "id", Timestamp: "created_at"},
}

const DefaultInterval = 5 * time.Minute

// Dialer opens the remote store. A nil Dialer means sync is not configured.
type Dialer func(ctx context.Context) (repository.RemoteRepository, error)

type Options struct {
	Interval time.Duration
	Tables   []TableSpec
}

type Reconciler struct {
	local db.Store
	dial  Dialer
	opts  Options
	log   *zap.Logger

	mu     sync.Mutex
	status models.SyncStatus
	remote repository.RemoteRepository

	stop chan struct{}
	done chan struct{}
}

func New(local db.Store, dial Dialer, opts Options, log *zap.Logger) *Reconciler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Tables == nil {
		opts.Tables = DefaultTables
	}
	return &Reconciler{local: local, dial: dial, opts: opts, log: log}
}

func (r *Reconciler) Enabled() bool {
	return r.dial != nil
}

// Start runs one pass immediately and then one per interval until Stop.
func (r *Reconciler) Start(ctx context.Context) {
	if !r.Enabled() {
		r.log.Info("cloud sync not configured, running local-only")
		return
	}

	r.mu.Lock()
	if r.stop != nil {
		r.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	r.stop, r.done = stop, done
	r.mu.Unlock()

	go func() {
		defer close(done)
		// A pass that has begun always finishes, even after Stop.
		passCtx := context.WithoutCancel(ctx)

		r.pass(passCtx)
		ticker := time.NewTicker(r.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.pass(passCtx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	r.log.Info("cloud sync started", zap.Duration("interval", r.opts.Interval))
}

// Stop clears the timer, waits for an in-flight pass and closes the remote.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.remote != nil {
		if err := r.remote.Close(); err != nil {
			r.log.Warn("failed to close sync remote", zap.Error(err))
		}
		r.remote = nil
		r.status.IsConnected = false
	}
}

// TriggerSync runs a pass now. When one is already running it returns the
// current status without waiting.
func (r *Reconciler) TriggerSync(ctx context.Context) (models.SyncStatus, error) {
	if !r.Enabled() {
		return r.GetStatus(), nil
	}
	r.pass(ctx)
	return r.GetStatus(), nil
}

func (r *Reconciler) GetStatus() models.SyncStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.status
	if s.LastSyncTime != nil {
		t := *s.LastSyncTime
		s.LastSyncTime = &t
	}
	return s
}

func (r *Reconciler) pass(ctx context.Context) {
	r.mu.Lock()
	if r.status.IsSyncing {
		r.mu.Unlock()
		return
	}
	r.status.IsSyncing = true
	r.mu.Unlock()

	start := time.Now()
	defer func() {
		metrics.SyncPassDuration.Observe(time.Since(start).Seconds())
		r.mu.Lock()
		r.status.IsSyncing = false
		r.mu.Unlock()
	}()

	remote, err := r.connect(ctx)
	if err != nil {
		r.log.Warn("cloud sync could not connect", zap.Error(err))
		return
	}

	failed := 0
	for _, tbl := range r.opts.Tables {
		if ctx.Err() != nil {
			break
		}
		stats, err := r.syncTable(ctx, remote, tbl)
		if err != nil {
			failed++
			metrics.SyncTablesTotal.WithLabelValues(tbl.Name, "failed").Inc()
			r.log.Warn("table sync abandoned", zap.String("table", tbl.Name), zap.Error(err))
			continue
		}
		metrics.SyncTablesTotal.WithLabelValues(tbl.Name, "ok").Inc()
		r.log.Debug("table synced",
			zap.String("table", tbl.Name),
			zap.Int("pushed", stats.pushed),
			zap.Int("pulled", stats.pulled),
		)
	}

	now := time.Now().UTC()
	r.mu.Lock()
	r.status.LastSyncTime = &now
	r.mu.Unlock()

	r.log.Info("cloud sync pass finished",
		zap.Int("tables", len(r.opts.Tables)),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)),
	)
}

func (r *Reconciler) connect(ctx context.Context) (repository.RemoteRepository, error) {
	r.mu.Lock()
	remote := r.remote
	r.mu.Unlock()
	if remote != nil {
		return remote, nil
	}

	remote, err := r.dial(ctx)
	if err != nil {
		r.mu.Lock()
		r.status.IsConnected = false
		r.mu.Unlock()
		return nil, err
	}

	r.mu.Lock()
	r.remote = remote
	r.status.IsConnected = true
	r.mu.Unlock()
	return remote, nil
}

type tableStats struct {
	pushed int
	pulled int
}

// syncTable pushes newer or missing local rows, then pulls newer or missing
// remote rows. The first error abandons the table for this pass.
func (r *Reconciler) syncTable(ctx context.Context, remote repository.RemoteRepository, tbl TableSpec) (tableStats, error) {
	var stats tableStats
	if !db.ValidIdentifier(tbl.Name) || !db.ValidIdentifier(tbl.Key) || !db.ValidIdentifier(tbl.Timestamp) {
		return stats, fmt.Errorf("invalid table definition %+v", tbl)
	}

	columns, err := db.TableColumns(ctx, r.local, tbl.Name)
	if err != nil {
		return stats, fmt.Errorf("read local columns: %w", err)
	}
	if len(columns) == 0 && r.local.Persistent() {
		return stats, errors.New("table does not exist locally")
	}

	localRows, err := r.local.All(ctx, "SELECT * FROM "+tbl.Name)
	if err != nil {
		return stats, fmt.Errorf("fetch local rows: %w", err)
	}
	remoteRows, err := remote.FetchAll(ctx, tbl.Name)
	if err != nil {
		return stats, fmt.Errorf("fetch remote rows: %w", err)
	}

	localByKey := indexRows(localRows, tbl.Key)
	remoteByKey := indexRows(remoteRows, tbl.Key)

	for _, row := range localRows {
		k, ok := rowKey(row[tbl.Key])
		if !ok {
			continue
		}
		theirs, exists := remoteByKey[k]
		switch {
		case !exists:
			if err := remote.Insert(ctx, tbl.Name, row); err != nil {
				return stats, fmt.Errorf("push insert %s: %w", k, err)
			}
		case newer(row, theirs, tbl.Timestamp):
			if err := remote.Update(ctx, tbl.Name, tbl.Key, row[tbl.Key], row); err != nil {
				return stats, fmt.Errorf("push update %s: %w", k, err)
			}
		default:
			continue
		}
		stats.pushed++
	}

	for _, row := range remoteRows {
		k, ok := rowKey(row[tbl.Key])
		if !ok {
			continue
		}
		ours, exists := localByKey[k]
		switch {
		case !exists:
			if err := r.insertLocal(ctx, tbl, columns, row); err != nil {
				return stats, fmt.Errorf("pull insert %s: %w", k, err)
			}
		case newer(row, ours, tbl.Timestamp):
			if err := r.updateLocal(ctx, tbl, columns, row); err != nil {
				return stats, fmt.Errorf("pull update %s: %w", k, err)
			}
		default:
			continue
		}
		stats.pulled++
	}
	return stats, nil
}

// insertLocal and updateLocal write straight to the store. The façade's
// duplicate-tolerant rewrite would hide a real divergence here.
func (r *Reconciler) insertLocal(ctx context.Context, tbl TableSpec, columns []string, row db.Row) error {
	cols, args := restrict(columns, row, "")
	if len(cols) == 0 {
		return errors.New("no shared columns")
	}
	holders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tbl.Name, strings.Join(cols, ", "), holders)
	_, err := r.local.Run(ctx, query, args...)
	return err
}

func (r *Reconciler) updateLocal(ctx context.Context, tbl TableSpec, columns []string, row db.Row) error {
	cols, args := restrict(columns, row, tbl.Key)
	if len(cols) == 0 {
		return nil
	}
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}
	args = append(args, row[tbl.Key])
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", tbl.Name, strings.Join(sets, ", "), tbl.Key)
	_, err := r.local.Run(ctx, query, args...)
	return err
}

// restrict keeps the row's values for columns the local table actually has,
// in declaration order, skipping exclude.
func restrict(columns []string, row db.Row, exclude string) ([]string, []any) {
	var (
		cols []string
		args []any
	)
	for _, c := range columns {
		if c == exclude || !db.ValidIdentifier(c) {
			continue
		}
		v, ok := row[c]
		if !ok {
			continue
		}
		cols = append(cols, c)
		args = append(args, v)
	}
	return cols, args
}

func newer(a, b db.Row, column string) bool {
	cmp, ok := compareTimestamps(a[column], b[column])
	return ok && cmp > 0
}

func indexRows(rows []db.Row, key string) map[string]db.Row {
	out := make(map[string]db.Row, len(rows))
	for _, row := range rows {
		if k, ok := rowKey(row[key]); ok {
			out[k] = row
		}
	}
	return out
}

// rowKey renders a key so that 7, int32(7) and 7.0 from different drivers match.
func rowKey(v any) (string, bool) {
	switch k := v.(type) {
	case nil:
		return "", false
	case int64:
		return strconv.FormatInt(k, 10), true
	case int:
		return strconv.Itoa(k), true
	case int32:
		return strconv.FormatInt(int64(k), 10), true
	case float64:
		if k == float64(int64(k)) {
			return strconv.FormatInt(int64(k), 10), true
		}
		return strconv.FormatFloat(k, 'f', -1, 64), true
	case string:
		return k, k != ""
	case []byte:
		return string(k), len(k) > 0
	default:
		return fmt.Sprint(k), true
	}
}
