// Package stockalert periodically looks for parts at or below their reorder
// threshold, records an alert row and tells the user.
package stockalert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"vehicleinventory/metrics"
	"vehicleinventory/models"
	"vehicleinventory/notify"
	"vehicleinventory/repository"
)

const DefaultInterval = 30 * time.Minute

const lowStockQuery = `SELECT id, part_number, name, current_stock, min_stock_level
	FROM parts
	WHERE min_stock_level > 0 AND current_stock <= min_stock_level
	ORDER BY name`

const insertAlertQuery = `INSERT INTO low_stock_alerts
	(part_id, part_number, part_name, current_stock, min_stock_level)
	VALUES (?, ?, ?, ?, ?)`

type Monitor struct {
	q        repository.QueryRepository
	notifier notify.Notifier
	interval time.Duration
	log      *zap.Logger

	mu sync.Mutex
	// alerted holds the stock level each low part was last reported at.
	alerted map[int64]int64

	stop chan struct{}
	done chan struct{}
}

func New(q repository.QueryRepository, n notify.Notifier, interval time.Duration, log *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		q:        q,
		notifier: n,
		interval: interval,
		log:      log,
		alerted:  make(map[int64]int64),
	}
}

func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.stop != nil {
		m.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	m.stop, m.done = stop, done
	m.mu.Unlock()

	go func() {
		defer close(done)
		m.scanAndLog(ctx)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.scanAndLog(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}

func (m *Monitor) scanAndLog(ctx context.Context) {
	if _, err := m.Scan(ctx); err != nil {
		m.log.Warn("low stock scan failed", zap.Error(err))
	}
}

// Scan returns every part currently at or below its threshold. A part is
// alerted once per distinct stock level and forgotten after it recovers.
func (m *Monitor) Scan(ctx context.Context) ([]models.Part, error) {
	res, err := m.q.Execute(ctx, &models.QueryRequest{Kind: models.QueryAll, SQL: lowStockQuery})
	if err != nil {
		return nil, err
	}

	parts := make([]models.Part, 0, len(res.Rows))
	for _, row := range res.Rows {
		parts = append(parts, partFromRow(row))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	low := make(map[int64]bool, len(parts))
	for _, p := range parts {
		low[p.ID] = true
		if last, ok := m.alerted[p.ID]; ok && last == p.CurrentStock {
			continue
		}
		m.raise(ctx, p)
		m.alerted[p.ID] = p.CurrentStock
	}
	for id := range m.alerted {
		if !low[id] {
			delete(m.alerted, id)
		}
	}
	return parts, nil
}

func (m *Monitor) raise(ctx context.Context, p models.Part) {
	_, err := m.q.Execute(ctx, &models.QueryRequest{
		Kind:   models.QueryRun,
		SQL:    insertAlertQuery,
		Params: []any{p.ID, p.PartNumber, p.Name, p.CurrentStock, p.MinStockLevel},
	})
	if err != nil {
		m.log.Warn("could not record low stock alert", zap.Int64("part_id", p.ID), zap.Error(err))
	}

	metrics.LowStockAlertsTotal.Inc()
	m.notifier.Notify(
		"Low stock: "+p.Name,
		fmt.Sprintf("%s has %d left (threshold %d)", p.PartNumber, p.CurrentStock, p.MinStockLevel),
	)
}

func partFromRow(row map[string]any) models.Part {
	return models.Part{
		ID:            asInt64(row["id"]),
		PartNumber:    asString(row["part_number"]),
		Name:          asString(row["name"]),
		CurrentStock:  asInt64(row["current_stock"]),
		MinStockLevel: asInt64(row["min_stock_level"]),
	}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
