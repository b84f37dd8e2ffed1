package repository

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"vehicleinventory/db"
	"vehicleinventory/metrics"
	"vehicleinventory/models"
)

// StoreQueryRepo dispatches façade requests to the active storage backend.
type StoreQueryRepo struct {
	Store db.Store
	rules []DuplicateRule
	log   *zap.Logger
}

func NewStoreQueryRepo(store db.Store, log *zap.Logger) *StoreQueryRepo {
	return &StoreQueryRepo{Store: store, rules: DefaultDuplicateRules, log: log}
}

// WithRules replaces the duplicate-tolerant insert rules.
func (r *StoreQueryRepo) WithRules(rules []DuplicateRule) *StoreQueryRepo {
	r.rules = rules
	return r
}

func (r *StoreQueryRepo) Execute(ctx context.Context, req *models.QueryRequest) (*models.QueryResult, error) {
	if req == nil || !req.Kind.Valid() {
		metrics.QueriesTotal.WithLabelValues("unknown", "invalid").Inc()
		return nil, ErrInvalidKind
	}
	if strings.TrimSpace(req.SQL) == "" {
		metrics.QueriesTotal.WithLabelValues(string(req.Kind), "invalid").Inc()
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	result, err := r.dispatch(ctx, req)
	metrics.QueryDuration.WithLabelValues(string(req.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.QueriesTotal.WithLabelValues(string(req.Kind), "error").Inc()
		qe := &QueryError{
			Kind:      req.Kind,
			SQL:       req.SQL,
			Params:    req.Params,
			Duplicate: r.Store.IsUniqueViolation(err),
			Err:       err,
		}
		r.log.Debug("query failed",
			zap.String("kind", string(req.Kind)),
			zap.String("sql", req.SQL),
			zap.Any("params", req.Params),
			zap.Bool("duplicate", qe.Duplicate),
			zap.Error(err),
		)
		return nil, qe
	}
	metrics.QueriesTotal.WithLabelValues(string(req.Kind), "ok").Inc()
	return result, nil
}

func (r *StoreQueryRepo) dispatch(ctx context.Context, req *models.QueryRequest) (*models.QueryResult, error) {
	switch req.Kind {
	case models.QueryAll:
		rows, err := r.Store.All(ctx, req.SQL, req.Params...)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []db.Row{}
		}
		return &models.QueryResult{Kind: models.QueryAll, Rows: rows, Found: len(rows) > 0}, nil

	case models.QueryGet:
		row, err := r.Store.Get(ctx, req.SQL, req.Params...)
		if err != nil {
			return nil, err
		}
		return &models.QueryResult{Kind: models.QueryGet, Row: row, Found: row != nil}, nil

	default:
		query := req.SQL
		if rewritten, table, ok := RewriteDuplicateTolerant(query, r.rules); ok {
			metrics.DuplicateInsertsRewritten.WithLabelValues(strings.ToLower(table)).Inc()
			query = rewritten
		}
		res, err := r.Store.Run(ctx, query, req.Params...)
		if err != nil {
			return nil, err
		}
		return &models.QueryResult{
			Kind:         models.QueryRun,
			LastInsertID: res.LastInsertID,
			Changes:      res.Changes,
		}, nil
	}
}
