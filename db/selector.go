package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Candidate is one backend the selector may try.
type Candidate struct {
	Name DBType
	Open func(ctx context.Context, path string) (Store, error)
}

// Select tries each candidate in order and returns the first store that opens.
// Individual failures are logged; only exhausting the list is an error.
func Select(ctx context.Context, path string, candidates []Candidate, log *zap.Logger) (Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn("could not create database directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	var errs []error
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		store, err := open(ctx, c, path)
		if err != nil {
			log.Warn("storage backend unavailable",
				zap.String("backend", string(c.Name)),
				zap.String("path", path),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			continue
		}
		log.Info("storage backend selected",
			zap.String("backend", string(store.Name())),
			zap.Bool("persistent", store.Persistent()),
			zap.String("path", path),
		)
		return store, nil
	}
	if len(errs) == 0 {
		return nil, ErrNoBackend
	}
	return nil, fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(errs...))
}

// open guards against a candidate that panics inside cgo setup or similar.
func open(ctx context.Context, c Candidate, path string) (store Store, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			store = nil
			err = fmt.Errorf("open panicked: %v", rec)
		}
	}()
	if c.Open == nil {
		return nil, errors.New("no opener")
	}
	return c.Open(ctx, path)
}
