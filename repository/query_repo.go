package repository

import (
	"context"
	"errors"
	"fmt"

	"vehicleinventory/models"
)

// QueryRepository is the single entry point consumers use to read and write.
type QueryRepository interface {
	Execute(ctx context.Context, req *models.QueryRequest) (*models.QueryResult, error)
}

var (
	ErrInvalidKind = errors.New("query kind must be one of all, get, run")
	ErrEmptyQuery  = errors.New("query text is empty")
)

// QueryError is returned for any backend failure so the caller can show the
// user something specific. Duplicate is a best-effort classification.
type QueryError struct {
	Kind      models.QueryKind
	SQL       string
	Params    []any
	Duplicate bool
	Err       error
}

func (e *QueryError) Error() string {
	if e.Duplicate {
		return fmt.Sprintf("%s query failed (duplicate key): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s query failed: %v", e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsDuplicate reports whether err looks like a uniqueness violation.
func IsDuplicate(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.Duplicate
}
