package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"vehicleinventory/models"
	"vehicleinventory/repository"
)

type QueryHandler struct {
	Repo repository.QueryRepository
	Log  *zap.Logger
}

// queryErrorData lets the UI pick a message, e.g. "part number already exists".
type queryErrorData struct {
	SQL       string `json:"sql"`
	Params    []any  `json:"params"`
	Duplicate bool   `json:"duplicate"`
}

// Query runs one façade request: POST {kind, sql, params}.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req models.QueryRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ApiResponse{
			Success: false,
			Message: "Invalid request payload: " + err.Error(),
		})
		return
	}
	for i, p := range req.Params {
		req.Params[i] = normalizeParam(p)
	}

	result, err := h.Repo.Execute(r.Context(), &req)
	if err != nil {
		var qe *repository.QueryError
		switch {
		case errors.Is(err, repository.ErrInvalidKind), errors.Is(err, repository.ErrEmptyQuery):
			writeJSON(w, http.StatusBadRequest, ApiResponse{Success: false, Message: err.Error()})
		case errors.As(err, &qe):
			params := qe.Params
			if params == nil {
				params = []any{}
			}
			writeJSON(w, http.StatusBadRequest, ApiResponse{
				Success: false,
				Message: qe.Error(),
				Data:    queryErrorData{SQL: qe.SQL, Params: params, Duplicate: qe.Duplicate},
			})
		default:
			h.Log.Error("query failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, ApiResponse{Success: false, Message: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result})
}

// normalizeParam turns JSON numbers into the integer or float a SQL driver
// binds, so 5 is stored as INTEGER rather than REAL.
func normalizeParam(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
