package models

import (
	"encoding/json"
)

type QueryKind string

const (
	QueryAll QueryKind = "all"
	QueryGet QueryKind = "get"
	QueryRun QueryKind = "run"
)

func (k QueryKind) Valid() bool {
	return k == QueryAll || k == QueryGet || k == QueryRun
}

// QueryRequest is the single call the UI makes against the database.
type QueryRequest struct {
	Kind   QueryKind `json:"kind"`
	SQL    string    `json:"sql"`
	Params []any     `json:"params"`
}

// QueryResult carries the outcome of one request. Which fields are meaningful
// depends on Kind.
type QueryResult struct {
	Kind         QueryKind        `json:"-"`
	Rows         []map[string]any `json:"rows,omitempty"`
	Row          map[string]any   `json:"row,omitempty"`
	Found        bool             `json:"found"`
	LastInsertID int64            `json:"lastInsertRowid"`
	Changes      int64            `json:"changes"`
}

type runResultJSON struct {
	LastInsertID int64 `json:"lastInsertRowid"`
	Changes      int64 `json:"changes"`
}

// MarshalJSON renders all as an array, get as an object or null and run as
// {lastInsertRowid, changes}.
func (r QueryResult) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case QueryAll:
		rows := r.Rows
		if rows == nil {
			rows = []map[string]any{}
		}
		return json.Marshal(rows)
	case QueryGet:
		if !r.Found {
			return []byte("null"), nil
		}
		return json.Marshal(r.Row)
	default:
		return json.Marshal(runResultJSON{LastInsertID: r.LastInsertID, Changes: r.Changes})
	}
}
