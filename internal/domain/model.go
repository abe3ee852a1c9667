package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Document is a backend-owned record. Every id originates from the backend.
type Document interface {
	DocumentID() string
}

// Identity holds the id fields a backend document may carry. Mongo-style
// backends send "_id"; others send "id".
type Identity struct {
	MongoID string `json:"_id,omitempty"`
	ID      string `json:"id,omitempty"`
}

// DocumentID returns the canonical id, preferring "_id" over "id".
func (i Identity) DocumentID() string {
	if id := strings.TrimSpace(i.MongoID); id != "" {
		return id
	}
	return strings.TrimSpace(i.ID)
}

// ListFilter holds the optional pagination parameters of a list call.
// Zero values mean "let the backend decide".
type ListFilter struct {
	Page     int
	PageSize int
}

// BulkResult reports which ids a bulk delete removed and which it could not.
type BulkResult struct {
	DeletedIDs []string `json:"deletedIds"`
	FailedIDs  []string `json:"failedIds"`
}

// Partial reports whether at least one id failed while at least one succeeded.
func (r BulkResult) Partial() bool {
	return len(r.FailedIDs) > 0 && len(r.DeletedIDs) > 0
}

// NoneDeleted reports whether the bulk call removed nothing.
func (r BulkResult) NoneDeleted() bool {
	return len(r.DeletedIDs) == 0
}

// Number is a nullable numeric field. Backends send these as numbers,
// numeric strings, empty strings or null.
type Number struct {
	Value float64
	Valid bool
}

// NewNumber returns a present Number.
func NewNumber(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Placeholder is rendered for absent values.
const Placeholder = "—"

// String renders the number without trailing zeros, or Placeholder when absent.
func (n Number) String() string {
	if !n.Valid {
		return Placeholder
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// Int returns the value truncated to an int, or 0 when absent.
func (n Number) Int() int {
	if !n.Valid {
		return 0
	}
	return int(n.Value)
}

// MarshalJSON encodes absent values as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts numbers, numeric strings, "" and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseNumber(s)
		if err != nil {
			return err
		}
		*n = parsed
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("number: %w", err)
	}
	*n = NewNumber(v)
	return nil
}

// ParseNumber parses form or JSON string input. Blank input is absent.
func ParseNumber(s string) (Number, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{}, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return Number{}, fmt.Errorf("invalid number %q", s)
	}
	return NewNumber(v), nil
}

// PageRequest holds server-side pagination and sorting parameters.
type PageRequest struct {
	Page     int
	PageSize int
	Sort     string
	Filter   map[string]string
}
