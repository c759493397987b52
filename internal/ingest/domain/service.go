// Package domain defines the CSV ingestion contract.
package domain

import (
	"context"
	"errors"
	"fmt"
)

// Stats reports how many rows each input table holds after a load.
type Stats struct {
	Accounts     int `json:"accounts"`
	Orders       int `json:"orders"`
	Transactions int `json:"transactions"`
}

type Service interface {
	// LoadAll replaces the input tables from the configured CSV files.
	LoadAll(context.Context) (*Stats, error)
}

var ErrMissingHeader = errors.New("missing_header")

// ParseError points at the offending file and row. Malformed input is
// a boundary error: the loader rejects the whole file rather than
// silently skipping rows.
type ParseError struct {
	File string
	Row  int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: row %d: %v", e.File, e.Row, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
