package parser

import "errors"

var (
	// ErrEmptyInput is returned when the input holds no thread records.
	ErrEmptyInput = errors.New("no snapshots found in input")
)
