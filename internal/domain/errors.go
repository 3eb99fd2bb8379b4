package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInsufficientEvidence  = errors.New("insufficient evidence")
	ErrConflictingIndicators = errors.New("conflicting indicators")
	ErrMalformedInput        = errors.New("malformed input")
	ErrRecomputationDrift    = errors.New("recomputation drift")
	ErrInvalidTransition     = errors.New("invalid stage transition")
)

// MalformedInputError names the record and the fields that failed validation.
type MalformedInputError struct {
	Entity string
	ID     uuid.UUID
	Fields []string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s %s: invalid %s", e.Entity, e.ID, strings.Join(e.Fields, ", "))
}

func (e *MalformedInputError) Unwrap() error { return ErrMalformedInput }

// DriftError reports a recomputation that produced different values from
// identical inputs.
type DriftError struct {
	Entity    string
	Key       string
	InputHash string
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("recomputation drift on %s %s (input hash %s)", e.Entity, e.Key, e.InputHash)
}

func (e *DriftError) Unwrap() error { return ErrRecomputationDrift }
