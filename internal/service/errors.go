package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation             = errors.New("service: invalid input")
	ErrNotFound               = errors.New("service: not found")
	ErrForbidden              = errors.New("service: forbidden")
	ErrInsufficientStock      = errors.New("service: insufficient stock")
	ErrMissingPrepWeight      = errors.New("service: missing preparation weight")
	ErrDuplicateName          = errors.New("service: duplicate name")
	ErrKitInUse               = errors.New("service: kit in use")
	ErrReferencedElsewhere    = errors.New("service: referenced elsewhere")
	ErrConcurrentModification = errors.New("service: concurrent modification")
	ErrNothingToUndo          = errors.New("service: nothing to undo")
	ErrStaleMaterialReference = errors.New("service: material no longer exists")
	ErrInvalidTransition      = errors.New("service: invalid status transition")
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Msg }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

type InsufficientStockError struct {
	MaterialID int64
	Name       string
	Required   decimal.Decimal
	Available  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: required %s, available %s",
		e.Name, e.Required, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type MissingPrepWeightError struct {
	MaterialID int64
	Name       string
}

func (e *MissingPrepWeightError) Error() string {
	return fmt.Sprintf("preparation weight required for solution %q (material %d)", e.Name, e.MaterialID)
}

func (e *MissingPrepWeightError) Unwrap() error { return ErrMissingPrepWeight }

// ConcurrentModificationError means the material changed after the entry
// being undone was written.
type ConcurrentModificationError struct {
	MaterialID int64
	Logged     decimal.Decimal
	Current    decimal.Decimal
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("material %d changed since the last log entry: logged %s, current %s",
		e.MaterialID, e.Logged, e.Current)
}

func (e *ConcurrentModificationError) Unwrap() error { return ErrConcurrentModification }
