package service

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound       = errors.New("product not found")
	ErrLineNotFound          = errors.New("order line not found")
	ErrEstablishmentNotFound = errors.New("establishment not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrProductHasOpenLines   = errors.New("product is referenced by open order lines")
	ErrConcurrentUpdate      = errors.New("product was modified concurrently, retry later")
	ErrDuplicate             = errors.New("duplicate error")
)

// InsufficientStockError 要求數量超過目前可用庫存
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Only %d items available in stock.", e.Available)
}

// ValidationError 輸入參數不合法
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
