package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrStockInsufficient  = errors.New("insufficient stock")
	ErrNoAssignment       = errors.New("robot has no assigned products")
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
	ErrInvalidDestination = errors.New("invalid destination")
	ErrRobotBusy          = errors.New("robot is on a trip")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// NotFoundError names the entity kind and id that did not resolve.
type NotFoundError struct {
	Kind string
	ID   string
}

func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StockInsufficientError reports the first product that cannot cover the
// requested quantity. Have is the quantity the check was made against:
// available stock for assignments, physical stock for picks.
type StockInsufficientError struct {
	ProductID   string
	ProductName string
	Have        int
	Need        int
}

func StockInsufficient(productID, name string, have, need int) error {
	return &StockInsufficientError{ProductID: productID, ProductName: name, Have: have, Need: need}
}

func (e *StockInsufficientError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: have %d, need %d", e.ProductName, e.Have, e.Need)
}

func (e *StockInsufficientError) Is(target error) bool {
	return target == ErrStockInsufficient
}

type storeError struct {
	op  string
	err error
}

// StoreUnavailable wraps a backing store failure. The result matches
// ErrStoreUnavailable and unwraps to the cause.
func StoreUnavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *storeError
	if errors.As(err, &se) {
		return err
	}
	return &storeError{op: op, err: err}
}

func (e *storeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.op, ErrStoreUnavailable, e.err)
}

func (e *storeError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *storeError) Unwrap() error {
	return e.err
}

func InvalidIdentifier(id string) error {
	return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
}
