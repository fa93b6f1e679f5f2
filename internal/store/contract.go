package store

import (
	"context"
	"errors"
	"fmt"

	"groupsync/internal/model"
)

// Store is the persisted side of reconciliation.
//
// FetchAllGroups returns every persisted group with its items. It must read the
// backing store, never a cached copy. ApplyTransaction applies ops atomically:
// on error the store is left exactly as it was.
type Store interface {
	FetchAllGroups(ctx context.Context) ([]model.Group, error)
	ApplyTransaction(ctx context.Context, ops []Op) error
	Close() error
}

var ErrStoreUnavailable = errors.New("store unavailable")

// TransactionFailure reports a rejected ApplyTransaction. Nothing from the
// transaction is visible afterwards.
type TransactionFailure struct {
	Ops int
	Err error
}

func (e *TransactionFailure) Error() string {
	return fmt.Sprintf("transaction of %d ops failed: %v", e.Ops, e.Err)
}

func (e *TransactionFailure) Unwrap() error { return e.Err }

// ConflictError is returned for an op that contradicts persisted state, such as
// creating an id that already exists or renaming one that does not.
type ConflictError struct {
	Op  Op
	Msg string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

var errOffline = errors.New("backing store is offline")
