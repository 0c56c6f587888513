package store

import (
	"context"
	"errors"
)

// Collection names. Every record in these collections carries a userId
// field; lookups are always owner-scoped.
const (
	Categories            = "categories"
	Tags                  = "tags"
	Counterparties        = "counterparties"
	RecurringTransactions = "recurring_transactions"
	CryptoAssets          = "crypto_assets"
	BankTransactions      = "bank_transactions"
)

// Sentinel errors returned by store implementations.
var (
	ErrNotFound = errors.New("store: not found")
)

// Filter is an equality filter over document fields.
type Filter map[string]any

// Record is a stored document in backend-neutral form. The "_id" value is
// backend-specific and must be treated as opaque: the only supported use is
// feeding it back into a Filter.
type Record map[string]any

// ID returns the record's opaque identifier, or nil.
func (r Record) ID() any { return r["_id"] }

// Collection is the minimal persistence capability the import and sync
// engines need. Anything that can look up, insert, and delete documents can
// back them.
type Collection interface {
	// FindOne returns the first document matching the filter, or
	// ErrNotFound.
	FindOne(ctx context.Context, filter Filter) (Record, error)

	// InsertOne stores a new document and returns its assigned ID.
	InsertOne(ctx context.Context, doc any) (any, error)

	// DeleteOne removes the first document matching the filter. Deleting a
	// document that doesn't exist is not an error.
	DeleteOne(ctx context.Context, filter Filter) error
}

// Store hands out named collections and reports backend health.
type Store interface {
	Collection(name string) Collection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
