package ledger

import (
	"context"
	"errors"

	"investtracker/internal/core"
)

// ErrNotFound is returned when an update or delete names an id the store does not hold.
var ErrNotFound = errors.New("investment record not found")

// Ports for storage adapters.
type (
	// RecordWriter mutates the durable record set.
	RecordWriter interface {
		// Insert appends a record and returns the id assigned by the store.
		Insert(ctx context.Context, date core.Date, typ core.Type, amount float64) (int64, error)
		// UpdateAmount overwrites the amount of one record.
		UpdateAmount(ctx context.Context, id int64, amount float64) error
		// Delete removes one record.
		Delete(ctx context.Context, id int64) error
	}

	// RecordReader answers period queries.
	RecordReader interface {
		// List returns the records of the period, most recent date first.
		// Records sharing a date keep insertion order.
		List(ctx context.Context, p core.Period) ([]core.Record, error)
		// Sum returns the total amount of the period, 0 when it is empty.
		Sum(ctx context.Context, p core.Period) (float64, error)
	}

	// Repository is everything the window needs from storage.
	Repository interface {
		RecordWriter
		RecordReader
		// Ping reports whether the store is reachable.
		Ping(ctx context.Context) error
	}
)
