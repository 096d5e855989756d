// Package saves defines the save slot domain types and the storage interface.
package saves

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// DefaultSlot is used when a caller does not name a slot.
const DefaultSlot = 1

var (
	// ErrNotFound is returned when no document has been saved for a slot.
	ErrNotFound = errors.New("save not found")
	// ErrCorrupt is returned when a slot file exists but is not valid JSON.
	ErrCorrupt = errors.New("invalid save format")
	// ErrInvalidInput is returned when imported text is not valid JSON.
	ErrInvalidInput = errors.New("invalid JSON")
	// ErrInvalidSlot is returned for slot ids below 1.
	ErrInvalidSlot = errors.New("invalid slot")
)

// Summary is the listing view of a slot. Meta and Time are copied from the
// document untouched and are null when the document does not carry them.
type Summary struct {
	ID   int             `json:"id"`
	Meta json.RawMessage `json:"meta"`
	Time json.RawMessage `json:"time"`
}

// ListResult holds the slots that could be read and how many were skipped
// because their contents were not valid JSON.
type ListResult struct {
	Saves   []Summary
	Skipped int
}

// Op is the kind of change observed on a slot file.
type Op string

const (
	OpWrite  Op = "write"
	OpRemove Op = "remove"
)

// SlotEvent describes a change to a slot file on disk.
type SlotEvent struct {
	ID        int
	Op        Op
	Timestamp time.Time
}

// Store persists save documents keyed by slot id.
type Store interface {
	// List returns a summary for every readable slot. Unreadable slots are
	// counted in ListResult.Skipped and never cause an error.
	List(ctx context.Context) (ListResult, error)

	// Save fully replaces the document stored for id.
	Save(ctx context.Context, id int, doc json.RawMessage) error

	// Get returns the stored document.
	// Returns ErrNotFound if nothing is stored and ErrCorrupt if the stored
	// bytes are not valid JSON.
	Get(ctx context.Context, id int) (json.RawMessage, error)

	// Delete removes the slot. Deleting a missing slot is not an error.
	Delete(ctx context.Context, id int) error

	// Import parses raw and stores it like Save. Returns ErrInvalidInput
	// without writing anything if raw is not valid JSON.
	Import(ctx context.Context, id int, raw string) error
}

// ValidateSlot reports ErrInvalidSlot for ids below 1.
func ValidateSlot(id int) error {
	if id < 1 {
		return ErrInvalidSlot
	}
	return nil
}
