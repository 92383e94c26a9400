package storage

import "errors"

// Slot names used by the session store. No other code writes slots.
const (
	SlotCredentials = "credentials"
	SlotIdentity    = "identity"
)

var ErrSlotNotFound = errors.New("slot not found")

// SlotStore is durable client-side persistence: named slots holding
// JSON-serialized values.
type SlotStore interface {
	Get(name string) ([]byte, error)
	Set(name string, value []byte) error
	Delete(name string) error
	Close() error
}
