// Package gateway provides the contract gateway: a string-keyed store of byte
// blobs with the same surface as the game contract (isAvailable, getData,
// setData, address). Backends range from an in-memory map to the contract
// itself on an EVM chain.
package gateway

import (
	"context"
	"errors"
)

var (
	// ErrVersionConflict is returned by SetIfVersion when the stored blob
	// changed since it was read.
	ErrVersionConflict = errors.New("gateway: version conflict")

	// ErrUnavailable is returned when the backend reports it cannot serve.
	ErrUnavailable = errors.New("gateway: unavailable")

	// ErrRejected wraps signer rejections from transaction-backed gateways.
	ErrRejected = errors.New("gateway: transaction rejected")
)

// Receipt describes a completed SetData.
type Receipt struct {
	Key    string `json:"key"`
	TxHash string `json:"txHash"`
	Size   int    `json:"size"`
}

// Blob is a stored value with the version it was read at. An empty Version
// means the key does not exist.
type Blob struct {
	Data    []byte
	Version string
}

// Gateway is the read/write surface of the game contract.
type Gateway interface {
	// IsAvailable reports whether the backend can serve reads and writes.
	IsAvailable(ctx context.Context) (bool, error)

	// GetData returns the blob stored under key, or nil if none exists.
	GetData(ctx context.Context, key string) ([]byte, error)

	// SetData replaces the blob under key.
	SetData(ctx context.Context, key string, data []byte) (Receipt, error)

	// Address resolves the address of the contract (or a locator for
	// non-chain backends). It is embedded in signature messages.
	Address(ctx context.Context) (string, error)

	// Backend names the implementation, e.g. "redis".
	Backend() string

	// Close releases backend resources.
	Close() error
}

// Versioned is implemented by backends that can reject a write when the
// stored blob has moved on since it was read.
type Versioned interface {
	// GetVersioned returns the blob and its current version.
	GetVersioned(ctx context.Context, key string) (Blob, error)

	// SetIfVersion writes data only if the stored version still equals
	// version. An empty version means "only if the key does not exist".
	SetIfVersion(ctx context.Context, key string, data []byte, version string) (Receipt, error)
}

// AsVersioned returns the Versioned view of g when it supports it.
func AsVersioned(g Gateway) (Versioned, bool) {
	v, ok := g.(Versioned)
	return v, ok
}
