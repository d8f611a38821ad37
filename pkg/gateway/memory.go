package gateway

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// MemoryGateway keeps blobs in process memory. Used for tests and demos.
type MemoryGateway struct {
	mu        sync.RWMutex
	blobs     map[string]memoryBlob
	available bool
	address   string
}

type memoryBlob struct {
	data    []byte
	version uint64
}

// NewMemoryGateway creates an empty, available MemoryGateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		blobs:     make(map[string]memoryBlob),
		available: true,
		address:   "memory://gamecrypt",
	}
}

// SetAvailable toggles what IsAvailable reports.
func (g *MemoryGateway) SetAvailable(available bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.available = available
}

func (g *MemoryGateway) IsAvailable(ctx context.Context) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.available, nil
}

func (g *MemoryGateway) GetData(ctx context.Context, key string) ([]byte, error) {
	b, err := g.GetVersioned(ctx, key)
	return b.Data, err
}

func (g *MemoryGateway) SetData(ctx context.Context, key string, data []byte) (Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.put(key, data)
	return newReceipt(key, data), nil
}

func (g *MemoryGateway) GetVersioned(ctx context.Context, key string) (Blob, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b, ok := g.blobs[key]
	if !ok {
		return Blob{}, nil
	}
	return Blob{Data: append([]byte(nil), b.data...), Version: strconv.FormatUint(b.version, 10)}, nil
}

func (g *MemoryGateway) SetIfVersion(ctx context.Context, key string, data []byte, version string) (Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	current := ""
	if b, ok := g.blobs[key]; ok {
		current = strconv.FormatUint(b.version, 10)
	}
	if current != version {
		return Receipt{}, ErrVersionConflict
	}
	g.put(key, data)
	return newReceipt(key, data), nil
}

func (g *MemoryGateway) put(key string, data []byte) {
	b := g.blobs[key]
	g.blobs[key] = memoryBlob{data: append([]byte(nil), data...), version: b.version + 1}
}

func (g *MemoryGateway) Address(ctx context.Context) (string, error) {
	return g.address, nil
}

func (g *MemoryGateway) Backend() string { return BackendMemory }

func (g *MemoryGateway) Close() error { return nil }

// newReceipt mints a receipt for backends without real transactions.
func newReceipt(key string, data []byte) Receipt {
	return Receipt{Key: key, TxHash: uuid.NewString(), Size: len(data)}
}
