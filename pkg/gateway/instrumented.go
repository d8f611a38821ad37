package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/vlbabney57/GameCrypt-Engine/pkg/metrics"
)

// Instrument wraps g so every call is counted. The Versioned capability of g
// is preserved.
func Instrument(g Gateway) Gateway {
	base := &instrumented{next: g}
	if v, ok := g.(Versioned); ok {
		return &instrumentedVersioned{instrumented: base, versioned: v}
	}
	return base
}

type instrumented struct {
	next Gateway
}

func (i *instrumented) observe(op string, err error) {
	if err != nil {
		metrics.GatewayErrorsTotal.WithLabelValues(i.next.Backend(), op).Inc()
	}
}

func (i *instrumented) IsAvailable(ctx context.Context) (bool, error) {
	ok, err := i.next.IsAvailable(ctx)
	i.observe("isAvailable", err)
	return ok, err
}

func (i *instrumented) GetData(ctx context.Context, key string) ([]byte, error) {
	metrics.GatewayReadsTotal.WithLabelValues(i.next.Backend(), key).Inc()
	data, err := i.next.GetData(ctx, key)
	i.observe("getData", err)
	return data, err
}

func (i *instrumented) SetData(ctx context.Context, key string, data []byte) (Receipt, error) {
	start := time.Now()
	r, err := i.next.SetData(ctx, key, data)
	i.observe("setData", err)
	if err == nil {
		metrics.GatewayWritesTotal.WithLabelValues(i.next.Backend(), key).Inc()
		metrics.GatewayWriteLatency.WithLabelValues(i.next.Backend()).Observe(time.Since(start).Seconds())
	}
	return r, err
}

func (i *instrumented) Address(ctx context.Context) (string, error) {
	addr, err := i.next.Address(ctx)
	i.observe("address", err)
	return addr, err
}

func (i *instrumented) Backend() string { return i.next.Backend() }

func (i *instrumented) Close() error { return i.next.Close() }

type instrumentedVersioned struct {
	*instrumented
	versioned Versioned
}

func (i *instrumentedVersioned) GetVersioned(ctx context.Context, key string) (Blob, error) {
	metrics.GatewayReadsTotal.WithLabelValues(i.next.Backend(), key).Inc()
	b, err := i.versioned.GetVersioned(ctx, key)
	i.observe("getVersioned", err)
	return b, err
}

func (i *instrumentedVersioned) SetIfVersion(ctx context.Context, key string, data []byte, version string) (Receipt, error) {
	start := time.Now()
	r, err := i.versioned.SetIfVersion(ctx, key, data, version)
	switch {
	case err == nil:
		metrics.GatewayWritesTotal.WithLabelValues(i.next.Backend(), key).Inc()
		metrics.GatewayWriteLatency.WithLabelValues(i.next.Backend()).Observe(time.Since(start).Seconds())
	case errors.Is(err, ErrVersionConflict):
		metrics.GatewayVersionConflictsTotal.WithLabelValues(i.next.Backend(), key).Inc()
	default:
		i.observe("setIfVersion", err)
	}
	return r, err
}
