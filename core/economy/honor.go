package economy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dm-vev/netcore/core/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// HonorService changes honor points.
type HonorService struct {
	store store.Store
	log   *slog.Logger

	mu      sync.Mutex
	changes metric.Int64Counter
}

// NewHonorService returns a HonorService over s. If meter is nil the global
// meter provider is used.
func NewHonorService(s store.Store, log *slog.Logger, meter metric.Meter) (*HonorService, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	changes, err := meter.Int64Counter(
		"netcore.honor.changes",
		metric.WithDescription("Honor changes applied"),
	)
	if err != nil {
		return nil, fmt.Errorf("create honor counter: %w", err)
	}
	return &HonorService{store: s, log: log.With("subsystem", "honor"), changes: changes}, nil
}

// Honor returns the honor of player id.
func (h *HonorService) Honor(ctx context.Context, id uuid.UUID) (int, error) {
	return h.store.Honor(ctx, id)
}

// SetHonor sets the honor of player id to amount.
func (h *HonorService) SetHonor(ctx context.Context, id uuid.UUID, amount int, reason string) error {
	if err := h.store.SetHonor(ctx, id, amount, reason); err != nil {
		return fmt.Errorf("set honor: %w", err)
	}
	h.changes.Add(ctx, 1)
	return nil
}

// AddHonor adds delta to the honor of player id and returns the new value.
func (h *HonorService) AddHonor(ctx context.Context, id uuid.UUID, delta int, reason string) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur, err := h.store.Honor(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("load honor: %w", err)
	}
	if err := h.SetHonor(ctx, id, cur+delta, reason); err != nil {
		return 0, err
	}
	return cur + delta, nil
}
