// Package economy moves currency balances and honor points through the store
// and records the changes as metrics.
package economy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrInsufficientFunds is returned by synchronous changes that would make a
// balance negative.
var ErrInsufficientFunds = errors.New("insufficient funds")

const meterName = "github.com/dm-vev/netcore/core/economy"

// Service changes currency balances.
type Service struct {
	store store.Store
	log   *slog.Logger
	tasks *Tasks

	// mu serialises the check and write of synchronous debits on this server.
	mu sync.Mutex

	transactions metric.Int64Counter
}

// NewService returns a Service over s. Async changes run on tasks. If meter
// is nil the global meter provider is used.
func NewService(s store.Store, tasks *Tasks, log *slog.Logger, meter metric.Meter) (*Service, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	transactions, err := meter.Int64Counter(
		"netcore.economy.transactions",
		metric.WithDescription("Currency transactions applied"),
	)
	if err != nil {
		return nil, fmt.Errorf("create transaction counter: %w", err)
	}
	return &Service{
		store:        s,
		log:          log.With("subsystem", "economy"),
		tasks:        tasks,
		transactions: transactions,
	}, nil
}

// Balance returns the balance of player id in c.
func (s *Service) Balance(ctx context.Context, id uuid.UUID, c currency.Currency) (int, error) {
	return s.store.Currency(ctx, id, c)
}

// Balances returns every balance of player id.
func (s *Service) Balances(ctx context.Context, id uuid.UUID) (map[currency.Currency]int, error) {
	out := make(map[currency.Currency]int, len(currency.All()))
	for _, c := range currency.All() {
		bal, err := s.store.Currency(ctx, id, c)
		if err != nil {
			return nil, err
		}
		out[c] = bal
	}
	return out, nil
}

// Change adds delta to the balance of player id in c. Synchronous changes
// return the new balance, or ErrInsufficientFunds if it would drop below 0.
// Async changes return immediately with 0 and log failures.
func (s *Service) Change(ctx context.Context, id uuid.UUID, delta int, reason string, c currency.Currency, async bool) (int, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %s", store.ErrUnknownCurrency, c)
	}
	if !async {
		return s.change(ctx, id, delta, reason, c)
	}
	s.tasks.Go(func(ctx context.Context) {
		if _, err := s.change(ctx, id, delta, reason, c); err != nil {
			s.log.Error("Async currency change failed.", "player", id, "currency", c, "delta", delta, "reason", reason, "err", err)
		}
	})
	return 0, nil
}

func (s *Service) change(ctx context.Context, id uuid.UUID, delta int, reason string, c currency.Currency) (int, error) {
	if delta == 0 {
		return s.store.Currency(ctx, id, c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if delta < 0 {
		bal, err := s.store.Currency(ctx, id, c)
		if err != nil {
			return 0, fmt.Errorf("load balance: %w", err)
		}
		if bal+delta < 0 {
			return bal, ErrInsufficientFunds
		}
	}
	bal, err := s.store.ChangeCurrency(ctx, id, delta, reason, c)
	if err != nil {
		return 0, fmt.Errorf("change balance: %w", err)
	}
	s.transactions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("currency", string(c)),
		attribute.String("direction", direction(delta)),
	))
	return bal, nil
}

// History returns up to limit of the latest transactions of player id.
func (s *Service) History(ctx context.Context, id uuid.UUID, limit int) ([]store.Transaction, error) {
	return s.store.Transactions(ctx, id, limit)
}

func direction(delta int) string {
	if delta < 0 {
		return "debit"
	}
	return "credit"
}
