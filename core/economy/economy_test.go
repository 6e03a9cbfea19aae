package economy

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/store"
	"github.com/dm-vev/netcore/core/store/leveldb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/metric/noop"
)

type EconomySuite struct {
	suite.Suite
	store *leveldb.Store
	tasks *Tasks
	eco   *Service
	honor *HonorService
	ctx   context.Context
}

func TestEconomySuite(t *testing.T) {
	suite.Run(t, new(EconomySuite))
}

func (s *EconomySuite) SetupTest() {
	st, err := leveldb.OpenMemory()
	s.Require().NoError(err)
	s.store = st
	s.ctx = context.Background()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	meter := noop.NewMeterProvider().Meter("test")
	s.tasks = NewTasks(s.ctx, log)
	s.eco, err = NewService(st, s.tasks, log, meter)
	s.Require().NoError(err)
	s.honor, err = NewHonorService(st, log, meter)
	s.Require().NoError(err)
}

func (s *EconomySuite) TearDownTest() {
	s.tasks.Wait()
	_ = s.store.Close()
}

func (s *EconomySuite) TestSyncChange() {
	id := uuid.New()
	bal, err := s.eco.Change(s.ctx, id, 40, "quest", currency.Tokens, false)
	s.Require().NoError(err)
	s.Equal(40, bal)

	bal, err = s.eco.Change(s.ctx, id, -50, "shop", currency.Tokens, false)
	s.ErrorIs(err, ErrInsufficientFunds)
	s.Equal(40, bal)

	bal, err = s.eco.Change(s.ctx, id, -40, "shop", currency.Tokens, false)
	s.Require().NoError(err)
	s.Zero(bal)

	_, err = s.eco.Change(s.ctx, id, 1, "bad", currency.Currency("gems"), false)
	s.ErrorIs(err, store.ErrUnknownCurrency)
}

func (s *EconomySuite) TestAsyncChange() {
	id := uuid.New()
	for range 5 {
		_, err := s.eco.Change(s.ctx, id, 2, "tick", currency.AdventureCoins, true)
		s.Require().NoError(err)
	}
	// Debits that cannot be afforded are dropped.
	_, err := s.eco.Change(s.ctx, id, -100, "too much", currency.Balance, true)
	s.Require().NoError(err)
	s.tasks.Wait()

	balances, err := s.eco.Balances(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(10, balances[currency.AdventureCoins])
	s.Zero(balances[currency.Balance])

	history, err := s.eco.History(s.ctx, id, 0)
	s.Require().NoError(err)
	s.Len(history, 5)
}

func (s *EconomySuite) TestConcurrentDebitsNeverOverdraw() {
	id := uuid.New()
	_, err := s.eco.Change(s.ctx, id, 10, "seed", currency.Tokens, false)
	s.Require().NoError(err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.eco.Change(s.ctx, id, -1, "spend", currency.Tokens, false); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(10, ok)
	bal, err := s.eco.Balance(s.ctx, id, currency.Tokens)
	s.Require().NoError(err)
	s.Zero(bal)
}

func (s *EconomySuite) TestHonor() {
	id := uuid.New()
	s.Require().NoError(s.honor.SetHonor(s.ctx, id, 10, "event"))
	v, err := s.honor.AddHonor(s.ctx, id, -3, "report")
	s.Require().NoError(err)
	s.Equal(7, v)

	v, err = s.honor.Honor(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(7, v)
}

func (s *EconomySuite) TestTaskPanicContained() {
	s.tasks.Go(func(context.Context) { panic("boom") })
	s.tasks.Wait()
}

func (s *EconomySuite) TestTasksClose() {
	release := make(chan struct{})
	var ran atomic.Int32
	s.tasks.Go(func(context.Context) {
		<-release
		ran.Add(1)
	})

	closed := make(chan struct{})
	go func() {
		s.tasks.Close()
		close(closed)
	}()
	s.Never(func() bool {
		select {
		case <-closed:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond, "Close waits for running tasks")

	close(release)
	s.Eventually(func() bool {
		select {
		case <-closed:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	s.Equal(int32(1), ran.Load())

	s.tasks.Go(func(context.Context) { ran.Add(1) })
	s.tasks.Wait()
	s.Equal(int32(1), ran.Load(), "tasks started after Close never run")

	id := uuid.New()
	_, err := s.eco.Change(s.ctx, id, 5, "late", currency.Tokens, true)
	s.NoError(err)
	s.tasks.Close()
	bal, err := s.eco.Balance(s.ctx, id, currency.Tokens)
	s.Require().NoError(err)
	s.Zero(bal)
}
