// Package leveldb implements store.Store on an embedded LevelDB database. It
// suits single-server deployments and development networks.
package leveldb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/storage"
	"github.com/df-mc/goleveldb/leveldb/util"
	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/store"
	"github.com/google/uuid"
)

// Store is a LevelDB backed store.Store. Profiles are stored as JSON values.
type Store struct {
	mu     sync.Mutex
	db     *leveldb.DB
	closed bool
	now    func() time.Time
	lastTx int64
}

// Open opens or creates a database in the directory passed.
func Open(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{Compression: opt.SnappyCompression})
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// OpenMemory opens a database that lives in memory only.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

var _ store.Store = (*Store)(nil)

func profileKey(id uuid.UUID) []byte {
	return []byte("p:" + id.String())
}

func nameKey(name string) []byte {
	return []byte("n:" + store.NormalizeName(name))
}

func txPrefix(id uuid.UUID) []byte {
	return []byte("t:" + id.String() + ":")
}

// Profile is part of the store.Store interface.
func (s *Store) Profile(_ context.Context, id uuid.UUID) (store.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.Profile{}, store.ErrClosed
	}
	p, found, err := s.loadLocked(id)
	if err != nil {
		return store.Profile{}, err
	}
	if !found {
		return store.Profile{}, store.ErrNotFound
	}
	return p, nil
}

// ProfileByName is part of the store.Store interface.
func (s *Store) ProfileByName(ctx context.Context, name string) (store.Profile, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.Profile{}, store.ErrClosed
	}
	raw, err := s.db.Get(nameKey(name), nil)
	s.mu.Unlock()
	if errors.Is(err, leveldb.ErrNotFound) {
		return store.Profile{}, store.ErrNotFound
	}
	if err != nil {
		return store.Profile{}, fmt.Errorf("read name index: %w", err)
	}
	id, err := uuid.ParseBytes(raw)
	if err != nil {
		return store.Profile{}, fmt.Errorf("decode name index: %w", err)
	}
	return s.Profile(ctx, id)
}

// SaveProfile is part of the store.Store interface.
func (s *Store) SaveProfile(_ context.Context, p store.Profile) error {
	return s.update(p.UUID, func(existing *store.Profile, batch *leveldb.Batch) error {
		if existing.Name != "" && store.NormalizeName(existing.Name) != store.NormalizeName(p.Name) {
			batch.Delete(nameKey(existing.Name))
		}
		existing.Name = p.Name
		existing.Locale = p.Locale
		existing.ClientVersion = p.ClientVersion
		if existing.FirstJoin.IsZero() {
			existing.FirstJoin = p.FirstJoin
		}
		existing.LastJoin = p.LastJoin
		if existing.Rank == "" {
			existing.Rank = p.Rank
		}
		if p.Name != "" {
			batch.Put(nameKey(p.Name), []byte(p.UUID.String()))
		}
		return nil
	})
}

// JoinData is part of the store.Store interface.
func (s *Store) JoinData(ctx context.Context, id uuid.UUID, fields ...string) (store.Document, error) {
	p, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Document(fields...), nil
}

// SetRank is part of the store.Store interface.
func (s *Store) SetRank(_ context.Context, id uuid.UUID, rank string) error {
	return s.update(id, func(p *store.Profile, _ *leveldb.Batch) error {
		p.Rank = rank
		return nil
	})
}

// SetTags is part of the store.Store interface.
func (s *Store) SetTags(_ context.Context, id uuid.UUID, tags []int) error {
	return s.update(id, func(p *store.Profile, _ *leveldb.Batch) error {
		p.Tags = slices.Clone(tags)
		return nil
	})
}

// Currency is part of the store.Store interface.
func (s *Store) Currency(_ context.Context, id uuid.UUID, c currency.Currency) (int, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %s", store.ErrUnknownCurrency, c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, store.ErrClosed
	}
	p, _, err := s.loadLocked(id)
	if err != nil {
		return 0, err
	}
	return p.Currencies[string(c)], nil
}

// ChangeCurrency is part of the store.Store interface.
func (s *Store) ChangeCurrency(_ context.Context, id uuid.UUID, delta int, reason string, c currency.Currency) (int, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %s", store.ErrUnknownCurrency, c)
	}
	var balance int
	err := s.update(id, func(p *store.Profile, batch *leveldb.Batch) error {
		if p.Currencies == nil {
			p.Currencies = make(map[string]int)
		}
		p.Currencies[string(c)] += delta
		balance = p.Currencies[string(c)]
		return s.logLocked(batch, store.Transaction{Player: id, Ledger: string(c), Delta: delta, Balance: balance, Reason: reason})
	})
	return balance, err
}

// Transactions is part of the store.Store interface.
func (s *Store) Transactions(_ context.Context, id uuid.UUID, limit int) ([]store.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	it := s.db.NewIterator(util.BytesPrefix(txPrefix(id)), nil)
	defer it.Release()

	var out []store.Transaction
	for ok := it.Last(); ok && (limit <= 0 || len(out) < limit); ok = it.Prev() {
		var tx store.Transaction
		if err := json.Unmarshal(it.Value(), &tx); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Honor is part of the store.Store interface.
func (s *Store) Honor(_ context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, store.ErrClosed
	}
	p, _, err := s.loadLocked(id)
	return p.Honor, err
}

// SetHonor is part of the store.Store interface.
func (s *Store) SetHonor(_ context.Context, id uuid.UUID, amount int, reason string) error {
	return s.update(id, func(p *store.Profile, batch *leveldb.Batch) error {
		delta := amount - p.Honor
		p.Honor = amount
		return s.logLocked(batch, store.Transaction{Player: id, Ledger: store.HonorLedger, Delta: delta, Balance: amount, Reason: reason})
	})
}

// Achievements is part of the store.Store interface.
func (s *Store) Achievements(_ context.Context, id uuid.UUID) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	p, _, err := s.loadLocked(id)
	return p.Achievements, err
}

// AddAchievement is part of the store.Store interface.
func (s *Store) AddAchievement(_ context.Context, id uuid.UUID, a int) error {
	return s.update(id, func(p *store.Profile, _ *leveldb.Batch) error {
		if !slices.Contains(p.Achievements, a) {
			p.Achievements = append(p.Achievements, a)
		}
		return nil
	})
}

// Close closes the underlying database. Further calls return store.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// update loads the profile of id, creating an empty one if missing, applies fn
// and writes the result atomically together with anything fn added to the
// batch.
func (s *Store) update(id uuid.UUID, fn func(p *store.Profile, batch *leveldb.Batch) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	p, _, err := s.loadLocked(id)
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	if err := fn(&p, batch); err != nil {
		return err
	}
	encoded, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	batch.Put(profileKey(id), encoded)
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

func (s *Store) loadLocked(id uuid.UUID) (store.Profile, bool, error) {
	raw, err := s.db.Get(profileKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return store.Profile{UUID: id}, false, nil
	}
	if err != nil {
		return store.Profile{}, false, fmt.Errorf("read profile: %w", err)
	}
	var p store.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return store.Profile{}, false, fmt.Errorf("decode profile: %w", err)
	}
	return p, true, nil
}

func (s *Store) logLocked(batch *leveldb.Batch, tx store.Transaction) error {
	now := s.now()
	tx.Time = now
	// Keys must stay unique and ordered even when the clock does not advance.
	seq := now.UnixNano()
	if seq <= s.lastTx {
		seq = s.lastTx + 1
	}
	s.lastTx = seq

	encoded, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encode transaction: %w", err)
	}
	key := append(txPrefix(tx.Player), []byte(fmt.Sprintf("%020d", seq))...)
	batch.Put(key, encoded)
	return nil
}
