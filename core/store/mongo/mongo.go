// Package mongo implements store.Store on MongoDB, the document store shared by
// every server of a multi-server network.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/store"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	playersCollection      = "players"
	transactionsCollection = "transactions"
)

// Config holds MongoDB connection settings.
type Config struct {
	// URI is the connection string, such as mongodb://localhost:27017.
	URI string
	// Database is the database holding the network collections.
	Database string
	// Timeout bounds connecting and the initial ping.
	Timeout time.Duration
}

// Store is a MongoDB backed store.Store.
type Store struct {
	client       *mongo.Client
	players      *mongo.Collection
	transactions *mongo.Collection
	now          func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to MongoDB, verifies the connection and ensures the indexes
// used for name lookups and transaction history exist.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		return nil, errors.New("mongo database must not be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(cfg.Database)
	s := &Store{
		client:       client,
		players:      db.Collection(playersCollection),
		transactions: db.Collection(transactionsCollection),
		now:          time.Now,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.players.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "nameLower", Value: 1}}}); err != nil {
		return fmt.Errorf("create name index: %w", err)
	}
	if _, err := s.transactions.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "player", Value: 1}, {Key: "time", Value: -1}}}); err != nil {
		return fmt.Errorf("create transaction index: %w", err)
	}
	return nil
}

// Profile is part of the store.Store interface.
func (s *Store) Profile(ctx context.Context, id uuid.UUID) (store.Profile, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

// ProfileByName is part of the store.Store interface.
func (s *Store) ProfileByName(ctx context.Context, name string) (store.Profile, error) {
	return s.findOne(ctx, bson.M{"nameLower": store.NormalizeName(name)})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (store.Profile, error) {
	var doc playerDocument
	err := s.players.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Profile{}, store.ErrNotFound
	}
	if err != nil {
		return store.Profile{}, fmt.Errorf("find profile: %w", err)
	}
	return doc.profile()
}

// SaveProfile is part of the store.Store interface.
func (s *Store) SaveProfile(ctx context.Context, p store.Profile) error {
	_, err := s.players.UpdateOne(ctx, bson.M{"_id": p.UUID.String()}, saveProfileUpdate(p), options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
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
func (s *Store) SetRank(ctx context.Context, id uuid.UUID, rank string) error {
	return s.upsert(ctx, id, bson.M{"$set": bson.M{"rank": rank}})
}

// SetTags is part of the store.Store interface.
func (s *Store) SetTags(ctx context.Context, id uuid.UUID, tags []int) error {
	if tags == nil {
		tags = []int{}
	}
	return s.upsert(ctx, id, bson.M{"$set": bson.M{"tags": tags}})
}

// Currency is part of the store.Store interface.
func (s *Store) Currency(ctx context.Context, id uuid.UUID, c currency.Currency) (int, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %s", store.ErrUnknownCurrency, c)
	}
	p, err := s.Profile(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return p.Currencies[string(c)], nil
}

// ChangeCurrency is part of the store.Store interface.
func (s *Store) ChangeCurrency(ctx context.Context, id uuid.UUID, delta int, reason string, c currency.Currency) (int, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %s", store.ErrUnknownCurrency, c)
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc playerDocument
	err := s.players.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, bson.M{"$inc": bson.M{currencyField(c): delta}}, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("change currency: %w", err)
	}
	balance := doc.Currencies[string(c)]
	if err := s.log(ctx, store.Transaction{Player: id, Ledger: string(c), Delta: delta, Balance: balance, Reason: reason}); err != nil {
		return balance, err
	}
	return balance, nil
}

// Transactions is part of the store.Store interface.
func (s *Store) Transactions(ctx context.Context, id uuid.UUID, limit int) ([]store.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "time", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.transactions.Find(ctx, bson.M{"player": id.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	var docs []transactionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	out := make([]store.Transaction, 0, len(docs))
	for _, d := range docs {
		tx, err := d.transaction()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// Honor is part of the store.Store interface.
func (s *Store) Honor(ctx context.Context, id uuid.UUID) (int, error) {
	p, err := s.Profile(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	return p.Honor, err
}

// SetHonor is part of the store.Store interface.
func (s *Store) SetHonor(ctx context.Context, id uuid.UUID, amount int, reason string) error {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)
	var before playerDocument
	err := s.players.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, bson.M{"$set": bson.M{"honor": amount}}, opts).Decode(&before)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("set honor: %w", err)
	}
	return s.log(ctx, store.Transaction{Player: id, Ledger: store.HonorLedger, Delta: amount - before.Honor, Balance: amount, Reason: reason})
}

// Achievements is part of the store.Store interface.
func (s *Store) Achievements(ctx context.Context, id uuid.UUID) ([]int, error) {
	p, err := s.Profile(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return p.Achievements, err
}

// AddAchievement is part of the store.Store interface.
func (s *Store) AddAchievement(ctx context.Context, id uuid.UUID, a int) error {
	return s.upsert(ctx, id, bson.M{"$addToSet": bson.M{"achievements": a}})
}

// Close disconnects from MongoDB.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) upsert(ctx context.Context, id uuid.UUID, update bson.M) error {
	if _, err := s.players.UpdateOne(ctx, bson.M{"_id": id.String()}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (s *Store) log(ctx context.Context, tx store.Transaction) error {
	tx.Time = s.now()
	if _, err := s.transactions.InsertOne(ctx, newTransactionDocument(tx)); err != nil {
		return fmt.Errorf("log transaction: %w", err)
	}
	return nil
}

func currencyField(c currency.Currency) string {
	return "currencies." + string(c)
}
