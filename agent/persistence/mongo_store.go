package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// mongoSnapshot 文档结构
type mongoSnapshot struct {
	ID        string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	Checksum  string    `bson:"checksum"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore 基于 MongoDB 的快照存储，每个键一个文档
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	key    string
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewMongoStore 连接 MongoDB 并校验可达
func NewMongoStore(ctx context.Context, cfg MongoStoreConfig, key string, logger *zap.Logger) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: mongodb uri is required", ErrInvalidInput)
	}
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, fmt.Errorf("%w: mongodb database and collection are required", ErrInvalidInput)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if key == "" {
		key = DefaultSnapshotKey
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logger.Info("mongodb snapshot store connected",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection))

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		key:    key,
		logger: logger.With(zap.String("component", "mongo_snapshot_store")),
	}, nil
}

func (s *MongoStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Load 读取快照文档
func (s *MongoStore) Load(ctx context.Context) ([]byte, error) {
	if s.isClosed() {
		return nil, ErrStoreClosed
	}
	var doc mongoSnapshot
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: s.key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot from mongodb: %w", err)
	}
	if doc.Checksum != "" && doc.Checksum != checksum(doc.Data) {
		return nil, fmt.Errorf("snapshot %q checksum mismatch", s.key)
	}
	return doc.Data, nil
}

// Save upsert 快照文档
func (s *MongoStore) Save(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return ErrInvalidInput
	}
	if s.isClosed() {
		return ErrStoreClosed
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "data", Value: data},
		{Key: "checksum", Value: checksum(data)},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}
	_, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: s.key}}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		s.logger.Error("save snapshot failed", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("save snapshot to mongodb: %w", err)
	}
	return nil
}

// Ping 健康检查
func (s *MongoStore) Ping(ctx context.Context) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	return s.client.Ping(ctx, nil)
}

// Close 断开连接
func (s *MongoStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
