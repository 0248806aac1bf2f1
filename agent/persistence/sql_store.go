package persistence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/BaSui01/cogniflow/internal/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CognitiveSnapshot 快照表模型，表结构由 internal/migration 维护
type CognitiveSnapshot struct {
	ID        string    `gorm:"primaryKey;size:128"`
	Data      string    `gorm:"type:text;not null"`
	Checksum  string    `gorm:"size:64"`
	Version   int       `gorm:"not null;default:1"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName 固定表名
func (CognitiveSnapshot) TableName() string { return "cognitive_snapshots" }

const sqlSaveRetries = 3

// SQLStore 基于 gorm 的快照存储，支持 sqlite/postgres/mysql
type SQLStore struct {
	pool   *database.PoolManager
	key    string
	logger *zap.Logger
}

// NewSQLStore 打开连接池并创建存储；快照表必须已存在（先执行 migrate up）
func NewSQLStore(cfg database.Config, key string, logger *zap.Logger) (*SQLStore, error) {
	pool, err := database.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	s, err := NewSQLStoreWithPool(pool, key, logger)
	if err != nil {
		_ = pool.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStoreWithPool 复用已有连接池
func NewSQLStoreWithPool(pool *database.PoolManager, key string, logger *zap.Logger) (*SQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("%w: pool is required", ErrInvalidInput)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if key == "" {
		key = DefaultSnapshotKey
	}
	if !pool.DB().Migrator().HasTable(&CognitiveSnapshot{}) {
		return nil, fmt.Errorf("table %q does not exist, run migrations first", CognitiveSnapshot{}.TableName())
	}
	return &SQLStore{pool: pool, key: key, logger: logger.With(zap.String("component", "sql_snapshot_store"))}, nil
}

// Load 读取快照并校验摘要
func (s *SQLStore) Load(ctx context.Context) ([]byte, error) {
	if s.pool.Closed() {
		return nil, ErrStoreClosed
	}
	var row CognitiveSnapshot
	err := s.pool.DB().WithContext(ctx).Where("id = ?", s.key).Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	if row.Checksum != "" && row.Checksum != checksum([]byte(row.Data)) {
		return nil, fmt.Errorf("snapshot %q checksum mismatch", s.key)
	}
	return []byte(row.Data), nil
}

// Save 在事务中 upsert，遇到锁冲突按退避重试
func (s *SQLStore) Save(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return ErrInvalidInput
	}
	row := CognitiveSnapshot{
		ID:        s.key,
		Data:      string(data),
		Checksum:  checksum(data),
		Version:   1,
		UpdatedAt: time.Now().UTC(),
	}
	err := s.pool.WithTransactionRetry(ctx, sqlSaveRetries, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "checksum", "version", "updated_at"}),
		}).Create(&row).Error
	})
	if errors.Is(err, database.ErrPoolClosed) {
		return ErrStoreClosed
	}
	if err != nil {
		s.logger.Error("save snapshot failed", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Ping 健康检查
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		if errors.Is(err, database.ErrPoolClosed) {
			return ErrStoreClosed
		}
		return err
	}
	return nil
}

// Close 关闭连接池
func (s *SQLStore) Close() error { return s.pool.Close() }

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
