package persistence

import (
	"context"
	"sync"
)

// MemoryStore 内存快照存储，适合开发与测试，进程退出即丢失
type MemoryStore struct {
	mu     sync.RWMutex
	data   []byte
	saves  int
	closed bool
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Load 返回最近一次保存的副本
func (s *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if s.data == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), s.data...), nil
}

// Save 保存副本
func (s *MemoryStore) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.data = append([]byte(nil), data...)
	s.saves++
	return nil
}

// Saves 返回保存次数
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Ping 健康检查
func (s *MemoryStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close 关闭存储
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
