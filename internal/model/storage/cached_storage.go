package storage

import (
	"context"

	"go.uber.org/zap"
	"max.ks1230/budget-bot/internal/entity/user"
	"max.ks1230/budget-bot/internal/logger"
)

type recordCache interface {
	GetRecord(userID int64) (user.Record, error)
	CacheRecord(userID int64, rec user.Record) error
	Invalidate(userID int64) error
}

// UserStorage is the contract shared by every record store.
type UserStorage interface {
	GetUser(ctx context.Context, userID int64) (user.Record, error)
	GetState(ctx context.Context, userID int64) (user.State, bool, error)
	SetState(ctx context.Context, userID int64, state user.State) error
	AddExpense(ctx context.Context, userID int64, exp user.ExpenseRecord) (user.Record, error)
	DeleteExpense(ctx context.Context, userID int64, index int) (user.ExpenseRecord, error)
	SetDailyLimit(ctx context.Context, userID int64, limit float64) error
}

// CachedStorage reads records through a cache and drops the cached
// entry after every write to the underlying storage.
type CachedStorage struct {
	UserStorage
	cache recordCache
}

func NewCachedStorage(inner UserStorage, cache recordCache) *CachedStorage {
	return &CachedStorage{UserStorage: inner, cache: cache}
}

func (s *CachedStorage) GetUser(ctx context.Context, userID int64) (user.Record, error) {
	rec, err := s.cache.GetRecord(userID)
	if err == nil {
		return rec, nil
	}
	logger.Debug("record cache miss", zap.Int64("userID", userID), zap.Error(err))

	rec, err = s.UserStorage.GetUser(ctx, userID)
	if err != nil {
		return user.Record{}, err
	}
	if err = s.cache.CacheRecord(userID, rec); err != nil {
		logger.Error("failed to cache record", zap.Int64("userID", userID), zap.Error(err))
	}
	return rec, nil
}

func (s *CachedStorage) SetState(ctx context.Context, userID int64, state user.State) error {
	defer s.invalidate(userID)
	return s.UserStorage.SetState(ctx, userID, state)
}

func (s *CachedStorage) AddExpense(ctx context.Context, userID int64, exp user.ExpenseRecord) (user.Record, error) {
	defer s.invalidate(userID)
	return s.UserStorage.AddExpense(ctx, userID, exp)
}

func (s *CachedStorage) DeleteExpense(ctx context.Context, userID int64, index int) (user.ExpenseRecord, error) {
	defer s.invalidate(userID)
	return s.UserStorage.DeleteExpense(ctx, userID, index)
}

func (s *CachedStorage) SetDailyLimit(ctx context.Context, userID int64, limit float64) error {
	defer s.invalidate(userID)
	return s.UserStorage.SetDailyLimit(ctx, userID, limit)
}

func (s *CachedStorage) invalidate(userID int64) {
	if err := s.cache.Invalidate(userID); err != nil {
		logger.Error("failed to invalidate record cache", zap.Int64("userID", userID), zap.Error(err))
	}
}
