package storage

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"max.ks1230/budget-bot/internal/entity/user"
)

var errMiss = errors.New("miss")

type fakeCache struct {
	records     map[int64]user.Record
	hits        int
	invalidated []int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{records: make(map[int64]user.Record)}
}

func (c *fakeCache) GetRecord(userID int64) (user.Record, error) {
	rec, ok := c.records[userID]
	if !ok {
		return user.Record{}, errMiss
	}
	c.hits++
	return rec, nil
}

func (c *fakeCache) CacheRecord(userID int64, rec user.Record) error {
	c.records[userID] = rec
	return nil
}

func (c *fakeCache) Invalidate(userID int64) error {
	delete(c.records, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

func Test_CachedStorage_ShouldServeRepeatedReadsFromCache(t *testing.T) {
	ctx := context.Background()
	inner, _ := newTestFileStorage(t)
	cache := newFakeCache()
	s := NewCachedStorage(inner, cache)

	_, err := s.AddExpense(ctx, 5, user.ExpenseRecord{Category: "Coffee", Amount: 150, Date: "2024-03-01"})
	require.NoError(t, err)

	first, err := s.GetUser(ctx, 5)
	require.NoError(t, err)
	second, err := s.GetUser(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.hits)
}

func Test_CachedStorage_ShouldInvalidateOnEveryWrite(t *testing.T) {
	ctx := context.Background()
	inner, _ := newTestFileStorage(t)
	cache := newFakeCache()
	s := NewCachedStorage(inner, cache)

	_, err := s.GetUser(ctx, 5)
	require.NoError(t, err)
	require.Contains(t, cache.records, int64(5))

	_, err = s.AddExpense(ctx, 5, user.ExpenseRecord{Category: "Coffee", Amount: 150, Date: "2024-03-01"})
	require.NoError(t, err)
	assert.NotContains(t, cache.records, int64(5))

	require.NoError(t, s.SetDailyLimit(ctx, 5, 10))
	require.NoError(t, s.SetState(ctx, 5, user.StateAwaitExpense))
	_, err = s.DeleteExpense(ctx, 5, 1)
	require.NoError(t, err)

	assert.Equal(t, []int64{5, 5, 5, 5}, cache.invalidated)

	rec, err := s.GetUser(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 10.0, rec.DailyLimit)
	assert.Equal(t, user.StateAwaitExpense, rec.State)
	assert.Empty(t, rec.Expenses)
}
