package cache

import (
	"encoding/json"
	"strconv"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/budget-bot/internal/entity/user"
	"max.ks1230/budget-bot/internal/logger"
)

const (
	defaultBase = 10
	recordKey   = "record"
)

type MemcacheClient struct {
	client *memcache.Client
	ttl    int32
}

type config interface {
	Hosts() []string
	TTLSeconds() int32
}

func NewMemcache(config config) (*MemcacheClient, error) {
	logger.Info("memcached hosts", zap.Strings("hosts", config.Hosts()))
	mc := memcache.New(config.Hosts()...)
	return &MemcacheClient{client: mc, ttl: config.TTLSeconds()}, mc.Ping()
}

func formatKey(userID int64, option string) string {
	return strconv.FormatInt(userID, defaultBase) + ":" + option
}

func (mc *MemcacheClient) CacheRecord(userID int64, rec user.Record) error {
	logger.Debug("cache record", zap.Int64("userID", userID))
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode record")
	}
	return mc.client.Set(&memcache.Item{
		Key:        formatKey(userID, recordKey),
		Value:      raw,
		Expiration: mc.ttl,
	})
}

func (mc *MemcacheClient) GetRecord(userID int64) (user.Record, error) {
	logger.Debug("get record from cache", zap.Int64("userID", userID))
	item, err := mc.client.Get(formatKey(userID, recordKey))
	if err != nil {
		return user.Record{}, err
	}

	var rec user.Record
	if err = json.Unmarshal(item.Value, &rec); err != nil {
		return user.Record{}, errors.Wrap(err, "decode record")
	}
	if rec.Expenses == nil {
		rec.Expenses = make([]user.ExpenseRecord, 0)
	}
	return rec, nil
}

func (mc *MemcacheClient) Invalidate(userID int64) error {
	logger.Debug("invalidate cache", zap.Int64("userID", userID))

	err := mc.client.Delete(formatKey(userID, recordKey))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return err
	}
	return nil
}
