package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/budget-bot/internal/entity/user"
	"max.ks1230/budget-bot/internal/logger"
	"max.ks1230/budget-bot/internal/model/customerr"
)

const (
	filePerm   = 0o644
	jsonIndent = "    "
)

// FileStorage keeps every user record in memory and rewrites the whole
// JSON file after each mutation. All calls are serialized by one mutex.
type FileStorage struct {
	mu      sync.Mutex
	path    string
	userMap map[int64]user.Record
}

func NewFileStorage(path string) (*FileStorage, error) {
	s := &FileStorage{
		path:    path,
		userMap: make(map[int64]user.Record),
	}
	if err := s.load(); err != nil {
		return nil, errors.Wrap(err, "init file storage")
	}
	return s, nil
}

func (s *FileStorage) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("user data file not found, starting empty", zap.String("path", s.path))
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "reading user data")
	}

	userMap := make(map[int64]user.Record)
	if err = json.Unmarshal(raw, &userMap); err != nil {
		return errors.Wrap(err, "parsing user data")
	}
	for id, rec := range userMap {
		if rec.Expenses == nil {
			rec.Expenses = make([]user.ExpenseRecord, 0)
			userMap[id] = rec
		}
	}
	s.userMap = userMap

	logger.Info("user data loaded", zap.String("path", s.path), zap.Int("users", len(userMap)))
	return nil
}

// save replaces the data file through a temp file in the same directory,
// so a crash mid-write leaves the previous version intact.
func (s *FileStorage) save() error {
	raw, err := json.MarshalIndent(s.userMap, "", jsonIndent)
	if err != nil {
		return errors.Wrap(err, "encoding user data")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing user data")
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "syncing user data")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing user data")
	}
	if err = os.Chmod(tmpName, filePerm); err != nil {
		return errors.Wrap(err, "chmod user data")
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, "replacing user data")
	}

	logger.Debug("user data saved", zap.String("path", s.path))
	return nil
}

func (s *FileStorage) GetUser(_ context.Context, userID int64) (user.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.userMap[userID]
	if !ok {
		return user.NewRecord(), nil
	}
	return cloneRecord(rec), nil
}

func (s *FileStorage) GetState(_ context.Context, userID int64) (user.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.userMap[userID]
	return rec.State, ok, nil
}

func (s *FileStorage) SetState(_ context.Context, userID int64, state user.State) error {
	_, err := s.mutate(userID, func(rec *user.Record) error {
		rec.State = state
		return nil
	})
	return errors.Wrap(err, "set state")
}

func (s *FileStorage) AddExpense(_ context.Context, userID int64, exp user.ExpenseRecord) (user.Record, error) {
	rec, err := s.mutate(userID, func(rec *user.Record) error {
		rec.Expenses = append(rec.Expenses, exp)
		return nil
	})
	return rec, errors.Wrap(err, "add expense")
}

func (s *FileStorage) DeleteExpense(_ context.Context, userID int64, index int) (user.ExpenseRecord, error) {
	var deleted user.ExpenseRecord
	_, err := s.mutate(userID, func(rec *user.Record) error {
		if index < 1 || index > len(rec.Expenses) {
			return customerr.ErrExpenseNotFound
		}
		deleted = rec.Expenses[index-1]
		rec.Expenses = append(rec.Expenses[:index-1], rec.Expenses[index:]...)
		return nil
	})
	if err != nil {
		return user.ExpenseRecord{}, errors.Wrap(err, "delete expense")
	}
	return deleted, nil
}

func (s *FileStorage) SetDailyLimit(_ context.Context, userID int64, limit float64) error {
	_, err := s.mutate(userID, func(rec *user.Record) error {
		rec.DailyLimit = limit
		return nil
	})
	return errors.Wrap(err, "set daily limit")
}

// mutate applies fn to a copy of the user's record, stores it and persists
// the map. On a failed save the previous record is put back.
func (s *FileStorage) mutate(userID int64, fn func(rec *user.Record) error) (user.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.userMap[userID]
	rec := user.NewRecord()
	if existed {
		rec = cloneRecord(prev)
	}
	if err := fn(&rec); err != nil {
		return user.Record{}, err
	}

	s.userMap[userID] = rec
	if err := s.save(); err != nil {
		if existed {
			s.userMap[userID] = prev
		} else {
			delete(s.userMap, userID)
		}
		return user.Record{}, err
	}
	return cloneRecord(rec), nil
}

func cloneRecord(rec user.Record) user.Record {
	exps := make([]user.ExpenseRecord, len(rec.Expenses))
	copy(exps, rec.Expenses)
	rec.Expenses = exps
	return rec
}
