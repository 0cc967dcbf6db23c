package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	// postgres driver
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/budget-bot/internal/entity/user"
	"max.ks1230/budget-bot/internal/logger"
	"max.ks1230/budget-bot/internal/model/customerr"
)

const dsnTemplate = "user=%s password=%s host=%s dbname=%s sslmode=disable"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type config interface {
	Host() string
	Username() string
	Password() string
	Database() string
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config config) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", fmt.Sprintf(dsnTemplate,
		config.Username(),
		config.Password(),
		config.Host(),
		config.Database()))
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	return &PostgresStorage{db}, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) GetUser(ctx context.Context, userID int64) (user.Record, error) {
	res, known, err := s.getUserRow(ctx, userID)
	if err != nil {
		return user.Record{}, errors.Wrap(err, "get user")
	}
	if !known {
		return user.NewRecord(), nil
	}

	query := psql.Select("category", "amount", "spent_on").
		From("expenses").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return user.Record{}, errors.Wrap(err, "get expenses")
	}
	defer func() {
		rowErr := rows.Close()
		if rowErr != nil {
			logger.Error("error closing rows", zap.Error(rowErr))
		}
	}()

	for rows.Next() {
		var (
			e       user.ExpenseRecord
			spentOn time.Time
		)
		if err = rows.Scan(&e.Category, &e.Amount, &spentOn); err != nil {
			return user.Record{}, errors.Wrap(err, "get expenses")
		}
		e.Date = spentOn.Format(user.DateLayout)
		res.Expenses = append(res.Expenses, e)
	}
	if err = rows.Err(); err != nil {
		return user.Record{}, errors.Wrap(err, "get expenses")
	}
	return res, nil
}

func (s *PostgresStorage) GetState(ctx context.Context, userID int64) (user.State, bool, error) {
	rec, known, err := s.getUserRow(ctx, userID)
	if err != nil {
		return user.StateIdle, false, errors.Wrap(err, "get state")
	}
	return rec.State, known, nil
}

func (s *PostgresStorage) SetState(ctx context.Context, userID int64, state user.State) error {
	var name sql.NullString
	if state != user.StateIdle {
		name = sql.NullString{String: state.String(), Valid: true}
	}
	query := psql.Insert("users").
		Columns("id", "state", "updated_at").
		Values(userID, name, time.Now()).
		Suffix("ON CONFLICT(id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at")

	_, err := query.RunWith(s.db).ExecContext(ctx)
	return errors.Wrap(err, "set state")
}

func (s *PostgresStorage) SetDailyLimit(ctx context.Context, userID int64, limit float64) error {
	query := psql.Insert("users").
		Columns("id", "daily_limit", "updated_at").
		Values(userID, limit, time.Now()).
		Suffix("ON CONFLICT(id) DO UPDATE SET daily_limit = EXCLUDED.daily_limit, updated_at = EXCLUDED.updated_at")

	_, err := query.RunWith(s.db).ExecContext(ctx)
	return errors.Wrap(err, "set daily limit")
}

func (s *PostgresStorage) AddExpense(ctx context.Context, userID int64, rec user.ExpenseRecord) (user.Record, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		ensure := psql.Insert("users").
			Columns("id", "updated_at").
			Values(userID, time.Now()).
			Suffix("ON CONFLICT(id) DO NOTHING")
		if _, err := ensure.RunWith(tx).ExecContext(ctx); err != nil {
			return err
		}

		insert := psql.Insert("expenses").
			Columns("user_id", "category", "amount", "spent_on").
			Values(userID, rec.Category, rec.Amount, rec.Date)
		_, err := insert.RunWith(tx).ExecContext(ctx)
		return err
	})
	if err != nil {
		return user.Record{}, errors.Wrap(err, "add expense")
	}
	return s.GetUser(ctx, userID)
}

func (s *PostgresStorage) DeleteExpense(ctx context.Context, userID int64, index int) (user.ExpenseRecord, error) {
	if index < 1 {
		return user.ExpenseRecord{}, errors.Wrap(customerr.ErrExpenseNotFound, "delete expense")
	}

	var deleted user.ExpenseRecord
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		query := psql.Select("id", "category", "amount", "spent_on").
			From("expenses").
			Where(sq.Eq{"user_id": userID}).
			OrderBy("id").
			Offset(uint64(index - 1)).
			Limit(1).
			Suffix("FOR UPDATE")

		var (
			id      int64
			spentOn time.Time
		)
		err := query.RunWith(tx).QueryRowContext(ctx).
			Scan(&id, &deleted.Category, &deleted.Amount, &spentOn)
		if errors.Is(err, sql.ErrNoRows) {
			return customerr.ErrExpenseNotFound
		}
		if err != nil {
			return err
		}
		deleted.Date = spentOn.Format(user.DateLayout)

		_, err = psql.Delete("expenses").
			Where(sq.Eq{"id": id}).
			RunWith(tx).
			ExecContext(ctx)
		return err
	})
	if err != nil {
		return user.ExpenseRecord{}, errors.Wrap(err, "delete expense")
	}
	return deleted, nil
}

func (s *PostgresStorage) getUserRow(ctx context.Context, userID int64) (user.Record, bool, error) {
	var (
		res   = user.NewRecord()
		state sql.NullString
	)
	err := psql.Select("daily_limit", "state").
		From("users").
		Where(sq.Eq{"id": userID}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&res.DailyLimit, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return res, false, nil
	}
	if err != nil {
		return user.Record{}, false, err
	}

	res.State, err = user.ParseState(state.String)
	if err != nil {
		return user.Record{}, false, err
	}
	return res, true, nil
}

func (s *PostgresStorage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		txErr := tx.Rollback()
		if txErr != nil && !errors.Is(txErr, sql.ErrTxDone) {
			logger.Error("error when transaction rollback", zap.Error(txErr))
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
