package messages

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/budget-bot/internal/entity/alert"
	"max.ks1230/budget-bot/internal/entity/user"
	"max.ks1230/budget-bot/internal/logger"
	"max.ks1230/budget-bot/internal/model/customerr"
)

const (
	welcomeMessage    = "Welcome to the budget bot!\nPick an action with the buttons below."
	pickActionMessage = "Pick an action with the buttons below."

	addExpensePrompt  = "Enter the expense as: category, amount"
	dailyLimitPrompt  = "Enter your daily budget (amount):"
	deleteIndexPrompt = "Your expenses:\n%s\nEnter the number of the expense to delete:"

	expenseAddedMessage   = "Expense added!"
	dailyLimitSetMessage  = "Daily budget set: %s %s."
	expenseDeletedMessage = "Expense %s: %s %s deleted."
	expensesMessage       = "Your expenses:\n%s"
	noExpensesMessage     = "You have no expenses yet."
	nothingToDeleteMsg    = "You have no expenses to delete."
	limitExceededMessage  = "Warning! You have exceeded your daily budget: %s %s.\nYour spending today: %s %s."

	incorrectExpenseMessage = "Error! Make sure you enter the expense as: category, amount."
	incorrectLimitMessage   = "Error! Enter the daily budget as a number."
	incorrectIndexMessage   = "Error! Invalid expense number."
	indexNotNumberMessage   = "Error! Enter the expense number as a number."
)

const startCommand = "/start"

const (
	AddExpenseButton    = "Add expense"
	ViewExpensesButton  = "View expenses"
	SetDailyLimitButton = "Set daily budget"
	DeleteExpenseButton = "Delete expense"
)

// MainMenu is the reply keyboard attached to welcome and completion messages.
var MainMenu = Menu{
	{AddExpenseButton, ViewExpensesButton},
	{SetDailyLimitButton, DeleteExpenseButton},
}

type userStorage interface {
	GetUser(ctx context.Context, userID int64) (user.Record, error)
	GetState(ctx context.Context, userID int64) (user.State, bool, error)
	SetState(ctx context.Context, userID int64, state user.State) error
	AddExpense(ctx context.Context, userID int64, exp user.ExpenseRecord) (user.Record, error)
	DeleteExpense(ctx context.Context, userID int64, index int) (user.ExpenseRecord, error)
	SetDailyLimit(ctx context.Context, userID int64, limit float64) error
}

type alertNotifier interface {
	NotifyLimitExceeded(ctx context.Context, a alert.LimitAlert) error
}

type config interface {
	Currency() string
	Location() *time.Location
}

type handler func(ctx context.Context, text string, userID int64) ([]Reply, error)

type handlerMap map[string]handler

type stateHandlerMap map[user.State]handler

type HandlerService struct {
	buttons  handlerMap
	pending  stateHandlerMap
	storage  userStorage
	alerts   alertNotifier
	currency string
	location *time.Location
	clock    func() time.Time
}

func newHandler(storage userStorage, alerts alertNotifier, config config) *HandlerService {
	res := &HandlerService{
		storage:  storage,
		alerts:   alerts,
		currency: config.Currency(),
		location: config.Location(),
		clock:    time.Now,
	}
	res.buttons = newButtonMap(res)
	res.pending = newStateMap(res)
	return res
}

func newButtonMap(s *HandlerService) handlerMap {
	m := make(handlerMap)
	m[AddExpenseButton] = s.handleAddExpense
	m[ViewExpensesButton] = s.handleViewExpenses
	m[SetDailyLimitButton] = s.handleSetDailyLimit
	m[DeleteExpenseButton] = s.handleDeleteExpense
	return m
}

func newStateMap(s *HandlerService) stateHandlerMap {
	m := make(stateHandlerMap)
	m[user.StateAwaitExpense] = s.processExpense
	m[user.StateAwaitLimit] = s.processDailyLimit
	m[user.StateAwaitDeleteIndex] = s.processDeleteExpense
	return m
}

// HandleMessage routes one message: /start always wins, a pending prompt
// consumes any other text, and only an idle user can press menu buttons.
func (s *HandlerService) HandleMessage(ctx context.Context, text string, userID int64) ([]Reply, error) {
	if cmd, _ := parseCommand(text); cmd == startCommand {
		return s.handleStart(ctx, text, userID)
	}

	state, _, err := s.storage.GetState(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "handle message")
	}

	if h, ok := s.pending[state]; ok {
		return h(ctx, text, userID)
	}
	if h, ok := s.buttons[strings.TrimSpace(text)]; ok {
		return h(ctx, text, userID)
	}
	return s.handleNoCommand(ctx, text, userID)
}

func (s *HandlerService) handleStart(ctx context.Context, _ string, userID int64) ([]Reply, error) {
	if err := s.storage.SetState(ctx, userID, user.StateIdle); err != nil {
		return nil, errors.Wrap(err, "handle start")
	}
	logger.Info("user started conversation", zap.Int64("userID", userID))
	return []Reply{withMenu(welcomeMessage)}, nil
}

func (s *HandlerService) handleNoCommand(_ context.Context, _ string, _ int64) ([]Reply, error) {
	return []Reply{withMenu(pickActionMessage)}, nil
}

func (s *HandlerService) handleAddExpense(ctx context.Context, _ string, userID int64) ([]Reply, error) {
	if err := s.storage.SetState(ctx, userID, user.StateAwaitExpense); err != nil {
		return nil, errors.Wrap(err, "handle add expense")
	}
	logger.Info("user chose to add expense", zap.Int64("userID", userID))
	return []Reply{plain(addExpensePrompt)}, nil
}

func (s *HandlerService) handleSetDailyLimit(ctx context.Context, _ string, userID int64) ([]Reply, error) {
	if err := s.storage.SetState(ctx, userID, user.StateAwaitLimit); err != nil {
		return nil, errors.Wrap(err, "handle set daily limit")
	}
	logger.Info("user chose to set daily limit", zap.Int64("userID", userID))
	return []Reply{plain(dailyLimitPrompt)}, nil
}

func (s *HandlerService) handleViewExpenses(ctx context.Context, _ string, userID int64) ([]Reply, error) {
	if err := s.storage.SetState(ctx, userID, user.StateIdle); err != nil {
		return nil, errors.Wrap(err, "handle view expenses")
	}
	rec, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "handle view expenses")
	}

	logger.Info("user requested expenses", zap.Int64("userID", userID), zap.Int("count", len(rec.Expenses)))
	if len(rec.Expenses) == 0 {
		return []Reply{plain(noExpensesMessage)}, nil
	}
	report := formatExpenses(rec.Expenses, s.currency, true)
	return []Reply{plain(fmt.Sprintf(expensesMessage, report))}, nil
}

func (s *HandlerService) handleDeleteExpense(ctx context.Context, _ string, userID int64) ([]Reply, error) {
	rec, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "handle delete expense")
	}

	if len(rec.Expenses) == 0 {
		if err = s.storage.SetState(ctx, userID, user.StateIdle); err != nil {
			return nil, errors.Wrap(err, "handle delete expense")
		}
		return []Reply{plain(nothingToDeleteMsg)}, nil
	}

	if err = s.storage.SetState(ctx, userID, user.StateAwaitDeleteIndex); err != nil {
		return nil, errors.Wrap(err, "handle delete expense")
	}
	logger.Info("user chose to delete expense", zap.Int64("userID", userID))
	report := formatExpenses(rec.Expenses, s.currency, false)
	return []Reply{plain(fmt.Sprintf(deleteIndexPrompt, report))}, nil
}

func (s *HandlerService) processExpense(ctx context.Context, msg string, userID int64) ([]Reply, error) {
	category, amount, err := parseExpense(msg)
	if err != nil {
		logger.Debug("bad expense input", zap.Int64("userID", userID), zap.Error(err))
		return []Reply{plain(incorrectExpenseMessage)}, nil
	}

	local := s.localNow()
	today := local.Format(user.DateLayout)
	rec, err := s.storage.AddExpense(ctx, userID, user.ExpenseRecord{
		Category: category,
		Amount:   amount,
		Date:     today,
	})
	if err != nil {
		return nil, errors.Wrap(err, "process expense")
	}
	observeExpenseSaved()
	logger.Info("user added expense",
		zap.Int64("userID", userID),
		zap.String("category", category),
		zap.Float64("amount", amount))

	replies := make([]Reply, 0, 2)
	if exceeded, spent := rec.LimitExceeded(today); exceeded {
		replies = append(replies, plain(fmt.Sprintf(limitExceededMessage,
			formatAmount(rec.DailyLimit), s.currency, formatAmount(spent), s.currency)))
		s.notifyLimitExceeded(ctx, alert.LimitAlert{
			UserID:     userID,
			DailyLimit: rec.DailyLimit,
			Spent:      spent,
			Date:       today,
			ResetAt:    now.With(local).EndOfDay(),
		})
	}

	// the expense is stored even when the state reset fails
	if err = s.storage.SetState(ctx, userID, user.StateIdle); err != nil {
		return append(replies, plain(expenseAddedMessage)), errors.Wrap(err, "process expense")
	}
	return append(replies, withMenu(expenseAddedMessage)), nil
}

func (s *HandlerService) processDailyLimit(ctx context.Context, msg string, userID int64) ([]Reply, error) {
	limit, err := parseLimit(msg)
	if err != nil {
		logger.Debug("bad limit input", zap.Int64("userID", userID), zap.Error(err))
		return []Reply{plain(incorrectLimitMessage)}, nil
	}

	if err = s.storage.SetDailyLimit(ctx, userID, limit); err != nil {
		return nil, errors.Wrap(err, "process daily limit")
	}
	if err = s.storage.SetState(ctx, userID, user.StateIdle); err != nil {
		return nil, errors.Wrap(err, "process daily limit")
	}
	logger.Info("user set daily limit", zap.Int64("userID", userID), zap.Float64("limit", limit))
	return []Reply{withMenu(fmt.Sprintf(dailyLimitSetMessage, formatAmount(limit), s.currency))}, nil
}

func (s *HandlerService) processDeleteExpense(ctx context.Context, msg string, userID int64) ([]Reply, error) {
	index, err := strconv.Atoi(strings.TrimSpace(msg))
	if err != nil {
		return []Reply{plain(indexNotNumberMessage)}, nil
	}

	deleted, err := s.storage.DeleteExpense(ctx, userID, index)
	if errors.Is(err, customerr.ErrExpenseNotFound) {
		return []Reply{plain(incorrectIndexMessage)}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "process delete expense")
	}

	if err = s.storage.SetState(ctx, userID, user.StateIdle); err != nil {
		return nil, errors.Wrap(err, "process delete expense")
	}
	logger.Info("user deleted expense",
		zap.Int64("userID", userID),
		zap.String("category", deleted.Category),
		zap.Float64("amount", deleted.Amount))
	return []Reply{withMenu(fmt.Sprintf(expenseDeletedMessage,
		deleted.Category, formatAmount(deleted.Amount), s.currency))}, nil
}

func (s *HandlerService) notifyLimitExceeded(ctx context.Context, a alert.LimitAlert) {
	observeLimitExceeded()
	logger.Warn("user exceeded daily limit",
		zap.Int64("userID", a.UserID),
		zap.Float64("spent", a.Spent),
		zap.Float64("limit", a.DailyLimit))

	if err := s.alerts.NotifyLimitExceeded(ctx, a); err != nil {
		logger.Error("failed to publish limit alert", zap.Int64("userID", a.UserID), zap.Error(err))
	}
}

func (s *HandlerService) localNow() time.Time {
	return s.clock().In(s.location)
}
