package messages

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"max.ks1230/budget-bot/internal/entity/alert"
	"max.ks1230/budget-bot/internal/entity/user"
	"max.ks1230/budget-bot/internal/model/storage"
)

const testUser = int64(123)

type testConfig struct{}

func (testConfig) Currency() string         { return "RUB" }
func (testConfig) Location() *time.Location { return time.UTC }

type recordingAlerts struct {
	alerts []alert.LimitAlert
}

func (r *recordingAlerts) NotifyLimitExceeded(_ context.Context, a alert.LimitAlert) error {
	r.alerts = append(r.alerts, a)
	return nil
}

type handlerFixture struct {
	handler *HandlerService
	storage *storage.FileStorage
	alerts  *recordingAlerts
}

func newFixture(t *testing.T) *handlerFixture {
	t.Helper()
	st, err := storage.NewFileStorage(filepath.Join(t.TempDir(), "user_data.json"))
	require.NoError(t, err)

	alerts := &recordingAlerts{}
	h := newHandler(st, alerts, testConfig{})
	h.clock = func() time.Time {
		return time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	}
	return &handlerFixture{handler: h, storage: st, alerts: alerts}
}

func (f *handlerFixture) send(t *testing.T, msg string) []Reply {
	t.Helper()
	replies, err := f.handler.HandleMessage(context.Background(), msg, testUser)
	require.NoError(t, err)
	return replies
}

func (f *handlerFixture) state(t *testing.T) user.State {
	t.Helper()
	st, _, err := f.storage.GetState(context.Background(), testUser)
	require.NoError(t, err)
	return st
}

func (f *handlerFixture) record(t *testing.T) user.Record {
	t.Helper()
	rec, err := f.storage.GetUser(context.Background(), testUser)
	require.NoError(t, err)
	return rec
}

func Test_OnStartCommand_ShouldSendWelcomeWithMenu(t *testing.T) {
	f := newFixture(t)

	replies := f.send(t, "/start")

	require.Len(t, replies, 1)
	assert.Equal(t, welcomeMessage, replies[0].Text)
	assert.Equal(t, MainMenu, replies[0].Menu)

	_, known, err := f.storage.GetState(context.Background(), testUser)
	require.NoError(t, err)
	assert.True(t, known)
	assert.Equal(t, user.StateIdle, f.state(t))
}

func Test_OnStartCommand_ShouldResetPendingState(t *testing.T) {
	f := newFixture(t)
	f.send(t, AddExpenseButton)
	require.Equal(t, user.StateAwaitExpense, f.state(t))

	f.send(t, "/start@budget_bot")

	assert.Equal(t, user.StateIdle, f.state(t))
}

func Test_OnValidExpense_ShouldAppendOneRecord(t *testing.T) {
	cases := []struct {
		input    string
		category string
		amount   float64
	}{
		{"Coffee, 150", "Coffee", 150},
		{"  Taxi home ,  12.5 ", "Taxi home", 12.5},
		{"Books,1e2", "Books", 100},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			f := newFixture(t)
			f.send(t, AddExpenseButton)

			replies := f.send(t, tc.input)

			require.Len(t, replies, 1)
			assert.Equal(t, expenseAddedMessage, replies[0].Text)
			assert.Equal(t, MainMenu, replies[0].Menu)
			assert.Equal(t, user.StateIdle, f.state(t))
			assert.Equal(t, []user.ExpenseRecord{
				{Category: tc.category, Amount: tc.amount, Date: "2024-03-01"},
			}, f.record(t).Expenses)
		})
	}
}

func Test_OnMalformedExpense_ShouldKeepStoreAndState(t *testing.T) {
	inputs := []string{"Coffee 150", "Coffee, abc", "Coffee, 1, 2", ", 150", "Coffee, -5", "Coffee, 0", "Coffee, NaN", ""}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			f := newFixture(t)
			f.send(t, AddExpenseButton)

			replies := f.send(t, input)

			require.Len(t, replies, 1)
			assert.Equal(t, incorrectExpenseMessage, replies[0].Text)
			assert.Equal(t, user.StateAwaitExpense, f.state(t))
			assert.Empty(t, f.record(t).Expenses)
		})
	}
}

func Test_OnPendingExpense_ShouldTreatButtonsAsInput(t *testing.T) {
	f := newFixture(t)
	f.send(t, AddExpenseButton)

	replies := f.send(t, ViewExpensesButton)

	require.Len(t, replies, 1)
	assert.Equal(t, incorrectExpenseMessage, replies[0].Text)
	assert.Equal(t, user.StateAwaitExpense, f.state(t))
}

func Test_OnDailyLimit_ShouldValidateInput(t *testing.T) {
	f := newFixture(t)
	replies := f.send(t, SetDailyLimitButton)
	require.Len(t, replies, 1)
	assert.Equal(t, dailyLimitPrompt, replies[0].Text)
	assert.Equal(t, user.StateAwaitLimit, f.state(t))

	for _, bad := range []string{"hundred", "-1", "Inf"} {
		replies = f.send(t, bad)
		require.Len(t, replies, 1)
		assert.Equal(t, incorrectLimitMessage, replies[0].Text)
		assert.Equal(t, user.StateAwaitLimit, f.state(t))
	}

	replies = f.send(t, " 250.5 ")
	require.Len(t, replies, 1)
	assert.Equal(t, "Daily budget set: 250.5 RUB.", replies[0].Text)
	assert.Equal(t, user.StateIdle, f.state(t))
	assert.Equal(t, 250.5, f.record(t).DailyLimit)
}

func Test_OnViewExpenses_ShouldListWithIndexes(t *testing.T) {
	f := newFixture(t)
	replies := f.send(t, ViewExpensesButton)
	require.Len(t, replies, 1)
	assert.Equal(t, noExpensesMessage, replies[0].Text)

	f.send(t, AddExpenseButton)
	f.send(t, "Coffee, 150")
	f.send(t, AddExpenseButton)
	f.send(t, "Lunch, 60.25")

	replies = f.send(t, ViewExpensesButton)
	require.Len(t, replies, 1)
	assert.Equal(t, "Your expenses:\n1. Coffee (2024-03-01): 150 RUB\n2. Lunch (2024-03-01): 60.25 RUB", replies[0].Text)
	assert.Equal(t, user.StateIdle, f.state(t))
}

func Test_OnDeleteExpense_ShouldSayWhenNothingToDelete(t *testing.T) {
	f := newFixture(t)

	replies := f.send(t, DeleteExpenseButton)

	require.Len(t, replies, 1)
	assert.Equal(t, nothingToDeleteMsg, replies[0].Text)
	assert.Equal(t, user.StateIdle, f.state(t))
}

func Test_OnDeleteIndex_ShouldValidateInput(t *testing.T) {
	f := newFixture(t)
	f.send(t, AddExpenseButton)
	f.send(t, "Coffee, 150")

	replies := f.send(t, DeleteExpenseButton)
	require.Len(t, replies, 1)
	assert.Equal(t, "Your expenses:\n1. Coffee: 150 RUB\nEnter the number of the expense to delete:", replies[0].Text)
	assert.Equal(t, user.StateAwaitDeleteIndex, f.state(t))

	replies = f.send(t, "first")
	assert.Equal(t, indexNotNumberMessage, replies[0].Text)
	assert.Equal(t, user.StateAwaitDeleteIndex, f.state(t))

	for _, idx := range []string{"0", "2", "-1"} {
		replies = f.send(t, idx)
		assert.Equal(t, incorrectIndexMessage, replies[0].Text)
		assert.Equal(t, user.StateAwaitDeleteIndex, f.state(t))
	}
	assert.Len(t, f.record(t).Expenses, 1)

	replies = f.send(t, " 1 ")
	require.Len(t, replies, 1)
	assert.Equal(t, "Expense Coffee: 150 RUB deleted.", replies[0].Text)
	assert.Equal(t, user.StateIdle, f.state(t))
	assert.Empty(t, f.record(t).Expenses)
}

func Test_OnExpenseOverLimit_ShouldWarnOncePerInsertion(t *testing.T) {
	f := newFixture(t)
	f.send(t, SetDailyLimitButton)
	f.send(t, "100")

	f.send(t, AddExpenseButton)
	replies := f.send(t, "Coffee, 100")
	require.Len(t, replies, 1, "sum equal to the limit is not a breach")

	f.send(t, AddExpenseButton)
	replies = f.send(t, "Cake, 1")
	require.Len(t, replies, 2)
	assert.Equal(t, "Warning! You have exceeded your daily budget: 100 RUB.\nYour spending today: 101 RUB.", replies[0].Text)
	assert.Nil(t, replies[0].Menu)
	assert.Equal(t, expenseAddedMessage, replies[1].Text)

	f.send(t, AddExpenseButton)
	replies = f.send(t, "Tea, 2")
	require.Len(t, replies, 2)

	resetAt := time.Date(2024, 3, 1, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	assert.Equal(t, []alert.LimitAlert{
		{UserID: testUser, DailyLimit: 100, Spent: 101, Date: "2024-03-01", ResetAt: resetAt},
		{UserID: testUser, DailyLimit: 100, Spent: 103, Date: "2024-03-01", ResetAt: resetAt},
	}, f.alerts.alerts)
}

func Test_OnExpenseOverLimit_ShouldCountOnlyToday(t *testing.T) {
	f := newFixture(t)
	_, err := f.storage.AddExpense(context.Background(), testUser,
		user.ExpenseRecord{Category: "Rent", Amount: 5000, Date: "2024-02-29"})
	require.NoError(t, err)
	f.send(t, SetDailyLimitButton)
	f.send(t, "100")

	f.send(t, AddExpenseButton)
	replies := f.send(t, "Coffee, 50")

	require.Len(t, replies, 1)
	assert.Empty(t, f.alerts.alerts)
}

func Test_OnExpenseInLocalZone_ShouldUseLocalDay(t *testing.T) {
	f := newFixture(t)
	loc := time.FixedZone("UTC+3", 3*60*60)
	f.handler.location = loc
	f.send(t, SetDailyLimitButton)
	f.send(t, "10")

	f.send(t, AddExpenseButton)
	f.send(t, "Taxi, 20")

	rec := f.record(t)
	require.Len(t, rec.Expenses, 1)
	assert.Equal(t, "2024-03-02", rec.Expenses[0].Date)
	require.Len(t, f.alerts.alerts, 1)
	assert.Equal(t, "2024-03-02", f.alerts.alerts[0].Date)
	assert.True(t, f.alerts.alerts[0].ResetAt.Equal(time.Date(2024, 3, 2, 23, 59, 59, int(time.Second-time.Nanosecond), loc)))
}

type failingStateStorage struct {
	*storage.FileStorage
}

func (failingStateStorage) SetState(context.Context, int64, user.State) error {
	return errors.New("disk is full")
}

func Test_OnStateResetFailure_ShouldKeepExpenseReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.storage.SetDailyLimit(ctx, testUser, 100))
	require.NoError(t, f.storage.SetState(ctx, testUser, user.StateAwaitExpense))
	f.handler.storage = failingStateStorage{f.storage}

	replies, err := f.handler.HandleMessage(ctx, "Dinner, 150", testUser)

	assert.Error(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "Warning! You have exceeded your daily budget: 100 RUB.\nYour spending today: 150 RUB.", replies[0].Text)
	assert.Equal(t, expenseAddedMessage, replies[1].Text)
	assert.Len(t, f.record(t).Expenses, 1)
	assert.Len(t, f.alerts.alerts, 1)
}

func Test_OnUnknownText_ShouldShowMenu(t *testing.T) {
	f := newFixture(t)

	replies := f.send(t, "hello")

	require.Len(t, replies, 1)
	assert.Equal(t, pickActionMessage, replies[0].Text)
	assert.Equal(t, MainMenu, replies[0].Menu)
}

func Test_Scenario_FullConversation(t *testing.T) {
	f := newFixture(t)

	replies := f.send(t, "/start")
	require.Len(t, replies, 1)
	assert.Equal(t, MainMenu, replies[0].Menu)
	assert.Equal(t, user.StateIdle, f.state(t))

	replies = f.send(t, AddExpenseButton)
	assert.Equal(t, addExpensePrompt, replies[0].Text)
	assert.Equal(t, user.StateAwaitExpense, f.state(t))

	replies = f.send(t, "Coffee, 150")
	require.Len(t, replies, 1)
	assert.Equal(t, expenseAddedMessage, replies[0].Text)
	assert.Equal(t, user.StateIdle, f.state(t))
	assert.Equal(t, []user.ExpenseRecord{{Category: "Coffee", Amount: 150, Date: "2024-03-01"}}, f.record(t).Expenses)

	f.send(t, SetDailyLimitButton)
	assert.Equal(t, user.StateAwaitLimit, f.state(t))
	replies = f.send(t, "100")
	assert.Equal(t, "Daily budget set: 100 RUB.", replies[0].Text)
	assert.Equal(t, 100.0, f.record(t).DailyLimit)
	assert.Equal(t, user.StateIdle, f.state(t))

	f.send(t, AddExpenseButton)
	replies = f.send(t, "Lunch, 60")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0].Text, "100")
	assert.Contains(t, replies[0].Text, "210")

	replies = f.send(t, DeleteExpenseButton)
	assert.Contains(t, replies[0].Text, "1. Coffee: 150 RUB\n2. Lunch: 60 RUB")
	replies = f.send(t, "1")
	assert.Equal(t, "Expense Coffee: 150 RUB deleted.", replies[0].Text)
	assert.Equal(t, []user.ExpenseRecord{{Category: "Lunch", Amount: 60, Date: "2024-03-01"}}, f.record(t).Expenses)
}
