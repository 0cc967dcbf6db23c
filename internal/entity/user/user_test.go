package user

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LimitExceeded_ShouldCountOnlyGivenDay(t *testing.T) {
	rec := Record{
		DailyLimit: 100,
		Expenses: []ExpenseRecord{
			{Category: "Coffee", Amount: 150, Date: "2024-03-01"},
			{Category: "Lunch", Amount: 60, Date: "2024-03-02"},
		},
	}

	exceeded, spent := rec.LimitExceeded("2024-03-02")
	assert.False(t, exceeded)
	assert.Equal(t, 60.0, spent)

	exceeded, spent = rec.LimitExceeded("2024-03-01")
	assert.True(t, exceeded)
	assert.Equal(t, 150.0, spent)
}

func Test_LimitExceeded_ShouldIgnoreUnsetLimit(t *testing.T) {
	rec := Record{Expenses: []ExpenseRecord{{Category: "Rent", Amount: 1000, Date: "2024-03-01"}}}

	exceeded, _ := rec.LimitExceeded("2024-03-01")
	assert.False(t, exceeded)
}

func Test_LimitExceeded_ShouldNotTriggerOnEqualSum(t *testing.T) {
	rec := Record{
		DailyLimit: 100,
		Expenses:   []ExpenseRecord{{Category: "Taxi", Amount: 100, Date: "2024-03-01"}},
	}

	exceeded, _ := rec.LimitExceeded("2024-03-01")
	assert.False(t, exceeded)
}

func Test_State_ShouldKeepLegacyJSONNames(t *testing.T) {
	cases := map[State]string{
		StateIdle:             "null",
		StateAwaitExpense:     `"add_expense"`,
		StateAwaitLimit:       `"set_daily_limit"`,
		StateAwaitDeleteIndex: `"delete_expense"`,
	}
	for st, raw := range cases {
		data, err := json.Marshal(st)
		require.NoError(t, err)
		assert.Equal(t, raw, string(data))

		var decoded State
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
		assert.Equal(t, st, decoded)
	}
}

func Test_State_ShouldRejectUnknownName(t *testing.T) {
	var st State
	err := json.Unmarshal([]byte(`"add_expens"`), &st)
	assert.Error(t, err)
}

func Test_Record_ShouldDecodeLegacyLayout(t *testing.T) {
	raw := `{"expenses": [{"category": "Coffee", "amount": 150.0, "date": "2024-03-01"}], "daily_limit": 0, "state": null}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, StateIdle, rec.State)
	assert.Equal(t, []ExpenseRecord{{Category: "Coffee", Amount: 150, Date: "2024-03-01"}}, rec.Expenses)
}
