package tg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"max.ks1230/budget-bot/internal/model/messages"
)

func Test_replyKeyboard_ShouldKeepMenuLayout(t *testing.T) {
	keyboard := replyKeyboard(messages.MainMenu)

	assert.True(t, keyboard.ResizeKeyboard)
	require.Len(t, keyboard.Keyboard, 2)
	require.Len(t, keyboard.Keyboard[0], 2)
	assert.Equal(t, messages.AddExpenseButton, keyboard.Keyboard[0][0].Text)
	assert.Equal(t, messages.ViewExpensesButton, keyboard.Keyboard[0][1].Text)
	assert.Equal(t, messages.SetDailyLimitButton, keyboard.Keyboard[1][0].Text)
	assert.Equal(t, messages.DeleteExpenseButton, keyboard.Keyboard[1][1].Text)
}
