package messages

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"max.ks1230/budget-bot/internal/entity/user"
)

const (
	commandParts = 2
	expenseParts = 2
)

var (
	errExpenseFormat = errors.New("expense must look like: category, amount")
	errAmountFormat  = errors.New("amount must be a number")
)

func parseCommand(text string) (cmd, arg string) {
	text = strings.TrimSpace(text)
	split := strings.SplitN(text, " ", commandParts)

	if len(split) == commandParts {
		return stripBotName(split[0]), split[1]
	}
	if strings.HasPrefix(text, "/") {
		return stripBotName(text), ""
	}
	return "", text
}

// stripBotName turns "/start@my_bot" into "/start".
func stripBotName(cmd string) string {
	if i := strings.Index(cmd, "@"); i > 0 && strings.HasPrefix(cmd, "/") {
		return cmd[:i]
	}
	return cmd
}

// parseExpense splits "<category>, <amount>" on the first comma.
func parseExpense(text string) (string, float64, error) {
	parts := strings.SplitN(text, ",", expenseParts)
	if len(parts) != expenseParts {
		return "", 0, errExpenseFormat
	}
	category := strings.TrimSpace(parts[0])
	if category == "" {
		return "", 0, errExpenseFormat
	}
	amount, err := parseAmount(parts[1])
	if err != nil {
		return "", 0, errors.Wrap(err, "parse expense")
	}
	if amount <= 0 {
		return "", 0, errors.Wrap(errAmountFormat, "amount must be positive")
	}
	return category, amount, nil
}

func parseLimit(text string) (float64, error) {
	limit, err := parseAmount(text)
	if err != nil {
		return 0, errors.Wrap(err, "parse limit")
	}
	if limit < 0 {
		return 0, errors.Wrap(errAmountFormat, "limit must not be negative")
	}
	return limit, nil
}

func parseAmount(text string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, errAmountFormat
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, errAmountFormat
	}
	return amount, nil
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func formatExpenses(exps []user.ExpenseRecord, currency string, withDate bool) string {
	lines := make([]string, 0, len(exps))
	for i, exp := range exps {
		if withDate {
			lines = append(lines, fmt.Sprintf("%d. %s (%s): %s %s",
				i+1, exp.Category, exp.Date, formatAmount(exp.Amount), currency))
		} else {
			lines = append(lines, fmt.Sprintf("%d. %s: %s %s",
				i+1, exp.Category, formatAmount(exp.Amount), currency))
		}
	}
	return strings.Join(lines, "\n")
}
