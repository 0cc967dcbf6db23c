package customerr

import "errors"

// ErrExpenseNotFound is returned when a delete index points outside the user's expenses.
var ErrExpenseNotFound = errors.New("expense not found")
