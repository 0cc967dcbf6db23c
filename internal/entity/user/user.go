package user

import (
	"encoding/json"
	"fmt"
)

// DateLayout is the calendar day format stored with every expense.
const DateLayout = "2006-01-02"

type ExpenseRecord struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
}

type Record struct {
	Expenses   []ExpenseRecord `json:"expenses"`
	DailyLimit float64         `json:"daily_limit"`
	State      State           `json:"state"`
}

func NewRecord() Record {
	return Record{Expenses: make([]ExpenseRecord, 0)}
}

// SpentOn sums the amounts of expenses recorded on the given day.
func (r *Record) SpentOn(date string) float64 {
	total := 0.0
	for _, exp := range r.Expenses {
		if exp.Date == date {
			total += exp.Amount
		}
	}
	return total
}

// LimitExceeded reports whether spending on date is above a set daily limit.
func (r *Record) LimitExceeded(date string) (bool, float64) {
	spent := r.SpentOn(date)
	return r.DailyLimit > 0 && spent > r.DailyLimit, spent
}

// State tells which free-text prompt is waiting for the user's reply.
type State int

const (
	StateIdle State = iota
	StateAwaitExpense
	StateAwaitLimit
	StateAwaitDeleteIndex
)

var stateNames = map[State]string{
	StateAwaitExpense:     "add_expense",
	StateAwaitLimit:       "set_daily_limit",
	StateAwaitDeleteIndex: "delete_expense",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "idle"
}

func (s State) MarshalJSON() ([]byte, error) {
	if s == StateIdle {
		return []byte("null"), nil
	}
	name, ok := stateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown state %d", int(s))
	}
	return json.Marshal(name)
}

func (s *State) UnmarshalJSON(data []byte) error {
	var name *string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if name == nil {
		*s = StateIdle
		return nil
	}
	st, err := ParseState(*name)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseState maps a stored state name back to its State. The empty name is idle.
func ParseState(name string) (State, error) {
	if name == "" {
		return StateIdle, nil
	}
	for st, n := range stateNames {
		if n == name {
			return st, nil
		}
	}
	return StateIdle, fmt.Errorf("unknown state %q", name)
}
