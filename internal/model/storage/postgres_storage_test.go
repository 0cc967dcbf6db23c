package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"max.ks1230/budget-bot/internal/model/customerr"
)

func Test_PostgresDeleteExpense_ShouldRejectIndexBelowOne(t *testing.T) {
	s := &PostgresStorage{}

	for _, index := range []int{0, -1} {
		_, err := s.DeleteExpense(context.Background(), 1, index)
		assert.ErrorIs(t, err, customerr.ErrExpenseNotFound)
	}
}
