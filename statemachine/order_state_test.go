package statemachine

import (
	"testing"

	"bar-order-api/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionIsPermissive(t *testing.T) {
	cases := []struct {
		from, to models.OrderStatus
	}{
		{models.StatusPending, models.StatusCompleted},
		{models.StatusPending, models.StatusCancelled},
		{models.StatusCompleted, models.StatusCancelled},
		{models.StatusCancelled, models.StatusCompleted},
		{models.StatusCancelled, models.StatusPending},
		{models.StatusCancelled, models.StatusCancelled},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.NoError(t, CanTransition(tc.from, tc.to))
		})
	}
}

func TestCanTransitionRejectsUnknownStatus(t *testing.T) {
	err := CanTransition(models.StatusPending, "SHIPPED")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "PENDING, COMPLETED, CANCELLED")
	}
	assert.Error(t, CanTransition("", models.StatusPending))
}

func TestValidTransitionsFrom(t *testing.T) {
	assert.ElementsMatch(t,
		[]models.OrderStatus{models.StatusCompleted, models.StatusCancelled},
		ValidTransitionsFrom(models.StatusPending))
	assert.Len(t, GetAllTransitions(), 6)
}
