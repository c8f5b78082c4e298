package statemachine

import (
	"errors"
	"strings"

	"bar-order-api/models"
)

// Transition defines a status change and the operation that performs it
type Transition struct {
	From   models.OrderStatus `json:"from"`
	To     models.OrderStatus `json:"to"`
	Action string             `json:"action"` // "complete_order", "cancel_order", "update"
}

var statuses = []models.OrderStatus{
	models.StatusPending,
	models.StatusCompleted,
	models.StatusCancelled,
}

// validTransitions is the authoritative state machine definition.
// Bar staff may move an order from any status to any other: completing a
// cancelled order or cancelling a completed one is allowed.
var validTransitions = func() []Transition {
	var ts []Transition
	for _, from := range statuses {
		for _, to := range statuses {
			if from == to {
				continue
			}
			ts = append(ts, Transition{From: from, To: to, Action: actionFor(to)})
		}
	}
	return ts
}()

func actionFor(to models.OrderStatus) string {
	switch to {
	case models.StatusCompleted:
		return "complete_order"
	case models.StatusCancelled:
		return "cancel_order"
	}
	return "update"
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks that both ends are known statuses. Repeating the
// current status is accepted as a no-op.
func CanTransition(from, to models.OrderStatus) error {
	if !from.Valid() {
		return errors.New("unknown current status '" + string(from) + "'")
	}
	if !to.Valid() {
		return errors.New("unknown status '" + string(to) + "'. Valid statuses are: " + describeStatuses())
	}
	return nil
}

func describeStatuses() string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
