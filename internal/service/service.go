package service

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrValidation is wrapped by every input validation error so the HTTP layer
// can answer 400 without knowing each case.
var ErrValidation = errors.New("validation failed")

// DashboardInvalidator drops cached aggregates after a user's data changed.
type DashboardInvalidator interface {
	Invalidate(userID primitive.ObjectID)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(primitive.ObjectID) {}

func invalidatorOrNoop(inv DashboardInvalidator) DashboardInvalidator {
	if inv == nil {
		return noopInvalidator{}
	}
	return inv
}

// clampLimit applies the default when limit is not positive and caps it at max.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
