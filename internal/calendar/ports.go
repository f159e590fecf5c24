// Package calendar defines the outbound port for mirroring debt due dates
// into an external calendar.
package calendar

import (
	"context"

	"finwise/internal/core"
)

// EventWriter adds a due-date event for a debt. Implementations are optional;
// the debt lifecycle works without one.
type EventWriter interface {
	AddDueDateEvent(ctx context.Context, d core.Debt) error
}
