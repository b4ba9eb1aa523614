// Package cutoff decides whether a submission beat its deadline. Two modes
// exist: comparing the submission instant against a per-request deadline, or
// comparing the local hour against one fixed daily cutoff hour. In both, the
// boundary counts as missed: WITHIN requires strictly before.
package cutoff

import (
	"fmt"
	"time"

	"paygate/internal/domain"
)

// Mode selects the evaluation strategy.
type Mode string

const (
	// ModeDeadline compares the submission instant with the request's own
	// deadline instant.
	ModeDeadline Mode = "deadline"
	// ModeDailyHour compares the submission's local hour with a fixed
	// cutoff hour.
	ModeDailyHour Mode = "daily-hour"
)

// Evaluator applies one configured cutoff strategy.
type Evaluator struct {
	mode Mode
	hour int
}

// NewDeadline builds an evaluator for per-request deadlines.
func NewDeadline() *Evaluator {
	return &Evaluator{mode: ModeDeadline}
}

// NewDailyHour builds an evaluator for a fixed daily cutoff hour (0-23).
func NewDailyHour(hour int) (*Evaluator, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("cutoff hour %d out of range", hour)
	}
	return &Evaluator{mode: ModeDailyHour, hour: hour}, nil
}

// Mode reports the configured strategy.
func (e *Evaluator) Mode() Mode { return e.mode }

// Evaluate returns WITHIN only when the submission is strictly before the
// cutoff. In deadline mode the deadline argument is the request's deadline
// instant; in daily-hour mode it is ignored.
func (e *Evaluator) Evaluate(submission, deadline time.Time) domain.CutoffStatus {
	switch e.mode {
	case ModeDailyHour:
		if submission.Hour() < e.hour {
			return domain.CutoffWithin
		}
		return domain.CutoffMissed
	default:
		if submission.Before(deadline) {
			return domain.CutoffWithin
		}
		return domain.CutoffMissed
	}
}
