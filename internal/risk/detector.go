// Package risk classifies incoming payment requests against the existing
// request population. The rule ordering is load-bearing: a duplicate against
// a settled bill is fraud review, a mere recency match is routine duplicate
// review, and the former must win when both apply.
package risk

import (
	"time"

	"paygate/internal/domain"
)

// similarityWindow is the trailing window (inclusive) for the vendor+amount
// recency rule.
const similarityWindow = 30 * 24 * time.Hour

// Candidate carries the attributes a classification needs. It is a subset of
// domain.PaymentRequest so the detector can run before an ID is assigned.
type Candidate struct {
	VendorName string
	BillNumber string
	Amount     int64
}

// Detector assigns risk level and initial status. The clock is injectable so
// the recency window is deterministic under test.
type Detector struct {
	now func() time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		if now != nil {
			d.now = now
		}
	}
}

func New(opts ...Option) *Detector {
	d := &Detector{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Classify returns the risk level and initial status for a candidate given
// the prior request population and whether its cutoff was already missed at
// submission time. Rules are evaluated in strict priority order; the first
// match wins:
//
//  1. settled duplicate (same vendor, same non-empty bill)  -> HIGH, SIMILAR_EXISTS
//  2. cutoff already missed                                 -> HIGH, REQUEST_CUTOFF_MISSED
//  3. same vendor+amount within the trailing 30 days        -> MEDIUM, SIMILAR_EXISTS
//  4. default                                               -> LOW, NEW
//
// Classify is deterministic: the same candidate and population always yield
// the same pair.
func (d *Detector) Classify(candidate Candidate, prior []domain.PaymentRequest, cutoffMissed bool) (domain.RiskLevel, domain.Status) {
	for _, r := range prior {
		if r.VendorName == candidate.VendorName &&
			r.BillNumber == candidate.BillNumber &&
			r.BillNumber != "" &&
			r.Status == domain.StatusSettled {
			return domain.RiskHigh, domain.StatusSimilarExists
		}
	}

	if cutoffMissed {
		return domain.RiskHigh, domain.StatusRequestCutoffMissed
	}

	horizon := d.now().Add(-similarityWindow)
	for _, r := range prior {
		if r.VendorName == candidate.VendorName &&
			r.Amount == candidate.Amount &&
			!r.Timestamp.Before(horizon) {
			return domain.RiskMedium, domain.StatusSimilarExists
		}
	}

	return domain.RiskLow, domain.StatusNew
}
