package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"paygate/internal/domain"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestDetector() *Detector {
	return New(WithClock(func() time.Time { return testNow }))
}

func priorRequest(vendor, bill string, amount int64, status domain.Status, age time.Duration) domain.PaymentRequest {
	return domain.PaymentRequest{
		ID:         "prior",
		VendorName: vendor,
		BillNumber: bill,
		Amount:     amount,
		Status:     status,
		Timestamp:  testNow.Add(-age),
	}
}

func TestClassify_Default(t *testing.T) {
	d := newTestDetector()
	risk, status := d.Classify(Candidate{VendorName: "Acme", BillNumber: "INV-100", Amount: 5000_00}, nil, false)
	assert.Equal(t, domain.RiskLow, risk)
	assert.Equal(t, domain.StatusNew, status)
}

func TestClassify_SettledDuplicate(t *testing.T) {
	d := newTestDetector()
	prior := []domain.PaymentRequest{
		priorRequest("Acme", "INV-100", 5000_00, domain.StatusSettled, 90*24*time.Hour),
	}
	risk, status := d.Classify(Candidate{VendorName: "Acme", BillNumber: "INV-100", Amount: 9999_00}, prior, false)
	assert.Equal(t, domain.RiskHigh, risk)
	assert.Equal(t, domain.StatusSimilarExists, status)
}

func TestClassify_EmptyBillNeverDuplicates(t *testing.T) {
	d := newTestDetector()
	prior := []domain.PaymentRequest{
		priorRequest("Acme", "", 5000_00, domain.StatusSettled, 24*time.Hour),
	}
	risk, status := d.Classify(Candidate{VendorName: "Acme", BillNumber: "", Amount: 1_00}, prior, false)
	assert.Equal(t, domain.RiskLow, risk)
	assert.Equal(t, domain.StatusNew, status)
}

func TestClassify_UnsettledDuplicateIsNotExact(t *testing.T) {
	// Same vendor+bill but the prior is only approved: rule 1 requires a
	// settled prior, so this falls through to the recency rule.
	d := newTestDetector()
	prior := []domain.PaymentRequest{
		priorRequest("Acme", "INV-100", 5000_00, domain.StatusApproved, 10*24*time.Hour),
	}
	risk, status := d.Classify(Candidate{VendorName: "Acme", BillNumber: "INV-100", Amount: 5000_00}, prior, false)
	assert.Equal(t, domain.RiskMedium, risk)
	assert.Equal(t, domain.StatusSimilarExists, status)
}

func TestClassify_CutoffMissed(t *testing.T) {
	d := newTestDetector()
	risk, status := d.Classify(Candidate{VendorName: "Acme", Amount: 5000_00}, nil, true)
	assert.Equal(t, domain.RiskHigh, risk)
	assert.Equal(t, domain.StatusRequestCutoffMissed, status)
}

func TestClassify_RecentSimilar(t *testing.T) {
	d := newTestDetector()
	prior := []domain.PaymentRequest{
		priorRequest("Acme", "INV-OTHER", 5000_00, domain.StatusNew, 29*24*time.Hour),
	}
	risk, status := d.Classify(Candidate{VendorName: "Acme", BillNumber: "INV-100", Amount: 5000_00}, prior, false)
	assert.Equal(t, domain.RiskMedium, risk)
	assert.Equal(t, domain.StatusSimilarExists, status)
}

func TestClassify_SimilarWindowBoundary(t *testing.T) {
	d := newTestDetector()

	// Exactly 30 days old is inside the window (inclusive).
	atBoundary := []domain.PaymentRequest{
		priorRequest("Acme", "X", 5000_00, domain.StatusNew, 30*24*time.Hour),
	}
	risk, _ := d.Classify(Candidate{VendorName: "Acme", Amount: 5000_00}, atBoundary, false)
	assert.Equal(t, domain.RiskMedium, risk)

	// A second older is outside.
	outside := []domain.PaymentRequest{
		priorRequest("Acme", "X", 5000_00, domain.StatusNew, 30*24*time.Hour+time.Second),
	}
	risk, status := d.Classify(Candidate{VendorName: "Acme", Amount: 5000_00}, outside, false)
	assert.Equal(t, domain.RiskLow, risk)
	assert.Equal(t, domain.StatusNew, status)
}

func TestClassify_SettledDuplicateOutranksRecentSimilar(t *testing.T) {
	// The candidate matches both rule 1 and rule 3; rule 1 must win.
	d := newTestDetector()
	prior := []domain.PaymentRequest{
		priorRequest("Acme", "INV-200", 5000_00, domain.StatusNew, 5*24*time.Hour),
		priorRequest("Acme", "INV-100", 5000_00, domain.StatusSettled, 5*24*time.Hour),
	}
	risk, status := d.Classify(Candidate{VendorName: "Acme", BillNumber: "INV-100", Amount: 5000_00}, prior, false)
	assert.Equal(t, domain.RiskHigh, risk)
	assert.Equal(t, domain.StatusSimilarExists, status)
}

func TestClassify_SettledDuplicateOutranksCutoff(t *testing.T) {
	d := newTestDetector()
	prior := []domain.PaymentRequest{
		priorRequest("Acme", "INV-100", 5000_00, domain.StatusSettled, 5*24*time.Hour),
	}
	risk, status := d.Classify(Candidate{VendorName: "Acme", BillNumber: "INV-100", Amount: 5000_00}, prior, true)
	assert.Equal(t, domain.RiskHigh, risk)
	assert.Equal(t, domain.StatusSimilarExists, status)
}

func TestClassify_Deterministic(t *testing.T) {
	d := newTestDetector()
	prior := []domain.PaymentRequest{
		priorRequest("Acme", "INV-100", 5000_00, domain.StatusSettled, 5*24*time.Hour),
		priorRequest("Globex", "INV-7", 120_00, domain.StatusNew, 2*24*time.Hour),
	}
	candidate := Candidate{VendorName: "Globex", BillNumber: "INV-9", Amount: 120_00}
	firstRisk, firstStatus := d.Classify(candidate, prior, false)
	for i := 0; i < 10; i++ {
		risk, status := d.Classify(candidate, prior, false)
		assert.Equal(t, firstRisk, risk)
		assert.Equal(t, firstStatus, status)
	}
}
