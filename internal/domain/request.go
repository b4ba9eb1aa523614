package domain

import "time"

// Status is the lifecycle state of a payment request. Transitions are owned
// exclusively by the lifecycle service; nothing else may set this field.
type Status string

const (
	StatusNew                 Status = "NEW"
	StatusSimilarExists       Status = "SIMILAR_EXISTS"
	StatusRequestCutoffMissed Status = "REQUEST_CUTOFF_MISSED"
	StatusApproved            Status = "APPROVED"
	StatusHold                Status = "HOLD"
	StatusPaymentCutoffMissed Status = "PAYMENT_CUTOFF_MISSED"
	StatusSettled             Status = "SETTLED"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusSimilarExists, StatusRequestCutoffMissed,
		StatusApproved, StatusHold, StatusPaymentCutoffMissed, StatusSettled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted from s.
func (s Status) Terminal() bool { return s == StatusSettled }

// RiskLevel is assigned once at submission by the duplicate/similarity
// heuristics and only changed by explicit transitions thereafter.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// CutoffStatus records whether a submission beat its deadline.
type CutoffStatus string

const (
	CutoffWithin CutoffStatus = "WITHIN"
	CutoffMissed CutoffStatus = "MISSED"
)

// Category separates project-linked spend from overhead.
type Category string

const (
	CategoryProject    Category = "Project"
	CategoryNonProject Category = "Non-Project"
)

// PaymentType describes the stage of payment being requested.
type PaymentType string

const (
	PaymentAdvance PaymentType = "Advance"
	PaymentPartial PaymentType = "Partial"
	PaymentFinal   PaymentType = "Final"
	PaymentFull    PaymentType = "Full"
)

// PaymentMode is the settlement rail.
type PaymentMode string

const (
	ModeBankTransfer PaymentMode = "Bank Transfer"
	ModeUPI          PaymentMode = "UPI"
)

// PaymentRequest is a compliance record. Amount, vendor identity, bill
// reference, submission timestamp and requester identity are immutable once
// created; status, risk and the settlement fields change only through the
// lifecycle service. Version is the optimistic-concurrency stamp: every write
// carries the version it read and stale writers are rejected.
type PaymentRequest struct {
	ID              string    `json:"id"`
	RaisedBy        string    `json:"raisedBy"`
	RaisedByRole    string    `json:"raisedByRole,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	PaymentDeadline time.Time `json:"paymentDeadline"`

	Category        Category `json:"category"`
	Purpose         string   `json:"purpose"`
	ProjectID       string   `json:"projectId,omitempty"`
	WorkOrderNumber string   `json:"workOrderNumber,omitempty"`

	VendorName string `json:"vendorName"`
	VendorType string `json:"vendorType,omitempty"`
	BillNumber string `json:"billNumber"`
	BillDate   string `json:"billDate,omitempty"`

	// Amount in minor currency units (paise). Never edited post-creation.
	Amount int64 `json:"amount"`

	PaymentType PaymentType `json:"paymentType"`
	PaymentMode PaymentMode `json:"paymentMode"`

	AccountNumber string `json:"accountNumber,omitempty"`
	IFSC          string `json:"ifsc,omitempty"`
	UPIID         string `json:"upiId,omitempty"`

	DriveLinkBills     string `json:"driveLinkBills,omitempty"`
	DriveLinkWorkProof string `json:"driveLinkWorkProof,omitempty"`

	CutoffStatus CutoffStatus `json:"cutoffStatus"`
	Risk         RiskLevel    `json:"risk"`
	Status       Status       `json:"status"`

	// Settlement fields, set only by the settle transition.
	UTR       string `json:"utr,omitempty"`
	ProofLink string `json:"proofLink,omitempty"`

	Version int64 `json:"version"`
}
