package lifecycle

import (
	"context"

	"paygate/internal/domain"
	dErrors "paygate/pkg/domain-errors"
)

// Patch is the partial-update payload accepted over the wire. Only status and
// the settlement fields are writable; the immutable creation fields may be
// echoed back by older clients, in which case they must match the stored
// record exactly or the whole patch is rejected.
type Patch struct {
	Status    domain.Status `json:"status"`
	UTR       string        `json:"utr,omitempty"`
	ProofLink string        `json:"proofLink,omitempty"`
	Version   int64         `json:"version,omitempty"`

	// Echoes of immutable fields, verified when present.
	Amount     *int64  `json:"amount,omitempty"`
	VendorName *string `json:"vendorName,omitempty"`
	BillNumber *string `json:"billNumber,omitempty"`
}

// ApplyPatch routes a partial update onto the matching transition. Any echoed
// immutable field that differs from the stored record rejects the patch with
// no state change and no audit entry.
func (s *Service) ApplyPatch(ctx context.Context, actor domain.User, id string, patch Patch) (domain.PaymentRequest, error) {
	if !patch.Status.Valid() {
		return domain.PaymentRequest{}, dErrors.New(dErrors.CodeBadRequest, "unknown target status")
	}

	current, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return domain.PaymentRequest{}, dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	if patch.Amount != nil && *patch.Amount != current.Amount {
		return domain.PaymentRequest{}, s.denied("immutable_amount", dErrors.CodeBadRequest, "amount cannot be changed after creation")
	}
	if patch.VendorName != nil && *patch.VendorName != current.VendorName {
		return domain.PaymentRequest{}, s.denied("immutable_vendor", dErrors.CodeBadRequest, "vendor cannot be changed after creation")
	}
	if patch.BillNumber != nil && *patch.BillNumber != current.BillNumber {
		return domain.PaymentRequest{}, s.denied("immutable_bill", dErrors.CodeBadRequest, "bill reference cannot be changed after creation")
	}

	switch patch.Status {
	case domain.StatusApproved:
		return s.Approve(ctx, actor, id, patch.Version)
	case domain.StatusHold:
		return s.Hold(ctx, actor, id, patch.Version)
	case domain.StatusSettled:
		return s.Settle(ctx, actor, id, patch.Version, patch.UTR, patch.ProofLink)
	default:
		return domain.PaymentRequest{}, dErrors.New(dErrors.CodeBadRequest, "status cannot be set directly")
	}
}
