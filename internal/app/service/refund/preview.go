package refund

import (
	"context"
	"fmt"

	"github.com/casaflow/billing/pkg/logctx"
)

// Preview assembles the read-only snapshot the admin reviews before
// committing a refund. No writes occur in this path under any circumstance.
func (s *Service) Preview(ctx context.Context, userID string) (*RefundPreview, error) {
	if userID == "" {
		return nil, fmt.Errorf("empty user id")
	}

	customerID, err := s.store.CustomerIDByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve customer: %w", err)
	}

	charge, err := s.gw.LatestCharge(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest charge: %w", err)
	}

	sub, err := s.gw.ActiveSubscription(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	}

	pre := &RefundPreview{
		CustomerID:   customerID,
		Charge:       charge,
		Subscription: sub,
	}

	// Payment-method display fields come from the local mirror; the gateway
	// call for this is expensive and the data is display-only.
	mirror, err := s.store.SubscriptionMirror(ctx, customerID)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("preview_mirror_read_failed", "customer_id", customerID, "err", err)
	} else if mirror != nil && mirror.PaymentMethodBrand != "" {
		pre.PaymentMethod = &PaymentMethod{Brand: mirror.PaymentMethodBrand, Last4: mirror.PaymentMethodLast4}
	}

	return pre, nil
}
