package stripe

import (
	"errors"
	"time"

	"github.com/casaflow/billing/internal/app/service/refund"
	types "github.com/casaflow/billing/pkg/types"

	stripe "github.com/stripe/stripe-go/v74"
)

func mapErr(err error) error {
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		return &refund.GatewayError{Code: string(sErr.Code), Message: sErr.Msg}
	}
	return err
}

func toCharge(ch *stripe.Charge) *refund.Charge {
	out := &refund.Charge{
		ID:          ch.ID,
		Amount:      ch.Amount,
		Currency:    string(ch.Currency),
		CreatedAt:   time.Unix(ch.Created, 0).UTC(),
		Refunded:    ch.Refunded,
		Description: ch.Description,
	}
	if ch.Invoice != nil {
		out.InvoiceID = ch.Invoice.ID
	}
	return out
}

func toSubscription(sub *stripe.Subscription) *refund.Subscription {
	out := &refund.Subscription{
		ID:                 sub.ID,
		Status:             types.SubscriptionStatus(sub.Status),
		CurrentPeriodStart: time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		if price := sub.Items.Data[0].Price; price != nil {
			out.PlanAmount = price.UnitAmount
			out.PlanCurrency = string(price.Currency)
			if price.Recurring != nil {
				out.PlanInterval = string(price.Recurring.Interval)
			}
		}
	}
	return out
}

func toInvoice(inv *stripe.Invoice) *refund.Invoice {
	out := &refund.Invoice{
		ID:            inv.ID,
		Total:         inv.Total,
		Currency:      string(inv.Currency),
		CustomerEmail: inv.CustomerEmail,
		CustomerName:  inv.CustomerName,
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	return out
}

func toCreditNote(cn *stripe.CreditNote) *refund.CreditNote {
	out := &refund.CreditNote{
		ID:        cn.ID,
		Number:    cn.Number,
		Status:    types.CreditNoteStatus(cn.Status),
		Currency:  string(cn.Currency),
		Total:     cn.Total,
		Subtotal:  cn.Subtotal,
		Reason:    string(cn.Reason),
		Memo:      cn.Memo,
		PDFURL:    cn.PDF,
		CreatedAt: time.Unix(cn.Created, 0).UTC(),
	}
	for _, ta := range cn.TaxAmounts {
		out.Tax += ta.Amount
	}
	return out
}
