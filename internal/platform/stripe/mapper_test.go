package stripe

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/casaflow/billing/internal/app/service/refund"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stretchr/testify/require"
)

func TestMapErr(t *testing.T) {
	sErr := &stripe.Error{Code: stripe.ErrorCodeChargeAlreadyRefunded, Msg: "Charge ch_1 has already been refunded."}
	mapped := mapErr(fmt.Errorf("request failed: %w", sErr))

	var gwErr *refund.GatewayError
	require.ErrorAs(t, mapped, &gwErr)
	require.Equal(t, string(stripe.ErrorCodeChargeAlreadyRefunded), gwErr.Code)
	require.Equal(t, "Charge ch_1 has already been refunded.", gwErr.Message)

	plain := errors.New("dial tcp: connection refused")
	require.Equal(t, plain, mapErr(plain))
}

func TestToCharge(t *testing.T) {
	ch := &stripe.Charge{
		ID:       "ch_1",
		Amount:   9900,
		Currency: stripe.CurrencyEUR,
		Created:  1767225600,
		Refunded: true,
		Invoice:  &stripe.Invoice{ID: "in_1"},
	}
	out := toCharge(ch)
	require.Equal(t, "ch_1", out.ID)
	require.Equal(t, int64(9900), out.Amount)
	require.Equal(t, "eur", out.Currency)
	require.Equal(t, time.Unix(1767225600, 0).UTC(), out.CreatedAt)
	require.True(t, out.Refunded)
	require.Equal(t, "in_1", out.InvoiceID)

	ch.Invoice = nil
	require.Empty(t, toCharge(ch).InvoiceID)
}

func TestToSubscription(t *testing.T) {
	sub := &stripe.Subscription{
		ID:                 "sub_1",
		Status:             stripe.SubscriptionStatusActive,
		CurrentPeriodStart: 1764547200,
		CurrentPeriodEnd:   1767225600,
		CancelAtPeriodEnd:  false,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{
				Price: &stripe.Price{
					UnitAmount: 999,
					Currency:   stripe.CurrencyEUR,
					Recurring:  &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth},
				},
			}},
		},
	}
	out := toSubscription(sub)
	require.Equal(t, "sub_1", out.ID)
	require.Equal(t, "active", string(out.Status))
	require.Equal(t, int64(999), out.PlanAmount)
	require.Equal(t, "eur", out.PlanCurrency)
	require.Equal(t, "month", out.PlanInterval)
	require.Equal(t, time.Unix(1767225600, 0).UTC(), out.CurrentPeriodEnd)

	// No items must not panic.
	sub.Items = nil
	out = toSubscription(sub)
	require.Zero(t, out.PlanAmount)
}

func TestToCreditNote_SumsTaxAmounts(t *testing.T) {
	cn := &stripe.CreditNote{
		ID:       "cn_1",
		Number:   "CN-0001",
		Status:   stripe.CreditNoteStatusIssued,
		Currency: stripe.CurrencyEUR,
		Total:    9900,
		Subtotal: 8250,
		Created:  1767225600,
		TaxAmounts: []*stripe.CreditNoteTaxAmount{
			{Amount: 1000},
			{Amount: 650},
		},
	}
	out := toCreditNote(cn)
	require.Equal(t, int64(1650), out.Tax)
	require.Equal(t, "issued", string(out.Status))
	require.Equal(t, time.Unix(1767225600, 0).UTC(), out.CreatedAt)
}
