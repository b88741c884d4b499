package stripe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/casaflow/billing/internal/app/service/refund"
	cfgpkg "github.com/casaflow/billing/pkg/config"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"go.uber.org/zap"
)

// Gateway implements the refund service's payments-provider port on top of
// the Stripe SDK.
type Gateway struct {
	sc   *client.API
	http *http.Client
	log  *zap.SugaredLogger
}

func New(cfg *cfgpkg.Config, log *zap.SugaredLogger) refund.Gateway {
	sc := &client.API{}
	sc.Init(cfg.Stripe.APIKey, nil)
	return &Gateway{
		sc:   sc,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log,
	}
}

func (g *Gateway) LatestCharge(ctx context.Context, customerID string) (*refund.Charge, error) {
	params := &stripe.ChargeListParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := g.sc.Charges.List(params)
	if it.Next() {
		return toCharge(it.Charge()), nil
	}
	if err := it.Err(); err != nil {
		return nil, mapErr(err)
	}
	return nil, fmt.Errorf("customer %s: %w", customerID, refund.ErrNoChargesFound)
}

func (g *Gateway) ActiveSubscription(ctx context.Context, customerID string) (*refund.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := g.sc.Subscriptions.List(params)
	if it.Next() {
		return toSubscription(it.Subscription()), nil
	}
	if err := it.Err(); err != nil {
		return nil, mapErr(err)
	}
	return nil, nil
}

func (g *Gateway) RefundCharge(ctx context.Context, chargeID string, reason string) (*refund.Refund, error) {
	params := &stripe.RefundParams{
		Params: stripe.Params{Context: ctx},
		Charge: stripe.String(chargeID),
	}
	if reason != "" {
		params.Reason = stripe.String(reason)
	}

	ref, err := g.sc.Refunds.New(params)
	if err != nil {
		return nil, mapErr(err)
	}
	return &refund.Refund{
		ID:       ref.ID,
		Amount:   ref.Amount,
		Currency: string(ref.Currency),
		Status:   string(ref.Status),
	}, nil
}

func (g *Gateway) CancelSubscriptionNow(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{Params: stripe.Params{Context: ctx}}
	if _, err := g.sc.Subscriptions.Cancel(subscriptionID, params); err != nil {
		return mapErr(err)
	}
	return nil
}

func (g *Gateway) ScheduleCancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		Params:            stripe.Params{Context: ctx},
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	if _, err := g.sc.Subscriptions.Update(subscriptionID, params); err != nil {
		return mapErr(err)
	}
	return nil
}

// CreateCreditNote issues a note for exactly the refunded amount. The
// idempotency key is derived from the refund id so a retried call cannot
// double-issue even if the local guard were bypassed by a race.
func (g *Gateway) CreateCreditNote(ctx context.Context, req *refund.CreateCreditNoteRequest) (*refund.CreditNote, error) {
	params := &stripe.CreditNoteParams{
		Params:  stripe.Params{Context: ctx},
		Invoice: stripe.String(req.InvoiceID),
		Refund:  stripe.String(req.RefundID),
		Memo:    stripe.String(req.Memo),
		Reason:  stripe.String(string(stripe.CreditNoteReasonOrderChange)),
		Lines: []*stripe.CreditNoteLineParams{{
			Type:        stripe.String(string(stripe.CreditNoteLineItemTypeCustomLineItem)),
			Description: stripe.String("Refund"),
			Quantity:    stripe.Int64(1),
			UnitAmount:  stripe.Int64(req.Amount),
		}},
	}
	params.SetIdempotencyKey(fmt.Sprintf("credit_note_refund_%s", req.RefundID))

	cn, err := g.sc.CreditNotes.New(params)
	if err != nil {
		return nil, mapErr(err)
	}
	return toCreditNote(cn), nil
}

func (g *Gateway) InvoiceForCharge(ctx context.Context, chargeID string) (*refund.Invoice, error) {
	ch, err := g.sc.Charges.Get(chargeID, &stripe.ChargeParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return nil, mapErr(err)
	}
	if ch.Invoice == nil || ch.Invoice.ID == "" {
		return nil, nil
	}

	inv, err := g.sc.Invoices.Get(ch.Invoice.ID, &stripe.InvoiceParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return nil, mapErr(err)
	}
	return toInvoice(inv), nil
}

func (g *Gateway) DownloadPDF(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download pdf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d downloading pdf", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
