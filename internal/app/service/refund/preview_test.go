package refund

import (
	"context"
	"errors"
	"fmt"
	"testing"

	models "github.com/casaflow/billing/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPreview_FullSnapshot(t *testing.T) {
	gw := happyGateway()
	store := happyLedger()
	store.mirror = &models.SubscriptionMirror{
		CustomerID:         "cus_1",
		Status:             "active",
		PaymentMethodBrand: "visa",
		PaymentMethodLast4: "4242",
	}
	svc := newTestService(gw, store, &stubBlobs{})

	pre, err := svc.Preview(context.Background(), "user-1")
	require.NoError(t, err)

	require.Equal(t, "cus_1", pre.CustomerID)
	require.Equal(t, "ch_1", pre.Charge.ID)
	require.Equal(t, int64(9900), pre.Charge.Amount)
	require.NotNil(t, pre.Subscription)
	require.Equal(t, "sub_1", pre.Subscription.ID)
	require.NotNil(t, pre.PaymentMethod)
	require.Equal(t, "visa", pre.PaymentMethod.Brand)
	require.Equal(t, "4242", pre.PaymentMethod.Last4)

	// A preview must never mutate anything.
	require.Equal(t, 0, gw.refundCalls)
	require.Equal(t, 0, gw.cancelNowCalls)
	require.Equal(t, 0, gw.scheduleCalls)
	require.Equal(t, 0, gw.creditNoteCalls)
	require.Empty(t, store.mirrorPatches)
	require.Empty(t, store.billingPatches)
	require.Empty(t, store.upserts)
	require.Empty(t, store.audits)
}

func TestPreview_NoActiveSubscription(t *testing.T) {
	gw := happyGateway()
	gw.sub = nil
	svc := newTestService(gw, happyLedger(), &stubBlobs{})

	pre, err := svc.Preview(context.Background(), "user-1")
	require.NoError(t, err)
	require.Nil(t, pre.Subscription)
	require.NotNil(t, pre.Charge)
}

func TestPreview_CustomerNotFound(t *testing.T) {
	store := happyLedger()
	store.customerErr = fmt.Errorf("user user-1: %w", ErrCustomerNotFound)
	svc := newTestService(happyGateway(), store, &stubBlobs{})

	_, err := svc.Preview(context.Background(), "user-1")
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestPreview_NoCharges(t *testing.T) {
	gw := happyGateway()
	gw.charge = nil
	gw.chargeErr = ErrNoChargesFound
	svc := newTestService(gw, happyLedger(), &stubBlobs{})

	_, err := svc.Preview(context.Background(), "user-1")
	require.ErrorIs(t, err, ErrNoChargesFound)
}

func TestPreview_MirrorReadFailureIsNonFatal(t *testing.T) {
	store := happyLedger()
	store.mirrorErr = errors.New("connection refused")
	svc := newTestService(happyGateway(), store, &stubBlobs{})

	pre, err := svc.Preview(context.Background(), "user-1")
	require.NoError(t, err)
	require.Nil(t, pre.PaymentMethod)
}

func TestPreview_MirrorWithoutBrandYieldsNoPaymentMethod(t *testing.T) {
	store := happyLedger()
	store.mirror = &models.SubscriptionMirror{CustomerID: "cus_1", Status: "active"}
	svc := newTestService(happyGateway(), store, &stubBlobs{})

	pre, err := svc.Preview(context.Background(), "user-1")
	require.NoError(t, err)
	require.Nil(t, pre.PaymentMethod)
}

func TestPreview_EmptyUserID(t *testing.T) {
	svc := newTestService(happyGateway(), happyLedger(), &stubBlobs{})
	_, err := svc.Preview(context.Background(), "")
	require.Error(t, err)
}
