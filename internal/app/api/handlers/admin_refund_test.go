package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/casaflow/billing/internal/app/service/refund"
)

type stubRefundMgr struct {
	preview    *refund.RefundPreview
	previewErr error
	result     *refund.RefundResult
	execErr    error

	previewCalls int
	execCalls    int
	lastExec     *refund.ExecuteRequest
}

func (s *stubRefundMgr) Preview(_ context.Context, _ string) (*refund.RefundPreview, error) {
	s.previewCalls++
	if s.previewErr != nil {
		return nil, s.previewErr
	}
	return s.preview, nil
}

func (s *stubRefundMgr) Execute(_ context.Context, req *refund.ExecuteRequest) (*refund.RefundResult, error) {
	s.execCalls++
	s.lastExec = req
	if s.execErr != nil {
		return nil, s.execErr
	}
	return s.result, nil
}

func refundRouter(mgr refund.RefundManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/admin/refund", func(c *gin.Context) {
		c.Set("adminID", "admin-1")
		ApiRefund(mgr)(c)
	})
	return r
}

func postRefund(t *testing.T, r *gin.Engine, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/refund", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApiRefund_Execute(t *testing.T) {
	mgr := &stubRefundMgr{result: &refund.RefundResult{RefundID: "re_1", Amount: 99.00, Currency: "eur", CancelledImmediately: true}}
	r := refundRouter(mgr)

	w := postRefund(t, r, map[string]any{"user_id": "user-1", "reason": "duplicate charge"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "re_1")

	require.Equal(t, 0, mgr.previewCalls)
	require.Equal(t, 1, mgr.execCalls)
	require.Equal(t, "user-1", mgr.lastExec.UserID)
	require.Equal(t, "admin-1", mgr.lastExec.AdminUserID)
	require.Equal(t, "duplicate charge", mgr.lastExec.Reason)
	// cancel_immediately omitted defaults to true
	require.True(t, mgr.lastExec.CancelImmediately)
}

func TestApiRefund_CancelImmediatelyFalse(t *testing.T) {
	mgr := &stubRefundMgr{result: &refund.RefundResult{RefundID: "re_1"}}
	r := refundRouter(mgr)

	w := postRefund(t, r, map[string]any{"user_id": "user-1", "cancel_immediately": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, mgr.lastExec.CancelImmediately)
}

func TestApiRefund_Preview(t *testing.T) {
	mgr := &stubRefundMgr{preview: &refund.RefundPreview{
		CustomerID: "cus_1",
		Charge:     &refund.Charge{ID: "ch_1", Amount: 9900, Currency: "eur"},
	}}
	r := refundRouter(mgr)

	w := postRefund(t, r, map[string]any{"user_id": "user-1", "preview": true})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ch_1")
	require.Equal(t, 1, mgr.previewCalls)
	require.Equal(t, 0, mgr.execCalls)
}

func TestApiRefund_MissingUserID(t *testing.T) {
	mgr := &stubRefundMgr{}
	r := refundRouter(mgr)

	w := postRefund(t, r, map[string]any{"reason": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 0, mgr.execCalls)
}

func TestApiRefund_ErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"customer not found", refund.ErrCustomerNotFound, http.StatusNotFound},
		{"no charges", refund.ErrNoChargesFound, http.StatusNotFound},
		{"already refunded", refund.ErrAlreadyRefunded, http.StatusConflict},
		{"gateway failure", &refund.GatewayError{Code: "rate_limit", Message: "too many requests"}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mgr := &stubRefundMgr{execErr: tc.err}
			r := refundRouter(mgr)
			w := postRefund(t, r, map[string]any{"user_id": "user-1"})
			require.Equal(t, tc.status, w.Code)
		})
	}
}
