package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/casaflow/billing/internal/app/service/ledger"
	"github.com/casaflow/billing/internal/app/service/refund"
	models "github.com/casaflow/billing/internal/models"
	"github.com/casaflow/billing/pkg/response"
	"github.com/casaflow/billing/pkg/types"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type RefundRequest struct {
	UserID string `json:"user_id"`
	// Preview makes the call read-only: the snapshot is returned and nothing
	// is refunded or cancelled.
	Preview bool   `json:"preview"`
	Reason  string `json:"reason"`
	// CancelImmediately defaults to true when omitted.
	CancelImmediately *bool `json:"cancel_immediately"`
}

// refundErrorStatus maps domain errors onto HTTP statuses. Provider-side
// failures surface as 502 so callers can distinguish them from our own 500s.
func refundErrorStatus(err error) (int, response.APIResponseCode) {
	var gwErr *refund.GatewayError
	switch {
	case errors.Is(err, refund.ErrCustomerNotFound), errors.Is(err, refund.ErrNoChargesFound):
		return http.StatusNotFound, response.APIResponseCodeNotFound
	case errors.Is(err, refund.ErrAlreadyRefunded):
		return http.StatusConflict, response.APIResponseCodeConflict
	case errors.As(err, &gwErr):
		return http.StatusBadGateway, response.APIResponseCodeError
	default:
		return http.StatusInternalServerError, response.APIResponseCodeError
	}
}

// @Summary      Refund Latest Charge (Admin)
// @Description  Previews or executes a refund of the customer's most recent charge, with optional immediate subscription cancellation.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body RefundRequest true "Refund request"
// @Success      200  {object}  handlers.RespRefundResult
// @Router       /api/v1/admin/refund [post]
func ApiRefund(mgr refund.RefundManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.UserID == "" {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id"))
			return
		}

		if req.Preview {
			pre, err := mgr.Preview(c.Request.Context(), req.UserID)
			if err != nil {
				status, code := refundErrorStatus(err)
				c.JSON(status, response.ErrorT[any](code, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.OKT(pre))
			return
		}

		res, err := mgr.Execute(c.Request.Context(), &refund.ExecuteRequest{
			UserID:            req.UserID,
			AdminUserID:       c.GetString("adminID"),
			Reason:            req.Reason,
			CancelImmediately: lo.FromPtrOr(req.CancelImmediately, true),
		})
		if err != nil {
			status, code := refundErrorStatus(err)
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type ListCreditNotesRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type CreditNoteItem struct {
	ID            string                 `json:"id"`
	InvoiceID     string                 `json:"invoice_id"`
	CustomerID    string                 `json:"customer_id"`
	RefundID      string                 `json:"refund_id"`
	Number        string                 `json:"number"`
	Status        types.CreditNoteStatus `json:"status"`
	Currency      string                 `json:"currency"`
	Total         int64                  `json:"total"`
	Subtotal      int64                  `json:"subtotal"`
	Tax           int64                  `json:"tax"`
	Reason        string                 `json:"reason"`
	Memo          string                 `json:"memo"`
	CustomerEmail string                 `json:"customer_email"`
	CustomerName  string                 `json:"customer_name"`
	PDFURL        string                 `json:"pdf_url"`
	PDFCached     bool                   `json:"pdf_cached"`
	IssuedAt      time.Time              `json:"issued_at"`
	CreatedAt     time.Time              `json:"created_at"`
}

func toCreditNoteItem(m *models.CreditNote) *CreditNoteItem {
	return &CreditNoteItem{
		ID:            m.ExternalID,
		InvoiceID:     m.InvoiceID,
		CustomerID:    m.CustomerID,
		RefundID:      m.RefundID,
		Number:        m.Number,
		Status:        m.Status,
		Currency:      m.Currency,
		Total:         m.Total,
		Subtotal:      m.Subtotal,
		Tax:           m.Tax,
		Reason:        m.Reason,
		Memo:          m.Memo,
		CustomerEmail: m.CustomerEmail,
		CustomerName:  m.CustomerName,
		PDFURL:        m.PDFURL,
		PDFCached:     m.HasCachedPDF(),
		IssuedAt:      m.CreatedAtExternal,
		CreatedAt:     m.CreatedAt,
	}
}

type ListCreditNotesResponse struct {
	Items []*CreditNoteItem `json:"items"`
	Total int64             `json:"total"`
}

// @Summary      List Credit Notes (Admin)
// @Description  Retrieves a paginated and filterable list of issued credit notes.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ListCreditNotesRequest true "List credit notes request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListCreditNotes
// @Router       /api/v1/admin/list_credit_notes [post]
func ApiListCreditNotes(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListCreditNotesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		scanReq := &ledger.ScanCreditNotesRequest{Filters: req.Filters, From: req.From, Size: req.Size, SortBy: req.SortBy, SortOrder: req.SortOrder}
		res, err := svc.ScanCreditNotes(c.Request.Context(), scanReq)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		items := lo.Map(res.Items, func(it *models.CreditNote, _ int) *CreditNoteItem { return toCreditNoteItem(it) })
		c.JSON(http.StatusOK, response.OKT(&ListCreditNotesResponse{Items: items, Total: res.Total}))
	}
}

func RegisterAdminRoutes(r gin.IRouter, mgr refund.RefundManager, store *ledger.Service) {
	r.POST("/refund", ApiRefund(mgr))
	r.POST("/list_credit_notes", ApiListCreditNotes(store))
}
