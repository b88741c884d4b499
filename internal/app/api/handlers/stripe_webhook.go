package handlers

import (
	"errors"
	"net/http"

	"github.com/casaflow/billing/internal/app/service/webhook"
	"github.com/casaflow/billing/pkg/logctx"
	"github.com/casaflow/billing/pkg/response"

	"github.com/gin-gonic/gin"
)

// @Summary      Stripe Webhook
// @Description  Handles Stripe events. The request body must be the raw event payload with a valid Stripe-Signature header.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body string true "Stripe event payload"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/webhook/stripe [post]
// ApiStripeWebhook verifies and applies Stripe events. Signature failures get
// 400; handling failures get 500 so the provider retries delivery.
func ApiStripeWebhook(h *webhook.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		logctx.FromGin(c, h.Logger).Infow("webhook_stripe_received")

		if err := h.HandleRequest(c); err != nil {
			logctx.FromGin(c, h.Logger).Errorw("webhook_stripe_handle_error", "error", err.Error())
			status := http.StatusInternalServerError
			if errors.Is(err, webhook.ErrSignatureVerification) {
				status = http.StatusBadRequest
			}
			c.JSON(status, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		logctx.FromGin(c, h.Logger).Infow("webhook_stripe_handled")
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterWebhookRoutes(r gin.IRouter, h *webhook.Handler) {
	r.POST("/stripe", ApiStripeWebhook(h))
}
