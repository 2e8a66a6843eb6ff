package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syedaatik8/LemmeWrite/internal/app/service/ledger"
	"github.com/syedaatik8/LemmeWrite/internal/app/service/webhook"
	"github.com/syedaatik8/LemmeWrite/pkg/logctx"
	"github.com/syedaatik8/LemmeWrite/pkg/response"
	"github.com/syedaatik8/LemmeWrite/pkg/types"
)

// @Summary      PayPal Webhook
// @Description  Handles PayPal billing notifications. Responds 2xx on success (including suppressed duplicates), 400 on malformed payloads, 503 on transient failures so the sender redelivers.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/webhook/paypal [post]
// ApiPayPalWebhook handles PayPal billing notifications.
func ApiPayPalWebhook(d *webhook.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, d.Logger)
		log.Infow("webhook_paypal_received")

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "unreadable body"))
			return
		}

		traceID := c.GetString("traceID")
		if err := d.HandleNotification(c.Request.Context(), types.PaymentProcessorPayPal, body, traceID); err != nil {
			if errors.Is(err, webhook.ErrMalformedEvent) || errors.Is(err, ledger.ErrInvalidCredit) {
				log.Warnw("webhook_paypal_rejected", "error", err.Error())
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			// Transient: non-2xx makes the sender redeliver; the ledger's
			// idempotency makes redelivery safe.
			log.Errorw("webhook_paypal_handle_error", "error", err.Error())
			c.JSON(http.StatusServiceUnavailable, response.ErrorT[any](response.APIResponseCodeRetryLater, err.Error()))
			return
		}
		log.Infow("webhook_paypal_handled")
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterWebhookRoutes(r gin.IRouter, d *webhook.Dispatcher) {
	r.POST("/paypal", ApiPayPalWebhook(d))
}
