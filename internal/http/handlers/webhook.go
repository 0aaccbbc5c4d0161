package handlers

import (
	"errors"
	"io"
	"net/http"

	"sessionbook/internal/http/middleware"
	"sessionbook/internal/payments"
	"sessionbook/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

// StripeWebhook consumes gateway events. Only a bad signature is rejected; business
// anomalies are logged and acknowledged so the gateway stops retrying.
func (h Handlers) StripeWebhook(c *gin.Context) {
	reqID := middleware.GetRequestID(c)
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "cannot read body", err)
		return
	}

	ev, err := h.Events.ParseEvent(payload, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, payments.ErrInvalidSignature) {
		utils.LogWarn(reqID, "webhook", "verify", "signature verification failed")
		RespondError(c, http.StatusBadRequest, "webhook signature verification failed", nil)
		return
	}
	if err != nil {
		utils.LogWarn(reqID, "webhook", "decode", "undecodable event acknowledged", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	svc := h.Webhooks
	svc.RequestID = reqID
	outcome, err := svc.HandleEvent(c.Request.Context(), ev)
	if err != nil {
		// storage failure: let the gateway redeliver
		utils.LogError(reqID, "webhook", ev.Type, err, zap.String("event_id", ev.ID))
		RespondError(c, http.StatusInternalServerError, "event not processed", nil)
		return
	}
	utils.LogEvent(reqID, "webhook", "handled", ev.Type, zap.String("event_id", ev.ID), zap.String("outcome", string(outcome)))
	c.JSON(http.StatusOK, gin.H{"received": true})
}
