// internal/handlers/payment.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/truckzone/truckzone-backend/internal/i18n"
	"github.com/truckzone/truckzone-backend/internal/services"
	"github.com/truckzone/truckzone-backend/internal/utils"
)

const maxWebhookBody = 64 << 10

type PaymentHandler struct {
	paymentService *services.PaymentService
	webhookSecret  string
}

func NewPaymentHandler(paymentService *services.PaymentService, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		webhookSecret:  webhookSecret,
	}
}

// POST /create-payment-intent
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var req services.CreatePaymentIntentRequest
	if !bindJSON(c, &req) {
		return
	}

	intent, err := h.paymentService.CreatePaymentIntent(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, intent)
}

// POST /payments
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	var req services.ConfirmPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.paymentService.ConfirmPayment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Replayed {
		utils.SuccessResponse(c, result)
		return
	}
	utils.CreatedResponse(c, result)
}

// POST /webhooks/stripe
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	if h.webhookSecret == "" {
		utils.ServiceUnavailableResponse(c, i18n.T(lang, i18n.KeyPaymentGatewayDown))
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "payload"), nil)
		return
	}

	intent, err := services.ParseStripeWebhook(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		logrus.WithError(err).Warn("Rejected Stripe webhook")
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyPaymentWebhookInvalid), nil)
		return
	}
	if intent == nil {
		utils.SuccessResponse(c, gin.H{"received": true})
		return
	}

	result, err := h.paymentService.HandleIntentSucceeded(c.Request.Context(), intent)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrBookingNotFound),
		errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrProductSold),
		errors.Is(err, services.ErrPaymentMismatch),
		errors.Is(err, services.ErrPaymentNotVerified):
		// Retrying will not change the outcome, so acknowledge the delivery.
		logrus.WithError(err).WithField("payment_intent", intent.ID).Warn("Webhook payment not applied")
		utils.SuccessResponse(c, gin.H{"received": true, "applied": false})
		return
	default:
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"received": true, "applied": result != nil})
}
