package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/screenhall/booking-engine/internal/pay"
	"github.com/screenhall/booking-engine/internal/service"
)

// PaymentHandler exposes payment initiation and reconciliation. Reconcile
// doubles as the webhook target: providers deliver intent updates there, and
// clients may poll it after finishing the flow.
type PaymentHandler struct {
	Payments *service.PaymentService
	Sandbox  *pay.Sandbox // non-nil only in dev, drives intents by hand
}

func NewPaymentHandler(p *service.PaymentService, sandbox *pay.Sandbox) *PaymentHandler {
	return &PaymentHandler{Payments: p, Sandbox: sandbox}
}

type initiateReq struct {
	VoucherCode string `json:"voucher_code"`
	Method      string `json:"method"`
}

// Initiate starts a payment for a booking.
// POST /v1/bookings/:id/pay
func (h *PaymentHandler) Initiate(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req initiateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	method := strings.TrimSpace(strings.ToLower(req.Method))
	if method == "" {
		method = "card"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	secret, err := h.Payments.Initiate(ctx, uid, bookingID, strings.TrimSpace(req.VoucherCode), method)
	if err != nil {
		var pe *pay.ProviderError
		if errors.As(err, &pe) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider rejected", "code": pe.Code})
		}
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"client_secret": secret})
}

// Reconcile folds the provider's verdict on an intent into the booking and
// returns the payment status. Safe to call repeatedly.
// POST /v1/payments/:ref/reconcile
func (h *PaymentHandler) Reconcile(c echo.Context) error {
	ref := strings.TrimSpace(c.Param("ref"))
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment reference"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	status, err := h.Payments.Reconcile(ctx, ref)
	if err != nil {
		var pe *pay.ProviderError
		if errors.As(err, &pe) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable", "code": pe.Code})
		}
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": string(status)})
}

type webhookReq struct {
	IntentID string `json:"intent_id"`
	Event    string `json:"event"` // succeeded | declined | canceled
}

// SandboxWebhook drives the sandbox provider in dev deployments, standing in
// for the real provider's dashboard, then reconciles the intent.
// POST /v1/payments/sandbox/webhook
func (h *PaymentHandler) SandboxWebhook(c echo.Context) error {
	if h.Sandbox == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "sandbox disabled"})
	}
	var req webhookReq
	if err := c.Bind(&req); err != nil || req.IntentID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "intent_id required"})
	}
	var ok bool
	switch req.Event {
	case "succeeded":
		ok = h.Sandbox.Complete(req.IntentID)
	case "declined":
		ok = h.Sandbox.Decline(req.IntentID)
	case "canceled":
		ok = h.Sandbox.Cancel(req.IntentID)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown event"})
	}
	if !ok {
		return c.JSON(http.StatusConflict, echo.Map{"error": "intent missing or terminal"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	status, err := h.Payments.Reconcile(ctx, req.IntentID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": string(status)})
}
