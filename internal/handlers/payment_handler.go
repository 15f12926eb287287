package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/chamadopro/backend/internal/models"
	"github.com/chamadopro/backend/internal/notify"
	"github.com/chamadopro/backend/internal/payments"
	"github.com/chamadopro/backend/internal/realtime"
	"github.com/chamadopro/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PaymentHandler handles contract settlement
type PaymentHandler struct {
	paymentRepository  repositories.PaymentRepository
	contractRepository repositories.ContractRepository
	gateway            payments.Gateway
	notifier           *notify.Notifier
	hub                notify.Pusher
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentRepo repositories.PaymentRepository, contractRepo repositories.ContractRepository, gateway payments.Gateway, notifier *notify.Notifier, hub notify.Pusher) *PaymentHandler {
	return &PaymentHandler{
		paymentRepository:  paymentRepo,
		contractRepository: contractRepo,
		gateway:            gateway,
		notifier:           notifier,
		hub:                hub,
	}
}

// RegisterPaymentRoutes registers payment routes. The webhook route is
// registered separately because the gateway calls it without a bearer token.
func (h *PaymentHandler) RegisterPaymentRoutes(g *echo.Group) {
	g.GET("/contracts/:id/payment", h.GetPayment)
	g.POST("/contracts/:id/payment/checkout", h.Checkout)
}

// RegisterWebhookRoutes registers the unauthenticated gateway callback
func (h *PaymentHandler) RegisterWebhookRoutes(g *echo.Group) {
	g.POST("/payments/webhook", h.Webhook)
}

// GetPayment retrieves a contract's payment (parties only)
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	contract, httpErr := h.loadContractForParty(c, currentUserID)
	if httpErr != nil {
		return httpErr
	}

	payment, err := h.paymentRepository.GetPaymentByContractID(contract.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Payment not found")
	}
	return c.JSON(http.StatusOK, payment)
}

// Checkout charges the client through the payment gateway. An approved charge
// moves the payment PENDING→PAID; anything else leaves it PENDING.
func (h *PaymentHandler) Checkout(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	contract, httpErr := h.loadContractForParty(c, currentUserID)
	if httpErr != nil {
		return httpErr
	}
	if currentUserID != contract.ClientID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the client pays for a contract")
	}

	var req models.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	payment, err := h.paymentRepository.GetPaymentByContractID(contract.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Payment not found")
	}
	if payment.Status != models.PaymentPending {
		return echo.NewHTTPError(http.StatusConflict, "Payment is not pending")
	}

	payload := req.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["payment_method_id"] = req.Method
	payload["transaction_amount"] = payment.Value
	payload["external_reference"] = payment.ExternalReference
	raw, err := json.Marshal(payload)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payment payload")
	}

	providerID, providerStatus, providerResp, err := h.gateway.CreatePayment(c.Request().Context(), raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Payment gateway error: "+err.Error())
	}

	if providerStatus != "approved" {
		return c.JSON(http.StatusAccepted, echo.Map{
			"payment":           payment,
			"provider_status":   providerStatus,
			"provider_response": json.RawMessage(providerResp),
		})
	}

	if err := h.paymentRepository.MarkPaid(payment.ID, providerID, req.Method); err != nil {
		if errors.Is(err, repositories.ErrInvalidTransition) {
			return echo.NewHTTPError(http.StatusConflict, "Payment already settled")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	payment.Status = models.PaymentPaid
	payment.ProviderPaymentID = providerID
	payment.Method = req.Method

	h.notifyPaid(c, contract, payment)

	return c.JSON(http.StatusOK, payment)
}

// Webhook accepts the gateway's asynchronous settlement callback, keyed by
// external_reference
func (h *PaymentHandler) Webhook(c echo.Context) error {
	var body struct {
		ExternalReference string `json:"external_reference"`
		ProviderPaymentID string `json:"id"`
		Status            string `json:"status"`
		Method            string `json:"payment_method_id"`
	}
	if err := c.Bind(&body); err != nil || body.ExternalReference == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid webhook payload")
	}
	if body.Status != "approved" {
		return c.NoContent(http.StatusNoContent)
	}

	payment, err := h.paymentRepository.GetPaymentByExternalReference(body.ExternalReference)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Unknown external reference")
	}

	if err := h.paymentRepository.MarkPaid(payment.ID, body.ProviderPaymentID, body.Method); err != nil {
		// Replayed callbacks for an already-settled payment are fine.
		if errors.Is(err, repositories.ErrInvalidTransition) {
			return c.NoContent(http.StatusNoContent)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	payment.Status = models.PaymentPaid

	if contract, err := h.contractRepository.GetContractByID(payment.ContractID); err == nil {
		h.notifyPaid(c, contract, payment)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *PaymentHandler) notifyPaid(c echo.Context, contract *models.Contract, payment *models.Payment) {
	n := &models.Notification{
		Type:        models.NotifPaymentPaid,
		ActorID:     contract.ClientID,
		RecipientID: contract.ProviderID,
		TargetID:    strconv.FormatUint(uint64(contract.ID), 10),
		TargetType:  "contract",
		Title:       "Pagamento confirmado",
		Message:     "O pagamento do contrato foi confirmado e está retido pela plataforma",
	}
	if h.notifier != nil {
		if err := h.notifier.Notify(c.Request().Context(), n); err != nil {
			c.Logger().Errorf("failed to notify user %d: %v", n.RecipientID, err)
		}
	}
	if h.hub != nil {
		h.hub.Broadcast(realtime.UserChannel(contract.ProviderID), realtime.Event{Type: realtime.EventPaymentPaid, Data: payment})
	}
}

func (h *PaymentHandler) loadContractForParty(c echo.Context, userID uint) (*models.Contract, error) {
	if userID == 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid contract ID")
	}

	contract, err := h.contractRepository.GetContractByID(uint(id))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Contract not found")
	}
	if !contract.IsParticipant(userID) {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Not a party to this contract")
	}
	return contract, nil
}
