package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/chamadopro/backend/internal/models"
	"github.com/chamadopro/backend/internal/notify"
	"github.com/chamadopro/backend/internal/realtime"
	"github.com/chamadopro/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// ContractHandler handles the contract lifecycle
type ContractHandler struct {
	contractRepository repositories.ContractRepository
	notifier           *notify.Notifier
	hub                notify.Pusher
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contractRepo repositories.ContractRepository, notifier *notify.Notifier, hub notify.Pusher) *ContractHandler {
	return &ContractHandler{
		contractRepository: contractRepo,
		notifier:           notifier,
		hub:                hub,
	}
}

// RegisterContractRoutes registers contract lifecycle routes
func (h *ContractHandler) RegisterContractRoutes(g *echo.Group) {
	g.GET("/contracts", h.ListMyContracts)
	g.GET("/contracts/:id", h.GetContract)
	g.POST("/contracts/:id/finalize", h.FinalizeContract)
	g.POST("/contracts/:id/cancel", h.CancelContract)
	g.POST("/contracts/:id/dispute", h.OpenDispute)
}

// ListMyContracts lists contracts where the user is a party
func (h *ContractHandler) ListMyContracts(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	contracts, total, err := h.contractRepository.ListByParticipant(currentUserID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"contracts": contracts,
		"meta": echo.Map{
			"currentPage":  page,
			"totalItems":   total,
			"itemsPerPage": limit,
		},
	})
}

// GetContract retrieves a contract (parties only)
func (h *ContractHandler) GetContract(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	contract, httpErr := h.loadContractForParty(c, currentUserID)
	if httpErr != nil {
		return httpErr
	}
	return c.JSON(http.StatusOK, contract)
}

// FinalizeContract records one party's completion + review. The contract
// reaches COMPLETED only after both parties have finalized.
func (h *ContractHandler) FinalizeContract(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	contract, httpErr := h.loadContractForParty(c, currentUserID)
	if httpErr != nil {
		return httpErr
	}

	var req models.FinalizeContractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.contractRepository.Finalize(contract.ID, currentUserID, req)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrAlreadyFinalized):
			return echo.NewHTTPError(http.StatusConflict, "You have already finalized this contract")
		case errors.Is(err, repositories.ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, "Contract is not active")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	counterpart := contract.Counterpart(currentUserID)
	title := "Confirmação de conclusão pendente"
	message := "A outra parte marcou o trabalho como concluído. Confirme para encerrar o contrato."
	if result.Completed {
		title = "Contrato concluído"
		message = fmt.Sprintf("Contrato de R$ %.2f concluído por ambas as partes", contract.Value)
	}
	h.notifyLifecycle(c, &models.Notification{
		Type:        models.NotifContractFinalized,
		ActorID:     currentUserID,
		RecipientID: counterpart,
		TargetID:    strconv.FormatUint(uint64(contract.ID), 10),
		TargetType:  "contract",
		Title:       title,
		Message:     message,
	}, realtime.EventContractFinalized, result)

	status := models.ContractActive
	if result.Completed {
		status = models.ContractCompleted
	}
	return c.JSON(http.StatusOK, echo.Map{
		"contract_id": contract.ID,
		"status":      status,
		"completed":   result.Completed,
		"review":      result.Review,
	})
}

// CancelContract moves an ACTIVE contract to CANCELLED
func (h *ContractHandler) CancelContract(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	contract, httpErr := h.loadContractForParty(c, currentUserID)
	if httpErr != nil {
		return httpErr
	}

	cancelled, err := h.contractRepository.Cancel(contract.ID, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidTransition) {
			return echo.NewHTTPError(http.StatusConflict, "Contract is not active")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	cancelled.Status = models.ContractCancelled

	h.notifyLifecycle(c, &models.Notification{
		Type:        models.NotifContractCancelled,
		ActorID:     currentUserID,
		RecipientID: contract.Counterpart(currentUserID),
		TargetID:    strconv.FormatUint(uint64(contract.ID), 10),
		TargetType:  "contract",
		Title:       "Contrato cancelado",
		Message:     "O contrato foi cancelado pela outra parte",
	}, realtime.EventContractCancelled, cancelled)

	return c.JSON(http.StatusOK, cancelled)
}

// OpenDispute freezes an ACTIVE contract in DISPUTED pending moderation
func (h *ContractHandler) OpenDispute(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	contract, httpErr := h.loadContractForParty(c, currentUserID)
	if httpErr != nil {
		return httpErr
	}

	var req models.OpenDisputeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	dispute, err := h.contractRepository.OpenDispute(contract.ID, currentUserID, req.Reason)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidTransition) {
			return echo.NewHTTPError(http.StatusConflict, "Contract is not active")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.notifyLifecycle(c, &models.Notification{
		Type:        models.NotifDisputeOpened,
		ActorID:     currentUserID,
		RecipientID: contract.Counterpart(currentUserID),
		TargetID:    strconv.FormatUint(uint64(dispute.ID), 10),
		TargetType:  "dispute",
		Title:       "Disputa aberta",
		Message:     "Uma disputa foi aberta neste contrato. O pagamento está congelado até a resolução.",
	}, realtime.EventDisputeOpened, dispute)

	return c.JSON(http.StatusCreated, dispute)
}

func (h *ContractHandler) loadContractForParty(c echo.Context, userID uint) (*models.Contract, error) {
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

func (h *ContractHandler) notifyLifecycle(c echo.Context, n *models.Notification, evt realtime.EventType, payload interface{}) {
	if h.notifier != nil {
		if err := h.notifier.Notify(c.Request().Context(), n); err != nil {
			c.Logger().Errorf("failed to notify user %d: %v", n.RecipientID, err)
		}
	}
	if h.hub != nil {
		h.hub.Broadcast(realtime.UserChannel(n.RecipientID), realtime.Event{Type: evt, Data: payload})
	}
}
