package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/chamadopro/backend/internal/models"
	"github.com/chamadopro/backend/internal/notify"
	"github.com/chamadopro/backend/internal/realtime"
	"github.com/chamadopro/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// BudgetHandler handles the budget negotiation lifecycle
type BudgetHandler struct {
	budgetRepository repositories.BudgetRepository
	postRepository   repositories.PostRepository
	notifier         *notify.Notifier
	hub              notify.Pusher
	feeRate          float64
	budgetTTL        time.Duration
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetRepo repositories.BudgetRepository, postRepo repositories.PostRepository, notifier *notify.Notifier, hub notify.Pusher, feeRate float64, budgetTTL time.Duration) *BudgetHandler {
	return &BudgetHandler{
		budgetRepository: budgetRepo,
		postRepository:   postRepo,
		notifier:         notifier,
		hub:              hub,
		feeRate:          feeRate,
		budgetTTL:        budgetTTL,
	}
}

// RegisterBudgetRoutes registers budget lifecycle routes
func (h *BudgetHandler) RegisterBudgetRoutes(g *echo.Group) {
	g.POST("/budgets", h.SubmitBudget)
	g.GET("/budgets/:id", h.GetBudget)
	g.GET("/budgets", h.ListMyBudgets)
	g.GET("/posts/:post_id/budgets", h.ListPostBudgets)
	g.POST("/budgets/:id/counter", h.CounterBudget)
	g.POST("/budgets/:id/accept", h.AcceptBudget)
	g.POST("/budgets/:id/reject", h.RejectBudget)
	g.POST("/budgets/:id/cancel", h.CancelBudget)
}

// SubmitBudget handles a provider proposing a budget against a post
func (h *BudgetHandler) SubmitBudget(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.SubmitBudgetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(req.PostID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if post.Status != models.PostActive {
		return echo.NewHTTPError(http.StatusConflict, "Post is not accepting budgets")
	}
	if post.AuthorID == currentUserID {
		return echo.NewHTTPError(http.StatusConflict, "Cannot submit a budget on your own post")
	}

	hasLive, err := h.budgetRepository.HasLiveBudget(post.ID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if hasLive {
		return echo.NewHTTPError(http.StatusConflict, "You already have an open budget on this post")
	}

	budget := &models.Budget{
		PostID:       post.ID,
		ProviderID:   currentUserID,
		ClientID:     post.AuthorID,
		Value:        req.Value,
		TermDays:     req.TermDays,
		PaymentTerms: req.PaymentTerms,
		Discount:     req.Discount,
		ExpiresAt:    time.Now().Add(h.budgetTTL),
	}
	if err := h.budgetRepository.CreateBudget(budget); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.notifyLifecycle(c, &models.Notification{
		Type:        models.NotifBudgetReceived,
		ActorID:     currentUserID,
		RecipientID: post.AuthorID,
		TargetID:    strconv.FormatUint(uint64(budget.ID), 10),
		TargetType:  "budget",
		Title:       "Novo orçamento recebido",
		Message:     fmt.Sprintf("Você recebeu um orçamento de R$ %.2f para \"%s\"", budget.Value, post.Title),
	}, realtime.EventBudgetReceived, budget)

	return c.JSON(http.StatusCreated, budget)
}

// GetBudget retrieves a budget with its negotiation history (parties only)
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid budget ID")
	}

	budget, err := h.budgetRepository.GetBudgetByID(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Budget not found")
	}
	if budget.ProviderID != currentUserID && budget.ClientID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Not a party to this budget")
	}

	return c.JSON(http.StatusOK, budget)
}

// ListMyBudgets lists budgets the user sent (as provider) or received (as client)
func (h *BudgetHandler) ListMyBudgets(c echo.Context) error {
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

	var budgets []models.Budget
	var total int64
	var err error
	if c.QueryParam("role") == "client" {
		budgets, total, err = h.budgetRepository.ListByClient(currentUserID, page, limit)
	} else {
		budgets, total, err = h.budgetRepository.ListByProvider(currentUserID, page, limit)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"budgets": budgets,
		"meta": echo.Map{
			"currentPage":  page,
			"totalItems":   total,
			"itemsPerPage": limit,
		},
	})
}

// ListPostBudgets lists all budgets on a post (post author only)
func (h *BudgetHandler) ListPostBudgets(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID, err := strconv.ParseUint(c.Param("post_id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	post, err := h.postRepository.GetPostByID(uint(postID))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if post.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the post author can list its budgets")
	}

	budgets, err := h.budgetRepository.ListByPost(post.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"post_id": post.ID, "budgets": budgets})
}

// CounterBudget appends a counter-offer from either party
func (h *BudgetHandler) CounterBudget(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid budget ID")
	}

	var req models.CounterBudgetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	budget, err := h.budgetRepository.GetBudgetByID(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Budget not found")
	}
	if budget.ProviderID != currentUserID && budget.ClientID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Not a party to this budget")
	}

	negotiation, err := h.budgetRepository.Counter(budget.ID, currentUserID, req, h.budgetTTL)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidTransition) {
			return echo.NewHTTPError(http.StatusConflict, "Budget is no longer negotiable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	counterpart := budget.ClientID
	if currentUserID == budget.ClientID {
		counterpart = budget.ProviderID
	}
	h.notifyLifecycle(c, &models.Notification{
		Type:        models.NotifBudgetCountered,
		ActorID:     currentUserID,
		RecipientID: counterpart,
		TargetID:    strconv.FormatUint(uint64(budget.ID), 10),
		TargetType:  "budget",
		Title:       "Contraproposta recebida",
		Message:     fmt.Sprintf("Nova contraproposta de R$ %.2f em %d dias", negotiation.Value, negotiation.TermDays),
	}, realtime.EventBudgetCountered, negotiation)

	return c.JSON(http.StatusCreated, negotiation)
}

// AcceptBudget settles the negotiation: the client accepts, a contract and a
// pending payment are created atomically, and competing budgets are rejected.
// A second acceptance on the same post answers 409.
func (h *BudgetHandler) AcceptBudget(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid budget ID")
	}

	result, err := h.budgetRepository.Accept(uint(id), currentUserID, h.feeRate, uuid.New().String())
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Budget not found")
		case errors.Is(err, repositories.ErrBudgetExpired):
			return echo.NewHTTPError(http.StatusConflict, "Budget has expired")
		case errors.Is(err, repositories.ErrPostAlreadyContracted):
			return echo.NewHTTPError(http.StatusConflict, "Another budget has already been accepted for this post")
		case errors.Is(err, repositories.ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, "Budget can no longer be accepted")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	contractID := strconv.FormatUint(uint64(result.Contract.ID), 10)
	h.notifyLifecycle(c, &models.Notification{
		Type:        models.NotifBudgetAccepted,
		ActorID:     currentUserID,
		RecipientID: result.Budget.ProviderID,
		TargetID:    contractID,
		TargetType:  "contract",
		Title:       "Orçamento aceito",
		Message:     fmt.Sprintf("Seu orçamento foi aceito. Contrato criado no valor de R$ %.2f", result.Contract.Value),
	}, realtime.EventBudgetAccepted, result.Contract)

	for _, rejected := range result.RejectedBudgets {
		h.notifyLifecycle(c, &models.Notification{
			Type:        models.NotifBudgetRejected,
			ActorID:     currentUserID,
			RecipientID: rejected.ProviderID,
			TargetID:    strconv.FormatUint(uint64(rejected.ID), 10),
			TargetType:  "budget",
			Title:       "Orçamento não selecionado",
			Message:     "O cliente aceitou outro orçamento para este pedido",
		}, realtime.EventBudgetRejected, rejected)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"budget":   result.Budget,
		"contract": result.Contract,
		"payment":  result.Payment,
	})
}

// RejectBudget lets the client turn down a budget; terminal
func (h *BudgetHandler) RejectBudget(c echo.Context) error {
	return h.decide(c, models.BudgetRejected, models.NotifBudgetRejected, realtime.EventBudgetRejected,
		"Orçamento recusado", "Seu orçamento foi recusado pelo cliente")
}

// CancelBudget lets the provider withdraw a budget; terminal
func (h *BudgetHandler) CancelBudget(c echo.Context) error {
	return h.decide(c, models.BudgetCancelled, models.NotifBudgetCancelled, realtime.EventBudgetCancelled,
		"Orçamento cancelado", "O prestador cancelou o orçamento enviado")
}

func (h *BudgetHandler) decide(c echo.Context, to models.BudgetStatus, notifType string, evt realtime.EventType, title, message string) error {
	currentUserID := getUserIDFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid budget ID")
	}

	budget, err := h.budgetRepository.GetBudgetByID(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Budget not found")
	}

	if err := h.budgetRepository.UpdateStatus(budget.ID, currentUserID, to); err != nil {
		if errors.Is(err, repositories.ErrInvalidTransition) {
			return echo.NewHTTPError(http.StatusConflict, "Budget can no longer be "+string(to))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	budget.Status = to

	counterpart := budget.ProviderID
	if currentUserID == budget.ProviderID {
		counterpart = budget.ClientID
	}
	h.notifyLifecycle(c, &models.Notification{
		Type:        notifType,
		ActorID:     currentUserID,
		RecipientID: counterpart,
		TargetID:    strconv.FormatUint(uint64(budget.ID), 10),
		TargetType:  "budget",
		Title:       title,
		Message:     message,
	}, evt, budget)

	return c.JSON(http.StatusOK, budget)
}

// notifyLifecycle persists the notification and pushes the lifecycle event to
// the recipient's channel. Failures never fail the request that caused them.
func (h *BudgetHandler) notifyLifecycle(c echo.Context, n *models.Notification, evt realtime.EventType, payload interface{}) {
	if h.notifier != nil {
		if err := h.notifier.Notify(c.Request().Context(), n); err != nil {
			c.Logger().Errorf("failed to notify user %d: %v", n.RecipientID, err)
		}
	}
	if h.hub != nil {
		h.hub.Broadcast(realtime.UserChannel(n.RecipientID), realtime.Event{Type: evt, Data: payload})
	}
}
