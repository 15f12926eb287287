package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/chamadopro/backend/internal/models"
	"github.com/chamadopro/backend/internal/notify"
	"github.com/chamadopro/backend/internal/realtime"
	"github.com/chamadopro/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// AdminHandler exposes moderation and audit views over all entities
type AdminHandler struct {
	db                 *gorm.DB
	userRepository     repositories.UserRepository
	contractRepository repositories.ContractRepository
	messageRepository  repositories.MessageRepository
	notifier           *notify.Notifier
	hub                notify.Pusher
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(db *gorm.DB, userRepo repositories.UserRepository, contractRepo repositories.ContractRepository, messageRepo repositories.MessageRepository, notifier *notify.Notifier, hub notify.Pusher) *AdminHandler {
	return &AdminHandler{
		db:                 db,
		userRepository:     userRepo,
		contractRepository: contractRepo,
		messageRepository:  messageRepo,
		notifier:           notifier,
		hub:                hub,
	}
}

// RegisterAdminRoutes registers the moderation routes (AdminGuard applied at
// the group)
func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/stats", h.GetStats)
	g.GET("/users", h.ListUsers)
	g.GET("/contracts", h.ListContracts)
	g.GET("/disputes", h.ListDisputes)
	g.POST("/disputes/:id/resolve", h.ResolveDispute)
	g.GET("/messages/blocked", h.ListBlockedMessages)
	g.POST("/broadcast", h.Broadcast)
}

// GetStats returns entity counts per status for the admin overview
func (h *AdminHandler) GetStats(c echo.Context) error {
	stats := echo.Map{}

	var users, posts, budgets, contracts, openDisputes int64
	h.db.Model(&models.User{}).Count(&users)
	h.db.Model(&models.Post{}).Count(&posts)
	h.db.Model(&models.Budget{}).Count(&budgets)
	h.db.Model(&models.Contract{}).Count(&contracts)
	h.db.Model(&models.Dispute{}).Where("status = ?", models.DisputeOpen).Count(&openDisputes)
	stats["users"] = users
	stats["posts"] = posts
	stats["budgets"] = budgets
	stats["contracts"] = contracts
	stats["open_disputes"] = openDisputes

	byStatus := map[string]int64{}
	for _, s := range []models.ContractStatus{models.ContractActive, models.ContractCompleted, models.ContractCancelled, models.ContractDisputed} {
		var n int64
		h.db.Model(&models.Contract{}).Where("status = ?", s).Count(&n)
		byStatus[string(s)] = n
	}
	stats["contracts_by_status"] = byStatus

	return c.JSON(http.StatusOK, stats)
}

// ListUsers returns a paginated user audit view
func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	users, total, err := h.userRepository.ListUsers(page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"users": users, "total": total})
}

// ListContracts returns contracts across all users, optionally by status
func (h *AdminHandler) ListContracts(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	contracts, total, err := h.contractRepository.ListAll(models.ContractStatus(c.QueryParam("status")), page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"contracts": contracts, "total": total})
}

// ListDisputes returns unresolved disputes, oldest first
func (h *AdminHandler) ListDisputes(c echo.Context) error {
	disputes, err := h.contractRepository.ListOpenDisputes()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"disputes": disputes})
}

// ResolveDispute routes a disputed contract to completion or cancellation
func (h *AdminHandler) ResolveDispute(c echo.Context) error {
	claims := getUserClaims(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid dispute ID")
	}

	var req models.ResolveDisputeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	dispute, contract, err := h.contractRepository.ResolveDispute(uint(id), claims.UserID, req.Outcome, req.Resolution)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Dispute not found")
		case errors.Is(err, repositories.ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, "Dispute already resolved")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	for _, recipient := range []uint{contract.ClientID, contract.ProviderID} {
		n := &models.Notification{
			Type:        models.NotifDisputeResolved,
			ActorID:     claims.UserID,
			RecipientID: recipient,
			TargetID:    strconv.FormatUint(uint64(contract.ID), 10),
			TargetType:  "contract",
			Title:       "Disputa resolvida",
			Message:     req.Resolution,
		}
		if err := h.notifier.Notify(c.Request().Context(), n); err != nil {
			c.Logger().Errorf("failed to notify user %d: %v", recipient, err)
		}
		h.hub.Broadcast(realtime.UserChannel(recipient), realtime.Event{Type: realtime.EventDisputeResolved, Data: dispute})
	}

	return c.JSON(http.StatusOK, echo.Map{"dispute": dispute, "contract": contract})
}

// ListBlockedMessages returns recent moderation-flagged chat messages
func (h *AdminHandler) ListBlockedMessages(c echo.Context) error {
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	messages, err := h.messageRepository.ListBlocked(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"messages": messages})
}

// Broadcast pushes an admin notification to a user's channel
func (h *AdminHandler) Broadcast(c echo.Context) error {
	claims := getUserClaims(c)

	var req struct {
		RecipientID uint   `json:"recipient_id" validate:"required"`
		Title       string `json:"title" validate:"required,max=120"`
		Message     string `json:"message" validate:"required,max=2000"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	n := &models.Notification{
		Type:        models.NotifAdmin,
		ActorID:     claims.UserID,
		RecipientID: req.RecipientID,
		TargetType:  "user",
		Title:       req.Title,
		Message:     req.Message,
	}
	if err := h.notifier.Notify(c.Request().Context(), n); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.hub.Broadcast(realtime.UserChannel(req.RecipientID), realtime.Event{Type: realtime.EventAdminNotification, Data: n})

	return c.JSON(http.StatusCreated, n)
}
