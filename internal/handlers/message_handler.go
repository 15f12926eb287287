package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/chamadopro/backend/internal/moderation"
	"github.com/chamadopro/backend/internal/models"
	"github.com/chamadopro/backend/internal/notify"
	"github.com/chamadopro/backend/internal/realtime"
	"github.com/chamadopro/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// MessageHandler handles the per-contract chat thread
type MessageHandler struct {
	messageRepository  repositories.MessageRepository
	contractRepository repositories.ContractRepository
	filter             *moderation.Filter
	notifier           *notify.Notifier
	hub                *realtime.Hub
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageRepo repositories.MessageRepository, contractRepo repositories.ContractRepository, filter *moderation.Filter, notifier *notify.Notifier, hub *realtime.Hub) *MessageHandler {
	return &MessageHandler{
		messageRepository:  messageRepo,
		contractRepository: contractRepo,
		filter:             filter,
		notifier:           notifier,
		hub:                hub,
	}
}

// RegisterMessageRoutes registers chat routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/contracts/:id/messages", h.SendMessage)
	g.GET("/contracts/:id/messages", h.GetThread)
	g.GET("/contracts/:id/ws", h.ContractWS)
	g.GET("/ws", h.UserWS)
}

// SendMessage posts a chat message on a contract thread. Messaging is allowed
// only while the contract is ACTIVE or DISPUTED. Content is screened by the
// moderation filter before acceptance: flagged messages persist blocked and
// reach nobody but the sender.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	contract, httpErr := h.loadContractForParty(c, currentUserID)
	if httpErr != nil {
		return httpErr
	}
	if !contract.AllowsMessages() {
		return echo.NewHTTPError(http.StatusConflict, "Contract does not accept messages in status "+string(contract.Status))
	}

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	message := &models.Message{
		ContractID: contract.ID,
		SenderID:   currentUserID,
		Content:    req.Content,
		Type:       req.Type,
	}
	if blocked, reason := h.filter.Check(req.Content); blocked {
		message.Blocked = true
		message.BlockReason = reason
	}

	// Persist before push: a client that missed the push recovers the message
	// by re-fetching the thread.
	if err := h.messageRepository.CreateMessage(c.Request().Context(), message); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !message.Blocked {
		h.hub.Broadcast(realtime.ContractChannel(contract.ID), realtime.Event{
			Type: realtime.EventNewMessage,
			Data: message,
		})

		counterpart := contract.Counterpart(currentUserID)
		n := &models.Notification{
			Type:        models.NotifNewMessage,
			ActorID:     currentUserID,
			RecipientID: counterpart,
			TargetID:    message.ID.Hex(),
			TargetType:  "message",
			Title:       "Nova mensagem",
			Message:     req.Content,
		}
		if err := h.notifier.Notify(c.Request().Context(), n); err != nil {
			c.Logger().Errorf("failed to notify user %d: %v", counterpart, err)
		}
	}

	return c.JSON(http.StatusCreated, message)
}

// GetThread retrieves the contract's message history in insertion order.
// Blocked messages appear only for their sender; admins read any thread in
// full, blocked rows included.
func (h *MessageHandler) GetThread(c echo.Context) error {
	claims := getUserClaims(c)
	isAdmin := claims != nil && claims.Role == models.RoleAdmin
	currentUserID := getUserIDFromContext(c)
	contract, httpErr := h.loadContract(c, currentUserID, isAdmin)
	if httpErr != nil {
		return httpErr
	}

	messages, err := h.messageRepository.GetThread(c.Request().Context(), contract.ID, currentUserID, isAdmin)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"contract_id": contract.ID, "messages": messages})
}

// ContractWS subscribes a party to a contract's realtime channel
func (h *MessageHandler) ContractWS(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	contract, httpErr := h.loadContractForParty(c, currentUserID)
	if httpErr != nil {
		return httpErr
	}

	ws, err := realtime.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	channel := realtime.ContractChannel(contract.ID)
	h.hub.Subscribe(channel, ws)
	h.hub.Broadcast(channel, realtime.Event{
		Type: realtime.EventPresenceJoin,
		Data: echo.Map{"user_id": currentUserID},
	})

	// Read loop (discard client messages; protocol is server push, writes go
	// through REST)
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			h.hub.Unsubscribe(channel, ws)
			_ = ws.Close()
			h.hub.Broadcast(channel, realtime.Event{
				Type: realtime.EventPresenceLeave,
				Data: echo.Map{"user_id": currentUserID},
			})
			break
		}
	}
	return nil
}

// UserWS subscribes the authenticated user to their notification channel
func (h *MessageHandler) UserWS(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	ws, err := realtime.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	channel := realtime.UserChannel(currentUserID)
	h.hub.Subscribe(channel, ws)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			h.hub.Unsubscribe(channel, ws)
			_ = ws.Close()
			break
		}
	}
	return nil
}

func (h *MessageHandler) loadContractForParty(c echo.Context, userID uint) (*models.Contract, error) {
	return h.loadContract(c, userID, false)
}

func (h *MessageHandler) loadContract(c echo.Context, userID uint, adminOK bool) (*models.Contract, error) {
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
	if !contract.IsParticipant(userID) && !adminOK {
		return nil, echo.NewHTTPError(http.StatusForbidden, fmt.Sprintf("User %d is not a party to contract %d", userID, contract.ID))
	}
	return contract, nil
}
