package handlers

import (
	"net/http"

	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/anonto42/postshare/backend/internal/repositories"
	"github.com/anonto42/postshare/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// MessageHandler handles direct message HTTP requests
type MessageHandler struct {
	messaging      *services.MessagingService
	userRepository repositories.UserRepository
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messaging *services.MessagingService, userRepo repositories.UserRepository) *MessageHandler {
	return &MessageHandler{
		messaging:      messaging,
		userRepository: userRepo,
	}
}

// RegisterMessageRoutes registers message routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/messages", h.SendMessage)
	g.DELETE("/messages/:messageId", h.DeleteMessage)
}

// SendMessage stores a message for an online receiver and pushes the
// receiver's updated document to its connection
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	sender, err := currentUser(ctx, c, h.userRepository)
	if err != nil {
		return err
	}

	result, err := h.messaging.SendMessage(ctx, services.SendMessageInput{
		Sender:   sender.Username,
		SenderID: sender.ID,
		Receiver: req.Receiver,
		Body:     req.Message,
		Time:     req.Time,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"error":     false,
		"message":   "Message sent!",
		"sent":      result.Message,
		"delivered": result.Delivered,
	})
}

// DeleteMessage removes a message from the current user's received messages
func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := currentUser(ctx, c, h.userRepository)
	if err != nil {
		return err
	}

	messages, err := h.messaging.DeleteMessage(ctx, user.Username, c.Param("messageId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"error": false, "message": "Message deleted.", "messages": messages})
}
