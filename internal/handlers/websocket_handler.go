package handlers

import (
	"github.com/anonto42/postshare/backend/internal/observability"
	"github.com/anonto42/postshare/backend/internal/presence"
	"github.com/anonto42/postshare/backend/internal/push"
	"github.com/anonto42/postshare/backend/internal/repositories"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocketHandler upgrades authenticated requests to push channels and keeps
// the presence registry in step with connects and disconnects.
type WebSocketHandler struct {
	registry       *presence.Registry
	userRepository repositories.UserRepository
	upgrader       *websocket.Upgrader
}

func NewWebSocketHandler(registry *presence.Registry, userRepo repositories.UserRepository, upgrader *websocket.Upgrader) *WebSocketHandler {
	return &WebSocketHandler{
		registry:       registry,
		userRepository: userRepo,
		upgrader:       upgrader,
	}
}

// Connect serves GET /ws. A second connection for the same user replaces and
// closes the first one.
func (h *WebSocketHandler) Connect(c echo.Context) error {
	user, err := currentUser(c.Request().Context(), c, h.userRepository)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		observability.Log.Warn("websocket upgrade failed", "user_id", user.ID.Hex(), "error", err)
		return nil
	}

	userID := user.ID.Hex()
	client := push.NewClient(conn, userID, user.Username)

	if replaced := h.registry.MarkOnline(userID, user.Username, client); replaced != nil {
		if old, ok := replaced.(*push.Client); ok {
			old.Close()
		}
	}
	observability.Log.Info("user online", "user_id", userID, "username", user.Username)
	h.registry.Broadcast(push.EventUsersOnline, h.registry.OnlineUsernames())

	go client.WritePump()
	client.ReadPump(func() {
		if h.registry.MarkOffline(userID, client) {
			observability.Log.Info("user offline", "user_id", userID)
			h.registry.Broadcast(push.EventUsersOnline, h.registry.OnlineUsernames())
		}
	})
	return nil
}
