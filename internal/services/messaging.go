// Package services holds the operations that span the store, the presence
// registry and the push channel.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/anonto42/postshare/backend/internal/observability"
	"github.com/anonto42/postshare/backend/internal/presence"
	"github.com/anonto42/postshare/backend/internal/push"
	"github.com/anonto42/postshare/backend/internal/repositories"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
)

// Presence is the part of the presence registry the messaging service reads.
type Presence interface {
	IsOnline(username string) bool
	Lookup(username string) (presence.Conn, bool)
}

// SendMessageInput carries one direct message. Sender and SenderID identify
// the current user; Time defaults to now.
type SendMessageInput struct {
	Sender   string
	SenderID primitive.ObjectID
	Receiver string
	Body     string
	Time     time.Time
}

// SendResult reports the updated receiver document and whether the push
// event reached a registered connection.
type SendResult struct {
	Receiver  *models.User
	Message   models.Message
	Delivered bool
}

type MessagingService struct {
	users    repositories.UserRepository
	presence Presence
	newID    func() string
	now      func() time.Time
}

func NewMessagingService(users repositories.UserRepository, presence Presence) *MessagingService {
	return &MessagingService{
		users:    users,
		presence: presence,
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// SendMessage persists the message on the receiver and pushes the updated
// receiver document to its connection. Offline receivers get nothing stored.
func (s *MessagingService) SendMessage(ctx context.Context, in SendMessageInput) (*SendResult, error) {
	span, ctx := observability.NewSpan(ctx, "messaging.send",
		attribute.String("sender_id", in.SenderID.Hex()),
		attribute.String("receiver", in.Receiver),
	)
	defer span.End()

	if strings.TrimSpace(in.Body) == "" {
		observability.MessagesTotal.WithLabelValues("invalid").Inc()
		return nil, models.NewValidationError("empty message")
	}
	if !s.presence.IsOnline(in.Receiver) {
		observability.MessagesTotal.WithLabelValues("offline").Inc()
		return nil, models.NewRecipientUnavailableError(in.Receiver)
	}

	msg := models.Message{
		ID:       s.newID(),
		Sender:   in.Sender,
		SenderID: in.SenderID,
		Receiver: in.Receiver,
		Message:  in.Body,
		Time:     in.Time,
	}
	if msg.Time.IsZero() {
		msg.Time = s.now()
	}

	updated, err := s.users.PushMessage(ctx, in.Receiver, msg)
	if err != nil {
		span.SetError(err)
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, models.NewNotFoundError("Receiver does not exist!")
		}
		return nil, err
	}
	observability.MessagesTotal.WithLabelValues("sent").Inc()

	result := &SendResult{Receiver: updated, Message: msg}

	// The receiver may have disconnected since the presence check. The
	// message is already stored, so a miss is reported but not returned.
	conn, ok := s.presence.Lookup(in.Receiver)
	if !ok {
		observability.PushDeliveryMisses.Inc()
		observability.Log.WarnContext(ctx, "message stored but receiver went offline",
			"receiver", in.Receiver, "message_id", msg.ID)
		return result, nil
	}
	if err := conn.Emit(push.EventMessageReceived, updated); err != nil {
		observability.PushDeliveryMisses.Inc()
		observability.Log.WarnContext(ctx, "message stored but push failed",
			"receiver", in.Receiver, "message_id", msg.ID, "error", err)
		return result, nil
	}
	result.Delivered = true
	return result, nil
}

// DeleteMessage removes a message from the receiver's list. Deleting an id
// that is not there is not an error. Returns the remaining messages.
func (s *MessagingService) DeleteMessage(ctx context.Context, receiver, messageID string) ([]models.Message, error) {
	updated, err := s.users.PullMessage(ctx, receiver, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, models.NewNotFoundError("User does not exist!")
		}
		return nil, err
	}
	return updated.Messages, nil
}
