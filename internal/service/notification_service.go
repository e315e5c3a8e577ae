package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"complaint-service/internal/model"
)

const defaultNotificationLimit = 50

type NotificationInput struct {
	Recipient   model.Recipient
	Title       string
	Message     string
	Category    model.NotificationCategory
	ComplaintID *int64
}

type NotificationService struct {
	store   NotificationStore
	counter UnreadCounter
	limit   int
	log     zerolog.Logger
}

// NewNotificationService builds the dispatcher. counter may be nil, in which
// case unread counts always come from the store.
func NewNotificationService(store NotificationStore, counter UnreadCounter, limit int, log zerolog.Logger) *NotificationService {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	return &NotificationService{
		store:   store,
		counter: counter,
		limit:   limit,
		log:     log,
	}
}

// Notify writes one inbox entry. Failures are logged and dropped so the
// mutation that triggered the event keeps its own outcome.
func (s *NotificationService) Notify(ctx context.Context, input NotificationInput) {
	logEvent := func(e *zerolog.Event) *zerolog.Event {
		e = e.Str("recipient_id", input.Recipient.ID.String()).
			Str("recipient_role", string(input.Recipient.Role)).
			Str("category", string(input.Category))
		if input.ComplaintID != nil {
			e = e.Int64("complaint_id", *input.ComplaintID)
		}
		return e
	}

	if !input.Category.Valid() || !input.Recipient.Role.Valid() || input.Recipient.ID == uuid.Nil {
		logEvent(s.log.Error()).Msg("dropping malformed notification")
		return
	}

	title := input.Title
	if title == "" {
		title = TitleFor(input.Category)
	}

	notification := &model.Notification{
		RecipientID:   input.Recipient.ID,
		RecipientRole: input.Recipient.Role,
		ComplaintID:   input.ComplaintID,
		Title:         title,
		Message:       input.Message,
		Category:      input.Category,
	}
	if err := s.store.Create(ctx, notification); err != nil {
		logEvent(s.log.Warn()).Err(err).Msg("notification write failed")
		return
	}

	if s.counter != nil {
		if err := s.counter.Incr(ctx, input.Recipient); err != nil {
			logEvent(s.log.Warn()).Err(err).Msg("unread counter increment failed")
		}
	}
}

// NotifyAll fans one event out to several recipients.
func (s *NotificationService) NotifyAll(ctx context.Context, recipients []model.Recipient, input NotificationInput) {
	for _, recipient := range recipients {
		input.Recipient = recipient
		s.Notify(ctx, input)
	}
}

func (s *NotificationService) List(ctx context.Context, principal model.Principal) (*model.NotificationInbox, error) {
	recipient, err := recipientOf(principal)
	if err != nil {
		return nil, err
	}

	items, err := s.store.ListRecent(ctx, recipient, s.limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Notification{}
	}

	unread, err := s.unreadCount(ctx, recipient)
	if err != nil {
		return nil, err
	}

	return &model.NotificationInbox{Items: items, UnreadCount: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	recipient, err := recipientOf(principal)
	if err != nil {
		return err
	}

	changed, err := s.store.MarkRead(ctx, recipient, id)
	if err != nil {
		return err
	}
	if changed == 0 {
		exists, err := s.store.Exists(ctx, recipient, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return nil
	}

	if s.counter != nil {
		if err := s.counter.Decr(ctx, recipient); err != nil {
			s.log.Warn().Err(err).Str("recipient_id", recipient.ID.String()).Msg("unread counter decrement failed")
		}
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, principal model.Principal) error {
	recipient, err := recipientOf(principal)
	if err != nil {
		return err
	}

	if _, err := s.store.MarkAllRead(ctx, recipient); err != nil {
		return err
	}

	if s.counter != nil {
		if err := s.counter.Reset(ctx, recipient); err != nil {
			s.log.Warn().Err(err).Str("recipient_id", recipient.ID.String()).Msg("unread counter reset failed")
		}
	}
	return nil
}

func (s *NotificationService) unreadCount(ctx context.Context, recipient model.Recipient) (int64, error) {
	if s.counter != nil {
		count, ok, err := s.counter.Get(ctx, recipient)
		if err != nil {
			s.log.Warn().Err(err).Str("recipient_id", recipient.ID.String()).Msg("unread counter read failed")
		} else if ok {
			return count, nil
		}
	}

	count, err := s.store.CountUnread(ctx, recipient)
	if err != nil {
		return 0, err
	}

	if s.counter != nil {
		if err := s.counter.Set(ctx, recipient, count); err != nil {
			s.log.Warn().Err(err).Str("recipient_id", recipient.ID.String()).Msg("unread counter refresh failed")
		}
	}
	return count, nil
}

// TitleFor returns the default inbox title of a category.
func TitleFor(category model.NotificationCategory) string {
	switch category {
	case model.NotificationAssignment:
		return "New complaint assigned"
	case model.NotificationStatusUpdate:
		return "Complaint status updated"
	case model.NotificationStatusUpdateDetailed:
		return "Complaint status and notes updated"
	case model.NotificationTransportUpdate:
		return "Transport update"
	case model.NotificationCheckingUpdate:
		return "Checking update"
	case model.NotificationRemarkUpdate:
		return "New remark on your complaint"
	case model.NotificationSystem:
		return "System notice"
	}
	return fmt.Sprintf("Notification (%s)", category)
}

func recipientOf(principal model.Principal) (model.Recipient, error) {
	if !principal.Role.Valid() || principal.UserID == uuid.Nil {
		return model.Recipient{}, ErrPermissionDenied
	}
	return model.Recipient{ID: principal.UserID, Role: principal.Role}, nil
}
