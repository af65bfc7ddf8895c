package event

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/harryhq/mail-manager/pkg/model"
)

func NewService(logger *slog.Logger, repository *repository, broker *Broker) *Service {
	return &Service{
		logger:     logger,
		repository: repository,
		broker:     broker,
	}
}

type Service struct {
	logger     *slog.Logger
	repository *repository
	broker     *Broker
}

// Publish records the event and pushes it to every subscriber allowed to see it. Publishing
// never fails the operation that caused the event, errors are logged instead.
func (s Service) Publish(ctx context.Context, event model.Event) {
	err := s.repository.create(ctx, &event)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save event", "kind", event.Kind, "error", err)
	}

	message, err := json.Marshal(event.Payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal event payload", "kind", event.Kind, "error", err)
		return
	}

	for _, user := range s.broker.Subscribers() {
		if !allowed(user, event) {
			continue
		}
		if !s.broker.Send(user.ID, Event{Type: event.Kind, Message: string(message)}) {
			s.logger.WarnContext(ctx, "Dropped event for subscriber", "kind", event.Kind, "user", user.ID)
		}
	}
}

// allowed reports whether a subscriber may see an event. Every property set on the event has
// to match, an event with an owner is only delivered to that owner and an org scoped event
// only to members or admins of the org.
func allowed(user model.User, event model.Event) bool {
	if event.UserID != nil && *event.UserID != user.ID {
		return false
	}
	if event.OrgName != nil && !user.IsMemberOf(*event.OrgName) && !user.IsAdminOf(*event.OrgName) {
		return false
	}
	return true
}
