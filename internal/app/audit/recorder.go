package audit

import (
	"fmt"
	"log/slog"

	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal/app"
	"github.com/ai-trader/trader-portal/internal/domain"
)

// Recorder writes authentication and account lifecycle events to the
// operational log. Database mutations are covered by the transactional audit
// trail, these events are the ones that leave no row behind.
type Recorder struct {
	bus evbus.MessageBus
}

func NewAuthEventRecorder(bus evbus.MessageBus) (*Recorder, error) {
	r := &Recorder{
		bus: bus,
	}

	if err := r.connectToMessageBus(); err != nil {
		return nil, fmt.Errorf("failed to setup message bus: %w", err)
	}

	return r, nil
}

func (r *Recorder) connectToMessageBus() error {
	if err := r.bus.Subscribe(app.TopicAuthLogin, r.authLoginEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicAuthLogin, err)
	}
	if err := r.bus.Subscribe(app.TopicUserRegistered, r.userRegisteredEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicUserRegistered, err)
	}
	if err := r.bus.Subscribe(app.TopicUserDeleted, r.userDeletedEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicUserDeleted, err)
	}

	return nil
}

func (r *Recorder) authLoginEvent(userId domain.UserId) {
	slog.Info("user logged in", "user", userId)
}

func (r *Recorder) userRegisteredEvent(user *domain.User) {
	slog.Info("user registered", "user", user.Id, "username", user.Username)
}

func (r *Recorder) userDeletedEvent(user *domain.User) {
	slog.Info("user deleted", "user", user.Id, "username", user.Username)
}
