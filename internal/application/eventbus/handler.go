package eventbus

import (
	"context"

	"github.com/garyjia/liquidagov/internal/domain/event"
)

// Handler reacts to a published domain event
type Handler func(ctx context.Context, evt *event.Event) error

// Subscription describes a registered handler
type Subscription struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
