package ports

import "github.com/kcbot/kcbot/internal/modules/audio/domain"

// EventPublisher defines the interface for publishing events asynchronously.
type EventPublisher interface {
	Publish(event domain.Event) error
}
