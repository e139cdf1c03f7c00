package ports

import (
	"context"

	"github.com/samirrijal/mashup/internal/core/domain"
)

// ArticleLookup fetches news articles for a 5-character postal code.
type ArticleLookup interface {
	Lookup(ctx context.Context, geo string) ([]domain.Article, error)
}

// EventPublisher publishes lookup events to a message broker.
type EventPublisher interface {
	PublishLookup(ctx context.Context, event *domain.LookupEvent) error
}
