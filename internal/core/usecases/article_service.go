package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/mashup/internal/core/domain"
	"github.com/samirrijal/mashup/internal/core/ports"
	"github.com/samirrijal/mashup/internal/pkg/metrics"
)

// GeoLength is the exact length of a postal code accepted by Lookup.
const GeoLength = 5

// ArticleService looks up news for a postal code.
type ArticleService struct {
	lookup ports.ArticleLookup
	events ports.EventPublisher
}

// NewArticleService creates a new ArticleService. events may be nil.
func NewArticleService(lookup ports.ArticleLookup, events ports.EventPublisher) *ArticleService {
	return &ArticleService{lookup: lookup, events: events}
}

// Lookup validates geo and returns the lookup client's articles unmodified.
func (s *ArticleService) Lookup(ctx context.Context, geo string) ([]domain.Article, error) {
	if geo == "" {
		return nil, fmt.Errorf("%w: missing geo", domain.ErrValidation)
	}
	if utf8.RuneCountInString(geo) != GeoLength {
		return nil, fmt.Errorf("%w: geo must be %d characters, got %q", domain.ErrValidation, GeoLength, geo)
	}

	ctx, span := tracer.Start(ctx, "ArticleService.Lookup")
	defer span.End()
	span.SetAttributes(attribute.String("geo", geo))

	articles, err := s.lookup.Lookup(ctx, geo)
	if err != nil {
		span.RecordError(err)
		metrics.Lookups.WithLabelValues(domain.KindArticles, "error").Inc()
		return nil, err
	}
	if articles == nil {
		articles = []domain.Article{}
	}

	metrics.Lookups.WithLabelValues(domain.KindArticles, "ok").Inc()
	if s.events != nil {
		ev := &domain.LookupEvent{Kind: domain.KindArticles, Query: geo, Results: len(articles), At: time.Now().UnixMilli()}
		if err := s.events.PublishLookup(ctx, ev); err != nil {
			slog.DebugContext(ctx, "publish lookup event failed", "kind", domain.KindArticles, "error", err)
		}
	}
	return articles, nil
}
