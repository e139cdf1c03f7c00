package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/mashup/internal/core/domain"
	"github.com/samirrijal/mashup/internal/core/ports"
	"github.com/samirrijal/mashup/internal/pkg/metrics"
)

// MaxViewportPlaces caps how many places a viewport lookup returns.
const MaxViewportPlaces = 10

var tracer = otel.Tracer("github.com/samirrijal/mashup/internal/core/usecases")

// PlaceService resolves search queries and viewports against the places store.
type PlaceService struct {
	places ports.PlaceRepository
	events ports.EventPublisher

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPlaceService creates a new PlaceService. events may be nil.
func NewPlaceService(places ports.PlaceRepository, events ports.EventPublisher) *PlaceService {
	return &PlaceService{
		places: places,
		events: events,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// WithRand replaces the sampling source, mainly so tests can seed it.
func (s *PlaceService) WithRand(rng *rand.Rand) *PlaceService {
	s.mu.Lock()
	s.rng = rng
	s.mu.Unlock()
	return s
}

// Search resolves a zip-code prefix or a "City[, State]" string to places.
func (s *PlaceService) Search(ctx context.Context, q string) ([]domain.Place, error) {
	if q == "" {
		return nil, fmt.Errorf("%w: missing q", domain.ErrValidation)
	}

	ctx, span := tracer.Start(ctx, "PlaceService.Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", q))

	places, err := s.search(ctx, q)
	if err != nil {
		span.RecordError(err)
		metrics.Lookups.WithLabelValues(domain.KindSearch, "error").Inc()
		return nil, err
	}
	if places == nil {
		places = []domain.Place{}
	}

	metrics.Lookups.WithLabelValues(domain.KindSearch, "ok").Inc()
	s.publish(ctx, domain.KindSearch, q, len(places))
	return places, nil
}

func (s *PlaceService) search(ctx context.Context, q string) ([]domain.Place, error) {
	if domain.IsPostalPrefix(q) {
		return s.places.ByPostalPrefix(ctx, q)
	}

	sq := domain.ParseSearchQuery(q)
	if !sq.HasState() {
		return s.places.ByCity(ctx, sq.City)
	}

	places, err := s.places.ByCityAndState(ctx, sq.City, sq.State, sq.StateName())
	if err != nil {
		return nil, err
	}
	if len(places) > 0 {
		return places, nil
	}

	// "San Francisco" splits into city=San, state=Francisco; retry as one name.
	return s.places.ByCity(ctx, sq.CombinedCity())
}

// Viewport returns up to MaxViewportPlaces places inside box, at most one per
// (country_code, place_name, admin_code1), chosen pseudorandomly.
func (s *PlaceService) Viewport(ctx context.Context, box domain.BoundingBox) ([]domain.Place, error) {
	ctx, span := tracer.Start(ctx, "PlaceService.Viewport")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("sw.lat", box.SW.Lat), attribute.Float64("sw.lng", box.SW.Lng),
		attribute.Float64("ne.lat", box.NE.Lat), attribute.Float64("ne.lng", box.NE.Lng),
		attribute.Bool("antimeridian", box.CrossesAntimeridian()),
	)

	rows, err := s.places.InBounds(ctx, box)
	if err != nil {
		span.RecordError(err)
		metrics.Lookups.WithLabelValues(domain.KindUpdate, "error").Inc()
		return nil, err
	}

	s.mu.Lock()
	places := sample(dedupe(within(rows, box)), MaxViewportPlaces, s.rng)
	s.mu.Unlock()

	metrics.Lookups.WithLabelValues(domain.KindUpdate, "ok").Inc()
	s.publish(ctx, domain.KindUpdate, fmt.Sprintf("%g,%g;%g,%g", box.SW.Lat, box.SW.Lng, box.NE.Lat, box.NE.Lng), len(places))
	return places, nil
}

func (s *PlaceService) publish(ctx context.Context, kind, query string, n int) {
	if s.events == nil {
		return
	}
	ev := &domain.LookupEvent{Kind: kind, Query: query, Results: n, At: time.Now().UnixMilli()}
	if err := s.events.PublishLookup(ctx, ev); err != nil {
		slog.DebugContext(ctx, "publish lookup event failed", "kind", kind, "error", err)
	}
}

// within drops rows outside box, so every store honours the same bounds.
func within(places []domain.Place, box domain.BoundingBox) []domain.Place {
	out := places[:0:0]
	for _, p := range places {
		if box.Contains(domain.GeoPoint{Lat: p.Latitude, Lng: p.Longitude}) {
			out = append(out, p)
		}
	}
	return out
}

// dedupe keeps the first place seen for each group key.
func dedupe(places []domain.Place) []domain.Place {
	seen := make(map[domain.GroupKey]struct{}, len(places))
	out := make([]domain.Place, 0, len(places))
	for _, p := range places {
		k := p.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

// sample draws at most n places uniformly (reservoir sampling) and shuffles them.
func sample(places []domain.Place, n int, rng *rand.Rand) []domain.Place {
	out := make([]domain.Place, 0, min(n, len(places)))
	for i, p := range places {
		if i < n {
			out = append(out, p)
			continue
		}
		if j := rng.IntN(i + 1); j < n {
			out[j] = p
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
