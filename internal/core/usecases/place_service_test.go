package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/samirrijal/mashup/internal/core/domain"
	"github.com/samirrijal/mashup/internal/core/usecases"
)

// --- Mock PlaceRepository ---

type mockPlaceRepo struct {
	byPostalPrefixFn func(ctx context.Context, prefix string) ([]domain.Place, error)
	byCityFn         func(ctx context.Context, city string) ([]domain.Place, error)
	byCityAndStateFn func(ctx context.Context, city, code, name string) ([]domain.Place, error)
	inBoundsFn       func(ctx context.Context, box domain.BoundingBox) ([]domain.Place, error)
}

func (m *mockPlaceRepo) ByPostalPrefix(ctx context.Context, prefix string) ([]domain.Place, error) {
	if m.byPostalPrefixFn != nil {
		return m.byPostalPrefixFn(ctx, prefix)
	}
	return nil, nil
}

func (m *mockPlaceRepo) ByCity(ctx context.Context, city string) ([]domain.Place, error) {
	if m.byCityFn != nil {
		return m.byCityFn(ctx, city)
	}
	return nil, nil
}

func (m *mockPlaceRepo) ByCityAndState(ctx context.Context, city, code, name string) ([]domain.Place, error) {
	if m.byCityAndStateFn != nil {
		return m.byCityAndStateFn(ctx, city, code, name)
	}
	return nil, nil
}

func (m *mockPlaceRepo) InBounds(ctx context.Context, box domain.BoundingBox) ([]domain.Place, error) {
	if m.inBoundsFn != nil {
		return m.inBoundsFn(ctx, box)
	}
	return nil, nil
}

type recordingPublisher struct {
	events []domain.LookupEvent
}

func (p *recordingPublisher) PublishLookup(ctx context.Context, ev *domain.LookupEvent) error {
	p.events = append(p.events, *ev)
	return nil
}

// --- Fixtures ---

var cambridge = []domain.Place{
	{CountryCode: "US", PostalCode: "02138", PlaceName: "Cambridge", AdminName1: "Massachusetts", AdminCode1: "MA", Latitude: 42.3803, Longitude: -71.1389},
	{CountryCode: "US", PostalCode: "02139", PlaceName: "Cambridge", AdminName1: "Massachusetts", AdminCode1: "MA", Latitude: 42.3647, Longitude: -71.1042},
}

// stateFilter mimics the store's case-insensitive city/state match over a fixed table.
func stateFilter(table []domain.Place) func(ctx context.Context, city, code, name string) ([]domain.Place, error) {
	return func(ctx context.Context, city, code, name string) ([]domain.Place, error) {
		var out []domain.Place
		for _, p := range table {
			if p.PlaceName == city && (p.AdminCode1 == code || p.AdminName1 == name) {
				out = append(out, p)
			}
		}
		return out, nil
	}
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// --- Search ---

func TestPlaceService_Search_EmptyQuery(t *testing.T) {
	svc := usecases.NewPlaceService(&mockPlaceRepo{}, nil)
	_, err := svc.Search(context.Background(), "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlaceService_Search_PostalPrefix(t *testing.T) {
	var gotPrefix string
	repo := &mockPlaceRepo{
		byPostalPrefixFn: func(ctx context.Context, prefix string) ([]domain.Place, error) {
			gotPrefix = prefix
			return cambridge, nil
		},
		byCityFn: func(ctx context.Context, city string) ([]domain.Place, error) {
			t.Errorf("ByCity should not be called for a digit query, got %q", city)
			return nil, nil
		},
	}

	svc := usecases.NewPlaceService(repo, nil)
	places, err := svc.Search(context.Background(), "021")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPrefix != "021" {
		t.Errorf("expected prefix 021, got %q", gotPrefix)
	}
	if len(places) != 2 {
		t.Fatalf("expected 2 places, got %d", len(places))
	}
}

func TestPlaceService_Search_CityAndState(t *testing.T) {
	var gotCity, gotCode, gotName string
	repo := &mockPlaceRepo{
		byCityAndStateFn: func(ctx context.Context, city, code, name string) ([]domain.Place, error) {
			gotCity, gotCode, gotName = city, code, name
			return cambridge, nil
		},
	}

	svc := usecases.NewPlaceService(repo, nil)
	places, err := svc.Search(context.Background(), "Cambridge, MA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotCity != "Cambridge" || gotCode != "MA" || gotName != "Ma" {
		t.Errorf("unexpected args: city=%q code=%q name=%q", gotCity, gotCode, gotName)
	}
	if len(places) != 2 {
		t.Fatalf("expected 2 places, got %d", len(places))
	}
}

func TestPlaceService_Search_FullStateName(t *testing.T) {
	repo := &mockPlaceRepo{byCityAndStateFn: stateFilter(cambridge)}
	svc := usecases.NewPlaceService(repo, nil)

	places, err := svc.Search(context.Background(), "Cambridge, massachusetts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("expected 2 places via admin_name1, got %d", len(places))
	}
}

func TestPlaceService_Search_SpaceEqualsComma(t *testing.T) {
	repo := &mockPlaceRepo{byCityAndStateFn: stateFilter(cambridge)}
	svc := usecases.NewPlaceService(repo, nil)

	withComma, err := svc.Search(context.Background(), "Cambridge, MA")
	if err != nil {
		t.Fatal(err)
	}
	withSpace, err := svc.Search(context.Background(), "Cambridge MA")
	if err != nil {
		t.Fatal(err)
	}
	if len(withComma) != len(withSpace) {
		t.Fatalf("result sets differ: %d vs %d", len(withComma), len(withSpace))
	}
	for i := range withComma {
		if withComma[i] != withSpace[i] {
			t.Errorf("row %d differs: %+v vs %+v", i, withComma[i], withSpace[i])
		}
	}
}

func TestPlaceService_Search_MultiWordCityFallback(t *testing.T) {
	sf := domain.Place{CountryCode: "US", PostalCode: "94103", PlaceName: "San Francisco", AdminName1: "California", AdminCode1: "CA"}
	var cityCalls []string
	repo := &mockPlaceRepo{
		byCityAndStateFn: func(ctx context.Context, city, code, name string) ([]domain.Place, error) {
			if city != "San" || code != "Francisco" {
				t.Errorf("unexpected first attempt: city=%q state=%q", city, code)
			}
			return nil, nil
		},
		byCityFn: func(ctx context.Context, city string) ([]domain.Place, error) {
			cityCalls = append(cityCalls, city)
			if city == "San Francisco" {
				return []domain.Place{sf}, nil
			}
			return nil, nil
		},
	}

	svc := usecases.NewPlaceService(repo, nil)
	places, err := svc.Search(context.Background(), "San Francisco")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cityCalls) != 1 || cityCalls[0] != "San Francisco" {
		t.Errorf("expected one retry with %q, got %v", "San Francisco", cityCalls)
	}
	if len(places) != 1 || places[0].PlaceName != "San Francisco" {
		t.Fatalf("expected San Francisco, got %+v", places)
	}
}

func TestPlaceService_Search_NoFallbackWhenFound(t *testing.T) {
	repo := &mockPlaceRepo{
		byCityAndStateFn: stateFilter(cambridge),
		byCityFn: func(ctx context.Context, city string) ([]domain.Place, error) {
			t.Errorf("fallback should not run, got city %q", city)
			return nil, nil
		},
	}
	svc := usecases.NewPlaceService(repo, nil)
	if _, err := svc.Search(context.Background(), "Cambridge MA"); err != nil {
		t.Fatal(err)
	}
}

func TestPlaceService_Search_CityOnlyNoFallback(t *testing.T) {
	calls := 0
	repo := &mockPlaceRepo{
		byCityFn: func(ctx context.Context, city string) ([]domain.Place, error) {
			calls++
			if city != "Springfield" {
				t.Errorf("expected Springfield, got %q", city)
			}
			return nil, nil
		},
	}
	svc := usecases.NewPlaceService(repo, nil)
	places, err := svc.Search(context.Background(), "Springfield")
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected a single store call, got %d", calls)
	}
	if places == nil || len(places) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", places)
	}
}

func TestPlaceService_Search_StoreError(t *testing.T) {
	repo := &mockPlaceRepo{
		byCityFn: func(ctx context.Context, city string) ([]domain.Place, error) {
			return nil, fmt.Errorf("%w: connection refused", domain.ErrStore)
		},
	}
	svc := usecases.NewPlaceService(repo, nil)
	_, err := svc.Search(context.Background(), "Boston")
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestPlaceService_Search_PublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	repo := &mockPlaceRepo{byPostalPrefixFn: func(ctx context.Context, prefix string) ([]domain.Place, error) {
		return cambridge, nil
	}}
	svc := usecases.NewPlaceService(repo, pub)
	if _, err := svc.Search(context.Background(), "0213"); err != nil {
		t.Fatal(err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	if ev := pub.events[0]; ev.Kind != "search" || ev.Query != "0213" || ev.Results != 2 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

// --- Viewport ---

var njBox = domain.BoundingBox{
	SW: domain.GeoPoint{Lat: 40.0, Lng: -75.0},
	NE: domain.GeoPoint{Lat: 41.0, Lng: -74.0},
}

func gridPlaces(n int) []domain.Place {
	places := make([]domain.Place, 0, n)
	for i := 0; i < n; i++ {
		places = append(places, domain.Place{
			CountryCode: "US",
			PostalCode:  fmt.Sprintf("%05d", 10000+i),
			PlaceName:   fmt.Sprintf("Town %d", i),
			AdminCode1:  "NJ",
			Latitude:    40.5,
			Longitude:   -74.5,
		})
	}
	return places
}

func TestPlaceService_Viewport_PassesBox(t *testing.T) {
	box, _ := domain.ParseBoundingBox("40.0,-75.0", "41.0,-74.0")
	var got domain.BoundingBox
	repo := &mockPlaceRepo{inBoundsFn: func(ctx context.Context, b domain.BoundingBox) ([]domain.Place, error) {
		got = b
		return nil, nil
	}}
	svc := usecases.NewPlaceService(repo, nil)
	places, err := svc.Viewport(context.Background(), box)
	if err != nil {
		t.Fatal(err)
	}
	if got != box {
		t.Errorf("expected box %+v, got %+v", box, got)
	}
	if places == nil || len(places) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", places)
	}
}

func TestPlaceService_Viewport_CapsAtTen(t *testing.T) {
	repo := &mockPlaceRepo{inBoundsFn: func(ctx context.Context, b domain.BoundingBox) ([]domain.Place, error) {
		return gridPlaces(250), nil
	}}
	svc := usecases.NewPlaceService(repo, nil).WithRand(seeded())

	places, err := svc.Viewport(context.Background(), njBox)
	if err != nil {
		t.Fatal(err)
	}
	if len(places) != usecases.MaxViewportPlaces {
		t.Fatalf("expected %d places, got %d", usecases.MaxViewportPlaces, len(places))
	}
}

func TestPlaceService_Viewport_GroupsDuplicates(t *testing.T) {
	rows := []domain.Place{
		{CountryCode: "US", PostalCode: "02138", PlaceName: "Cambridge", AdminCode1: "MA", Latitude: 40.5, Longitude: -74.5},
		{CountryCode: "US", PostalCode: "02139", PlaceName: "Cambridge", AdminCode1: "MA", Latitude: 40.5, Longitude: -74.5},
		{CountryCode: "US", PostalCode: "02140", PlaceName: "Cambridge", AdminCode1: "MA", Latitude: 40.5, Longitude: -74.5},
		{CountryCode: "US", PostalCode: "02101", PlaceName: "Boston", AdminCode1: "MA", Latitude: 40.5, Longitude: -74.5},
		{CountryCode: "US", PostalCode: "05444", PlaceName: "Cambridge", AdminCode1: "VT", Latitude: 40.5, Longitude: -74.5},
	}
	repo := &mockPlaceRepo{inBoundsFn: func(ctx context.Context, b domain.BoundingBox) ([]domain.Place, error) {
		return rows, nil
	}}
	svc := usecases.NewPlaceService(repo, nil).WithRand(seeded())

	places, err := svc.Viewport(context.Background(), njBox)
	if err != nil {
		t.Fatal(err)
	}
	if len(places) != 3 {
		t.Fatalf("expected 3 grouped places, got %d: %+v", len(places), places)
	}
	seen := map[domain.GroupKey]bool{}
	for _, p := range places {
		if seen[p.Key()] {
			t.Errorf("duplicate group %+v", p.Key())
		}
		seen[p.Key()] = true
	}
}

func TestPlaceService_Viewport_SameSetWhenSmall(t *testing.T) {
	rows := gridPlaces(7)
	repo := &mockPlaceRepo{inBoundsFn: func(ctx context.Context, b domain.BoundingBox) ([]domain.Place, error) {
		return rows, nil
	}}
	svc := usecases.NewPlaceService(repo, nil)

	codes := func() []string {
		places, err := svc.Viewport(context.Background(), njBox)
		if err != nil {
			t.Fatal(err)
		}
		out := make([]string, 0, len(places))
		for _, p := range places {
			out = append(out, p.PostalCode)
		}
		sort.Strings(out)
		return out
	}

	first, second := codes(), codes()
	if len(first) != 7 || len(second) != 7 {
		t.Fatalf("expected all 7 places, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sets differ: %v vs %v", first, second)
		}
	}
}

func TestPlaceService_Viewport_SamplesAcrossInput(t *testing.T) {
	rows := gridPlaces(100)
	repo := &mockPlaceRepo{inBoundsFn: func(ctx context.Context, b domain.BoundingBox) ([]domain.Place, error) {
		return rows, nil
	}}
	svc := usecases.NewPlaceService(repo, nil).WithRand(seeded())

	picked := map[string]bool{}
	for i := 0; i < 50; i++ {
		places, err := svc.Viewport(context.Background(), njBox)
		if err != nil {
			t.Fatal(err)
		}
		for _, p := range places {
			picked[p.PostalCode] = true
		}
	}
	if len(picked) <= usecases.MaxViewportPlaces {
		t.Errorf("expected sampling to reach beyond the first %d rows, saw %d distinct", usecases.MaxViewportPlaces, len(picked))
	}
}

func TestPlaceService_Viewport_DropsRowsOutsideBox(t *testing.T) {
	rows := append(gridPlaces(3), domain.Place{
		CountryCode: "US", PostalCode: "02138", PlaceName: "Cambridge", AdminCode1: "MA",
		Latitude: 42.38, Longitude: -71.14,
	})
	repo := &mockPlaceRepo{inBoundsFn: func(ctx context.Context, b domain.BoundingBox) ([]domain.Place, error) {
		return rows, nil
	}}
	svc := usecases.NewPlaceService(repo, nil)

	places, err := svc.Viewport(context.Background(), njBox)
	if err != nil {
		t.Fatal(err)
	}
	if len(places) != 3 {
		t.Fatalf("expected 3 places inside the box, got %d", len(places))
	}
	for _, p := range places {
		if p.PlaceName == "Cambridge" {
			t.Errorf("place outside the box returned: %+v", p)
		}
	}
}

func TestPlaceService_Viewport_StoreError(t *testing.T) {
	repo := &mockPlaceRepo{inBoundsFn: func(ctx context.Context, b domain.BoundingBox) ([]domain.Place, error) {
		return nil, fmt.Errorf("%w: timeout", domain.ErrStore)
	}}
	svc := usecases.NewPlaceService(repo, nil)
	if _, err := svc.Viewport(context.Background(), njBox); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}
