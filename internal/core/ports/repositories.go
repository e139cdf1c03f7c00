package ports

import (
	"context"

	"github.com/samirrijal/mashup/internal/core/domain"
)

// PlaceRepository reads the static places table.
type PlaceRepository interface {
	// ByPostalPrefix returns places whose postal_code starts with prefix.
	ByPostalPrefix(ctx context.Context, prefix string) ([]domain.Place, error)
	// ByCity returns places whose place_name matches city.
	ByCity(ctx context.Context, city string) ([]domain.Place, error)
	// ByCityAndState returns places matching city whose admin_code1 matches
	// stateCode or whose admin_name1 matches stateName.
	ByCityAndState(ctx context.Context, city, stateCode, stateName string) ([]domain.Place, error)
	// InBounds returns places inside box, at most one per domain.GroupKey.
	InBounds(ctx context.Context, box domain.BoundingBox) ([]domain.Place, error)
}
