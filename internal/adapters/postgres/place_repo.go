package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/mashup/internal/core/domain"
)

const placeColumns = `country_code, postal_code, place_name,
		       COALESCE(admin_name1, ''), COALESCE(admin_code1, ''),
		       latitude, longitude`

// PlaceRepo implements ports.PlaceRepository with pgx.
type PlaceRepo struct {
	db *DB
}

// NewPlaceRepo creates a new PlaceRepo.
func NewPlaceRepo(db *DB) *PlaceRepo {
	return &PlaceRepo{db: db}
}

// ByPostalPrefix returns places whose postal code starts with prefix.
func (r *PlaceRepo) ByPostalPrefix(ctx context.Context, prefix string) ([]domain.Place, error) {
	return r.query(ctx, "by postal prefix", `
		SELECT `+placeColumns+`
		FROM places
		WHERE postal_code LIKE $1 ESCAPE '\'
	`, escapeLike(prefix)+"%")
}

// ByCity returns places whose name matches city, ignoring case.
func (r *PlaceRepo) ByCity(ctx context.Context, city string) ([]domain.Place, error) {
	return r.query(ctx, "by city", `
		SELECT `+placeColumns+`
		FROM places
		WHERE place_name ILIKE $1 ESCAPE '\'
	`, escapeLike(city))
}

// ByCityAndState matches the state against both the code and the full name.
func (r *PlaceRepo) ByCityAndState(ctx context.Context, city, stateCode, stateName string) ([]domain.Place, error) {
	return r.query(ctx, "by city and state", `
		SELECT `+placeColumns+`
		FROM places
		WHERE (admin_code1 ILIKE $2 ESCAPE '\' OR admin_name1 ILIKE $3 ESCAPE '\')
		  AND place_name ILIKE $1 ESCAPE '\'
	`, escapeLike(city), escapeLike(stateCode), escapeLike(stateName))
}

// InBounds returns one place per (country_code, place_name, admin_code1)
// inside box. A box whose west edge is east of its east edge wraps the
// antimeridian and uses an OR on longitude.
func (r *PlaceRepo) InBounds(ctx context.Context, box domain.BoundingBox) ([]domain.Place, error) {
	lngFilter := `($3 <= longitude AND longitude <= $4)`
	if box.CrossesAntimeridian() {
		lngFilter = `($3 <= longitude OR longitude <= $4)`
	}

	return r.query(ctx, "in bounds", `
		SELECT DISTINCT ON (country_code, place_name, admin_code1) `+placeColumns+`
		FROM places
		WHERE $1 <= latitude AND latitude <= $2 AND `+lngFilter+`
		ORDER BY country_code, place_name, admin_code1, postal_code
	`, box.SW.Lat, box.NE.Lat, box.SW.Lng, box.NE.Lng)
}

func (r *PlaceRepo) query(ctx context.Context, op, sql string, args ...any) ([]domain.Place, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: places %s: %v", domain.ErrStore, op, err)
	}
	places, err := scanPlaces(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: places %s: %v", domain.ErrStore, op, err)
	}
	return places, nil
}

func scanPlaces(rows pgx.Rows) ([]domain.Place, error) {
	defer rows.Close()

	var places []domain.Place
	for rows.Next() {
		var p domain.Place
		if err := rows.Scan(
			&p.CountryCode, &p.PostalCode, &p.PlaceName,
			&p.AdminName1, &p.AdminCode1,
			&p.Latitude, &p.Longitude,
		); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards in user input.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
