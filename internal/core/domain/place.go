package domain

// Place is a named location with a postal code, admin region, and coordinates.
// JSON field names match the columns of the places table.
type Place struct {
	CountryCode string  `json:"country_code"`
	PostalCode  string  `json:"postal_code"`
	PlaceName   string  `json:"place_name"`
	AdminName1  string  `json:"admin_name1"`
	AdminCode1  string  `json:"admin_code1"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// GroupKey identifies places that share a name inside the same admin region.
type GroupKey struct {
	CountryCode string
	PlaceName   string
	AdminCode1  string
}

// Key returns the grouping key used to collapse nearby postal codes.
func (p Place) Key() GroupKey {
	return GroupKey{CountryCode: p.CountryCode, PlaceName: p.PlaceName, AdminCode1: p.AdminCode1}
}

// SearchQuery is a free-text query split into a city and an optional state.
type SearchQuery struct {
	Raw   string `json:"raw"`
	City  string `json:"city"`
	State string `json:"state,omitempty"`
}

// HasState reports whether a second token was present.
func (q SearchQuery) HasState() bool {
	return q.State != ""
}

// Article is a news item related to a postal code.
type Article struct {
	Link  string `json:"link"`
	Title string `json:"title"`
}

// Lookup event kinds.
const (
	KindSearch   = "search"
	KindUpdate   = "update"
	KindArticles = "articles"
)

// IsLookupKind reports whether kind names a published lookup event kind.
func IsLookupKind(kind string) bool {
	switch kind {
	case KindSearch, KindUpdate, KindArticles:
		return true
	}
	return false
}

// LookupEvent is published after a successful lookup.
type LookupEvent struct {
	Kind    string `json:"kind"` // "search" | "update" | "articles"
	Query   string `json:"query"`
	Results int    `json:"results"`
	At      int64  `json:"at"` // unix millis
}
