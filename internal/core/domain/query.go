package domain

import (
	"regexp"
	"strings"
	"unicode"
)

var firstSpaceRun = regexp.MustCompile(`\s+`)

// IsPostalPrefix reports whether q is made only of ASCII digits.
func IsPostalPrefix(q string) bool {
	if q == "" {
		return false
	}
	for _, r := range q {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseSearchQuery splits "City[, State]". Without a comma the first run of
// whitespace acts as the separator, so "Cambridge MA" and "Cambridge, MA"
// parse the same way.
func ParseSearchQuery(raw string) SearchQuery {
	normalized := strings.TrimSpace(raw)
	if !strings.Contains(normalized, ",") {
		if loc := firstSpaceRun.FindStringIndex(normalized); loc != nil {
			normalized = normalized[:loc[0]] + "," + normalized[loc[1]:]
		}
	}

	city, state, _ := strings.Cut(normalized, ",")
	return SearchQuery{
		Raw:   raw,
		City:  strings.TrimSpace(city),
		State: strings.TrimSpace(state),
	}
}

// CombinedCity joins city and state with a single space, for multi-word
// city names the separator heuristic split apart ("San Francisco").
func (q SearchQuery) CombinedCity() string {
	if q.State == "" {
		return q.City
	}
	return q.City + " " + q.State
}

// StateName returns the state token with the first letter upper-cased and
// the rest lower-cased, to match full names in admin_name1.
func (q SearchQuery) StateName() string {
	if q.State == "" {
		return ""
	}
	runes := []rune(strings.ToLower(q.State))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
