package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is a lat/lng viewport. SW.Lng > NE.Lng means the box
// crosses the antimeridian.
type BoundingBox struct {
	SW GeoPoint `json:"sw"`
	NE GeoPoint `json:"ne"`
}

// CrossesAntimeridian reports whether the western edge lies east of the eastern edge.
func (b BoundingBox) CrossesAntimeridian() bool {
	return b.SW.Lng > b.NE.Lng
}

// Contains reports whether p lies inside the box, honouring antimeridian wrap.
func (b BoundingBox) Contains(p GeoPoint) bool {
	if p.Lat < b.SW.Lat || p.Lat > b.NE.Lat {
		return false
	}
	if b.CrossesAntimeridian() {
		return p.Lng >= b.SW.Lng || p.Lng <= b.NE.Lng
	}
	return p.Lng >= b.SW.Lng && p.Lng <= b.NE.Lng
}

var coordPattern = regexp.MustCompile(`^-?\d+(\.\d+)?,-?\d+(\.\d+)?$`)

// ParseGeoPoint parses a "lat,lng" string of signed decimals.
func ParseGeoPoint(s string) (GeoPoint, error) {
	if !coordPattern.MatchString(s) {
		return GeoPoint{}, fmt.Errorf("%w: %q is not in lat,lng format", ErrValidation, s)
	}
	parts := strings.SplitN(s, ",", 2)
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: latitude %q: %v", ErrValidation, parts[0], err)
	}
	lng, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: longitude %q: %v", ErrValidation, parts[1], err)
	}
	if lat < -90 || lat > 90 {
		return GeoPoint{}, fmt.Errorf("%w: latitude %v out of range", ErrValidation, lat)
	}
	if lng < -180 || lng > 180 {
		return GeoPoint{}, fmt.Errorf("%w: longitude %v out of range", ErrValidation, lng)
	}
	return GeoPoint{Lat: lat, Lng: lng}, nil
}

// ParseBoundingBox builds a box from the sw and ne corner strings.
func ParseBoundingBox(sw, ne string) (BoundingBox, error) {
	if sw == "" {
		return BoundingBox{}, fmt.Errorf("%w: missing sw", ErrValidation)
	}
	if ne == "" {
		return BoundingBox{}, fmt.Errorf("%w: missing ne", ErrValidation)
	}
	swPt, err := ParseGeoPoint(sw)
	if err != nil {
		return BoundingBox{}, fmt.Errorf("invalid sw: %w", err)
	}
	nePt, err := ParseGeoPoint(ne)
	if err != nil {
		return BoundingBox{}, fmt.Errorf("invalid ne: %w", err)
	}
	if swPt.Lat > nePt.Lat {
		return BoundingBox{}, fmt.Errorf("%w: sw latitude %v is north of ne latitude %v", ErrValidation, swPt.Lat, nePt.Lat)
	}
	return BoundingBox{SW: swPt, NE: nePt}, nil
}
