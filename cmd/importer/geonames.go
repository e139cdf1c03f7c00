package main

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samirrijal/mashup/internal/core/domain"
)

// GeoNames postal-code dump columns (tab separated, no header).
const (
	colCountryCode = 0
	colPostalCode  = 1
	colPlaceName   = 2
	colAdminName1  = 3
	colAdminCode1  = 4
	colLatitude    = 9
	colLongitude   = 10
)

// parseRecord converts one dump row into a Place.
func parseRecord(record []string) (domain.Place, error) {
	if len(record) <= colLongitude {
		return domain.Place{}, fmt.Errorf("expected at least %d fields, got %d", colLongitude+1, len(record))
	}

	field := func(i int) string { return strings.TrimSpace(record[i]) }

	lat, err := strconv.ParseFloat(field(colLatitude), 64)
	if err != nil {
		return domain.Place{}, fmt.Errorf("latitude %q: %w", record[colLatitude], err)
	}
	lng, err := strconv.ParseFloat(field(colLongitude), 64)
	if err != nil {
		return domain.Place{}, fmt.Errorf("longitude %q: %w", record[colLongitude], err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return domain.Place{}, fmt.Errorf("coordinates out of range: %g,%g", lat, lng)
	}

	p := domain.Place{
		CountryCode: field(colCountryCode),
		PostalCode:  field(colPostalCode),
		PlaceName:   field(colPlaceName),
		AdminName1:  field(colAdminName1),
		AdminCode1:  field(colAdminCode1),
		Latitude:    lat,
		Longitude:   lng,
	}
	if p.CountryCode == "" || p.PostalCode == "" || p.PlaceName == "" {
		return domain.Place{}, errors.New("country_code, postal_code and place_name are required")
	}
	return p, nil
}

// readPlaces parses a whole dump. Malformed rows are counted and skipped.
func readPlaces(r io.Reader) (places []domain.Place, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, skipped, err
		}

		p, err := parseRecord(record)
		if err != nil {
			skipped++
			continue
		}
		places = append(places, p)
	}
	return places, skipped, nil
}

// openDump returns a reader over the dump, unwrapping the single .txt
// member when data is a zip archive as served by download.geonames.org.
func openDump(data []byte) (io.Reader, error) {
	if !bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return bytes.NewReader(data), nil
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, "readme.txt") || !strings.HasSuffix(strings.ToLower(f.Name), ".txt") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		body, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(body), nil
	}
	return nil, errors.New("no .txt member in zip")
}
