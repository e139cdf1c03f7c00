package main

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
)

const sampleDump = "US\t02138\tCambridge\tMassachusetts\tMA\tMiddlesex\t017\t\t\t42.377\t-71.1256\t4\n" +
	"US\t02139\tCambridge\tMassachusetts\tMA\tMiddlesex\t017\t\t\t42.3647\t-71.1042\t4\n" +
	"US\t99999\tBroken\tNowhere\tNW\t\t\t\t\tnot-a-number\t0\t1\n" +
	"US\t00000\tShort\n" +
	"GB\tEC1A\tLondon\tEngland\tENG\t\t\t\t\t51.5203\t-0.0982\t6\n"

func TestParseRecord(t *testing.T) {
	record := strings.Split("US\t02138\t Cambridge \tMassachusetts\tMA\tMiddlesex\t017\t\t\t42.377\t-71.1256\t4", "\t")

	p, err := parseRecord(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PlaceName != "Cambridge" || p.AdminCode1 != "MA" || p.Latitude != 42.377 || p.Longitude != -71.1256 {
		t.Errorf("unexpected place %+v", p)
	}
}

func TestParseRecord_Rejects(t *testing.T) {
	cases := map[string]string{
		"short":        "US\t02138\tCambridge",
		"bad lat":      "US\t02138\tCambridge\tMassachusetts\tMA\t\t\t\t\tx\t-71\t4",
		"out of range": "US\t02138\tCambridge\tMassachusetts\tMA\t\t\t\t\t91\t-71\t4",
		"no name":      "US\t02138\t\tMassachusetts\tMA\t\t\t\t\t42\t-71\t4",
	}
	for name, line := range cases {
		if _, err := parseRecord(strings.Split(line, "\t")); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestReadPlaces(t *testing.T) {
	places, skipped, err := readPlaces(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 3 {
		t.Fatalf("expected 3 places, got %d", len(places))
	}
	if skipped != 2 {
		t.Errorf("expected 2 skipped rows, got %d", skipped)
	}
	if places[2].CountryCode != "GB" || places[2].PostalCode != "EC1A" {
		t.Errorf("unexpected last place %+v", places[2])
	}
}

func TestOpenDump_Zip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{"readme.txt": "ignore me", "US.txt": sampleDump} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, body); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := openDump(buf.Bytes())
	if err != nil {
		t.Fatalf("openDump: %v", err)
	}
	got, _ := io.ReadAll(r)
	if string(got) != sampleDump {
		t.Errorf("expected the US.txt member, got %q", got)
	}
}

func TestOpenDump_PlainText(t *testing.T) {
	r, err := openDump([]byte(sampleDump))
	if err != nil {
		t.Fatalf("openDump: %v", err)
	}
	places, _, err := readPlaces(r)
	if err != nil || len(places) != 3 {
		t.Errorf("expected 3 places, got %d (err %v)", len(places), err)
	}
}
