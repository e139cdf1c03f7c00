// Command importer loads a GeoNames postal-code dump into the places table.
//
//	importer [-replace] <file.txt|file.zip|https://download.geonames.org/export/zip/US.zip>
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/mashup/internal/core/domain"
	"github.com/samirrijal/mashup/internal/pkg/config"
	"github.com/samirrijal/mashup/internal/pkg/logging"
)

var placeCopyColumns = []string{
	"country_code", "postal_code", "place_name", "admin_name1", "admin_code1", "latitude", "longitude",
}

func main() {
	replace := flag.Bool("replace", false, "truncate places before loading")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: importer [-replace] <path-or-url>")
		os.Exit(2)
	}
	source := flag.Arg(0)

	cfg, err := config.Load("mashup-importer")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format, "mashup-importer")

	ctx := context.Background()
	if err := run(ctx, cfg, source, *replace, logger); err != nil {
		logger.Error("import failed", "source", source, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, source string, replace bool, logger *slog.Logger) error {
	data, err := fetch(ctx, source)
	if err != nil {
		return err
	}
	r, err := openDump(data)
	if err != nil {
		return err
	}
	places, skipped, err := readPlaces(r)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	logger.Info("dump parsed", "rows", len(places), "skipped", skipped)

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	start := time.Now()
	n, err := load(ctx, pool, places, replace)
	if err != nil {
		return err
	}
	logger.Info("import complete", "rows", n, "replace", replace, "took", time.Since(start).String())
	return nil
}

// load copies places in one transaction so a failed import leaves the table untouched.
func load(ctx context.Context, pool *pgxpool.Pool, places []domain.Place, replace bool) (int64, error) {
	var n int64
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if replace {
			if _, err := tx.Exec(ctx, `TRUNCATE places`); err != nil {
				return fmt.Errorf("truncate: %w", err)
			}
		}
		var err error
		n, err = tx.CopyFrom(ctx, pgx.Identifier{"places"}, placeCopyColumns,
			pgx.CopyFromSlice(len(places), func(i int) ([]any, error) {
				p := places[i]
				return []any{p.CountryCode, p.PostalCode, p.PlaceName, p.AdminName1, p.AdminCode1, p.Latitude, p.Longitude}, nil
			}))
		if err != nil {
			return fmt.Errorf("copy: %w", err)
		}
		return nil
	})
	return n, err
}

func fetch(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.ReadFile(source)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, source)
	}
	return io.ReadAll(resp.Body)
}
