package lookup

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"bookshelf/internal/config"
	"bookshelf/internal/logging"
	"bookshelf/internal/merge"
	"bookshelf/internal/metadata"
)

// ErrNoResults reports that no provider returned anything for a query.
var ErrNoResults = errors.New("no lookup results")

// Service queries every configured provider for one file.
type Service struct {
	audnexus Provider
	others   []Provider
	logger   *slog.Logger
}

// Config holds the endpoints and HTTP settings for the default providers.
type Config struct {
	AudibleBaseURL     string
	AudnexusBaseURL    string
	OpenLibraryBaseURL string
	UserAgent          string
	Timeout            time.Duration
}

// ConfigFrom extracts the lookup settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		AudibleBaseURL:     cfg.Lookup.AudibleBaseURL,
		AudnexusBaseURL:    cfg.Lookup.AudnexusBaseURL,
		OpenLibraryBaseURL: cfg.Lookup.OpenLibraryBaseURL,
		UserAgent:          cfg.Lookup.UserAgent,
		Timeout:            cfg.LookupTimeout(),
	}
}

// NewService wires the Audnexus, Audible and Open Library clients.
func NewService(cfg Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	base := []Option{WithUserAgent(cfg.UserAgent), WithTimeout(cfg.Timeout)}
	opts = append(base, opts...)

	audnexus, err := NewAudnexusClient(cfg.AudnexusBaseURL, logger, opts...)
	if err != nil {
		return nil, err
	}
	audible, err := NewAudibleClient(cfg.AudibleBaseURL, logger, opts...)
	if err != nil {
		return nil, err
	}
	openLibrary, err := NewOpenLibraryClient(cfg.OpenLibraryBaseURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewServiceWithProviders(audnexus, []Provider{audible, openLibrary}, logger), nil
}

// NewServiceWithProviders builds a service from explicit providers. The ASIN
// provider may be nil. Results keep the order of others after it.
func NewServiceWithProviders(asinProvider Provider, others []Provider, logger *slog.Logger) *Service {
	return &Service{
		audnexus: asinProvider,
		others:   others,
		logger:   logging.NewComponentLogger(logger, "lookup"),
	}
}

// Query looks the record up everywhere. filenameASIN, when non-empty, takes
// precedence over the ASIN stored in the record. Results are labeled and
// returned in provider order; provider errors are logged and skipped.
func (s *Service) Query(ctx context.Context, record metadata.Record, filenameASIN string) ([]merge.SourceResult, error) {
	q := QueryFromRecord(record)
	fromFilename := false
	if asin := strings.TrimSpace(filenameASIN); asin != "" {
		q.ASIN = asin
		fromFilename = true
	}

	var results []merge.SourceResult
	if s.audnexus != nil && q.ASIN != "" {
		found, err := s.audnexus.Lookup(ctx, q)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.warnProvider(s.audnexus.Name(), err)
		} else if found != nil {
			s.logger.Debug("asin lookup matched",
				logging.String(logging.FieldSource, s.audnexus.Name()),
				logging.String("asin", q.ASIN),
				logging.Bool("from_filename", fromFilename),
			)
			results = append(results, merge.SourceResult{Label: s.audnexus.Name(), Record: *found})
		}
	}

	found := make([]*metadata.Record, len(s.others))
	g, gctx := errgroup.WithContext(ctx)
	for i, provider := range s.others {
		g.Go(func() error {
			record, err := provider.Lookup(gctx, q)
			if err != nil {
				s.warnProvider(provider.Name(), err)
				return nil
			}
			found[i] = record
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, provider := range s.others {
		if found[i] != nil {
			results = append(results, merge.SourceResult{Label: provider.Name(), Record: *found[i]})
		}
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return results, nil
}

func (s *Service) warnProvider(name string, err error) {
	logging.WarnWithContext(s.logger, "lookup provider failed", "lookup_provider_failed",
		logging.String(logging.FieldSource, name),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check network access and the provider base url"),
		logging.String(logging.FieldImpact, "provider skipped for this file"),
	)
}
