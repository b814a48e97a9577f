package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"bookshelf/internal/logging"
	"bookshelf/internal/metadata"
)

type audnexusBook struct {
	ASIN          string          `json:"asin"`
	Title         string          `json:"title"`
	Authors       []person        `json:"authors"`
	Narrators     []person        `json:"narrators"`
	SeriesPrimary *audnexusSeries `json:"seriesPrimary"`
	PublisherName string          `json:"publisherName"`
	ReleaseDate   string          `json:"releaseDate"`
	Genres        []person        `json:"genres"`
	Description   string          `json:"description"`
}

type audnexusSeries struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

// AudnexusClient fetches a single book by ASIN. Audnexus has no free text
// search, so queries without an ASIN return nil.
type AudnexusClient struct {
	http   httpClient
	logger *slog.Logger
}

var _ Provider = (*AudnexusClient)(nil)

// NewAudnexusClient creates a client rooted at baseURL.
func NewAudnexusClient(baseURL string, logger *slog.Logger, opts ...Option) (*AudnexusClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("audnexus base url required")
	}
	return &AudnexusClient{
		http:   newHTTPClient(baseURL, opts),
		logger: logging.NewComponentLogger(logger, "audnexus"),
	}, nil
}

// Name returns the source label.
func (c *AudnexusClient) Name() string { return SourceAudnexus }

// Lookup fetches /books/{asin}. Unknown ASINs (404) and upstream failures
// (500) are reported as no result.
func (c *AudnexusClient) Lookup(ctx context.Context, q Query) (*metadata.Record, error) {
	asin := strings.TrimSpace(q.ASIN)
	if asin == "" {
		return nil, nil
	}
	endpoint := c.http.baseURL + "/books/" + url.PathEscape(asin)

	var book audnexusBook
	status, err := c.http.getJSON(ctx, endpoint, &book)
	if err != nil {
		return nil, fmt.Errorf("audnexus book %s: %w", asin, err)
	}
	if status < 200 || status > 299 {
		c.logger.Debug("audnexus returned no book",
			logging.String("asin", asin),
			logging.Int("status", status),
		)
		return nil, nil
	}
	record := book.record()
	return &record, nil
}

func (b audnexusBook) record() metadata.Record {
	record := metadata.Record{
		Title:       metadata.Text(b.Title),
		Author:      joinNames(b.Authors),
		Narrator:    joinNames(b.Narrators),
		Year:        yearFromDate(b.ReleaseDate),
		Description: metadata.Text(b.Description),
		Publisher:   metadata.Text(b.PublisherName),
		ASIN:        metadata.Text(b.ASIN),
	}
	if len(b.Genres) > 0 {
		record.Genre = metadata.Text(b.Genres[0].Name)
	}
	if b.SeriesPrimary != nil {
		record.Series = metadata.Text(b.SeriesPrimary.Name)
		record.SeriesPosition = seriesPosition(b.SeriesPrimary.Position)
	}
	return record
}

// seriesPosition truncates fractional positions such as "1.5" to 1.
func seriesPosition(raw string) *uint32 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || value < 0 || value > float64(^uint32(0)) {
		return nil
	}
	return metadata.Number(uint32(value))
}
