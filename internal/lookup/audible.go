package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bookshelf/internal/logging"
	"bookshelf/internal/metadata"
)

const audibleResponseGroups = "contributors,product_desc,product_extended_attrs,product_attrs,media"

type audibleSearchResponse struct {
	Products []audibleProduct `json:"products"`
}

type audibleProduct struct {
	ASIN             string   `json:"asin"`
	Title            string   `json:"title"`
	Authors          []person `json:"authors"`
	Narrators        []person `json:"narrators"`
	PublisherName    string   `json:"publisher_name"`
	PublisherSummary string   `json:"publisher_summary"`
	ReleaseDate      string   `json:"release_date"`
}

// AudibleClient searches the Audible catalog by title and author keywords.
type AudibleClient struct {
	http   httpClient
	logger *slog.Logger
}

var _ Provider = (*AudibleClient)(nil)

// NewAudibleClient creates a catalog client rooted at baseURL.
func NewAudibleClient(baseURL string, logger *slog.Logger, opts ...Option) (*AudibleClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("audible base url required")
	}
	return &AudibleClient{
		http:   newHTTPClient(baseURL, opts),
		logger: logging.NewComponentLogger(logger, "audible"),
	}, nil
}

// Name returns the source label.
func (c *AudibleClient) Name() string { return SourceAudible }

// Lookup returns the first (most relevant) catalog product. Queries without a
// title or author return nil.
func (c *AudibleClient) Lookup(ctx context.Context, q Query) (*metadata.Record, error) {
	var keywords []string
	for _, part := range []string{q.Title, q.Author} {
		if part = strings.TrimSpace(part); part != "" {
			keywords = append(keywords, part)
		}
	}
	if len(keywords) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("response_groups", audibleResponseGroups)
	params.Set("keywords", strings.Join(keywords, " "))
	params.Set("num_results", "5")
	params.Set("products_sort_by", "Relevance")
	endpoint := c.http.baseURL + "/1.0/catalog/products?" + params.Encode()

	var payload audibleSearchResponse
	status, err := c.http.getJSON(ctx, endpoint, &payload)
	if err != nil {
		return nil, fmt.Errorf("audible search: %w", err)
	}
	if status < 200 || status > 299 {
		logging.WarnWithContext(c.logger, "audible search returned non-success status", "lookup_status",
			logging.Int("status", status),
			logging.String(logging.FieldErrorHint, "retry later or pick another source"),
			logging.String(logging.FieldImpact, "audible contributes no values"),
		)
		return nil, nil
	}
	if len(payload.Products) == 0 {
		return nil, nil
	}
	record := payload.Products[0].record()
	return &record, nil
}

func (p audibleProduct) record() metadata.Record {
	return metadata.Record{
		Title:       metadata.Text(p.Title),
		Author:      joinNames(p.Authors),
		Narrator:    joinNames(p.Narrators),
		Year:        yearFromDate(p.ReleaseDate),
		Description: metadata.Text(StripHTML(p.PublisherSummary)),
		Publisher:   metadata.Text(p.PublisherName),
		ASIN:        metadata.Text(p.ASIN),
	}
}

// StripHTML returns the text content of an HTML fragment with entities
// decoded and runs of whitespace collapsed.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	doc.Find("p, li, br").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}
