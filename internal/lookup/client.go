package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookshelf/internal/metadata"
)

// Query carries the identifiers a provider may search by.
type Query struct {
	Title  string
	Author string
	ISBN   string
	ASIN   string
}

// QueryFromRecord builds a query from the file's current metadata.
func QueryFromRecord(record metadata.Record) Query {
	var q Query
	if record.Title != nil {
		q.Title = *record.Title
	}
	if record.Author != nil {
		q.Author = *record.Author
	}
	if record.ISBN != nil {
		q.ISBN = *record.ISBN
	}
	if record.ASIN != nil {
		q.ASIN = *record.ASIN
	}
	return q
}

// Provider looks up a single record. A nil record with a nil error means the
// provider had nothing for the query.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, q Query) (*metadata.Record, error)
}

const defaultUserAgent = "bookshelf/dev"

type httpClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// Option configures a provider client.
type Option func(*httpClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *httpClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) Option {
	return func(c *httpClient) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.userAgent = agent
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *httpClient) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

func newHTTPClient(baseURL string, opts []Option) httpClient {
	client := httpClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(&client)
	}
	return client
}

// getJSON issues a GET and decodes a 2xx body into out. Non-2xx statuses are
// returned without decoding and without error so callers can decide.
func (c httpClient) getJSON(ctx context.Context, endpoint string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return 0, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response (latency=%v): %w", latency, err)
	}
	return resp.StatusCode, nil
}

type person struct {
	Name string `json:"name"`
}

func joinNames(people []person) *string {
	names := make([]string, 0, len(people))
	for _, p := range people {
		if name := strings.TrimSpace(p.Name); name != "" {
			names = append(names, name)
		}
	}
	return metadata.Text(strings.Join(names, ", "))
}

// yearFromDate takes the leading "YYYY" of a "YYYY-MM-DD" style date.
func yearFromDate(date string) *uint32 {
	head, _, _ := strings.Cut(strings.TrimSpace(date), "-")
	var record metadata.Record
	if err := record.Set(metadata.FieldYear, head); err != nil {
		return nil
	}
	return record.Year
}

func firstOf(values []string) *string {
	for _, value := range values {
		if text := metadata.Text(value); text != nil {
			return text
		}
	}
	return nil
}
