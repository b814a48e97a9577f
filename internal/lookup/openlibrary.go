package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"bookshelf/internal/metadata"
)

type openLibrarySearchResponse struct {
	Docs []openLibraryDoc `json:"docs"`
}

type openLibraryDoc struct {
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear *uint32  `json:"first_publish_year"`
	Publisher        []string `json:"publisher"`
	ISBN             []string `json:"isbn"`
	Subject          []string `json:"subject"`
}

// OpenLibraryClient searches Open Library by ISBN, or by title and author.
type OpenLibraryClient struct {
	http httpClient
}

var _ Provider = (*OpenLibraryClient)(nil)

// NewOpenLibraryClient creates a client rooted at baseURL.
func NewOpenLibraryClient(baseURL string, opts ...Option) (*OpenLibraryClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("openlibrary base url required")
	}
	return &OpenLibraryClient{http: newHTTPClient(baseURL, opts)}, nil
}

// Name returns the source label.
func (c *OpenLibraryClient) Name() string { return SourceOpenLibrary }

// Lookup returns the first matching document. An ISBN takes precedence over
// title and author.
func (c *OpenLibraryClient) Lookup(ctx context.Context, q Query) (*metadata.Record, error) {
	params := url.Values{}
	if isbn := strings.TrimSpace(q.ISBN); isbn != "" {
		params.Set("isbn", isbn)
	} else {
		if title := strings.TrimSpace(q.Title); title != "" {
			params.Set("title", title)
		}
		if author := strings.TrimSpace(q.Author); author != "" {
			params.Set("author", author)
		}
	}
	if len(params) == 0 {
		return nil, nil
	}
	endpoint := c.http.baseURL + "/search.json?" + params.Encode()

	var payload openLibrarySearchResponse
	status, err := c.http.getJSON(ctx, endpoint, &payload)
	if err != nil {
		return nil, fmt.Errorf("openlibrary search: %w", err)
	}
	switch {
	case status == http.StatusNotFound:
		return nil, nil
	case status < 200 || status > 299:
		return nil, fmt.Errorf("openlibrary search returned %d", status)
	}
	if len(payload.Docs) == 0 {
		return nil, nil
	}
	record := payload.Docs[0].record()
	return &record, nil
}

func (d openLibraryDoc) record() metadata.Record {
	return metadata.Record{
		Title:     metadata.Text(d.Title),
		Author:    metadata.Text(strings.Join(d.AuthorName, ", ")),
		Year:      d.FirstPublishYear,
		Publisher: firstOf(d.Publisher),
		Genre:     firstOf(d.Subject),
		ISBN:      firstOf(d.ISBN),
	}
}
