package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bookshelf/internal/metadata"
)

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestAudibleLookupFirstProduct(t *testing.T) {
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1.0/catalog/products" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("keywords"); got != "The Martian Andy Weir" {
			t.Errorf("unexpected keywords %q", got)
		}
		if got := r.URL.Query().Get("num_results"); got != "5" {
			t.Errorf("unexpected num_results %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "bookshelf-test" {
			t.Errorf("unexpected user agent %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[
			{"asin":"B082BHJMFF","title":"The Martian","authors":[{"name":"Andy Weir"}],
			 "narrators":[{"name":"R. C. Bray"},{"name":"Wil Wheaton"}],
			 "publisher_name":"Podium","release_date":"2013-03-22",
			 "publisher_summary":"<p>Six days ago, astronaut Mark Watney became one of the first people to walk on Mars.</p><p>Now &amp; then.</p>"},
			{"asin":"B000000000","title":"Other"}]}`))
	})

	client, err := NewAudibleClient(server.URL, nil, WithUserAgent("bookshelf-test"))
	if err != nil {
		t.Fatalf("NewAudibleClient returned error: %v", err)
	}
	got, err := client.Lookup(context.Background(), Query{Title: "The Martian", Author: "Andy Weir"})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	want := &metadata.Record{
		Title:       metadata.Text("The Martian"),
		Author:      metadata.Text("Andy Weir"),
		Narrator:    metadata.Text("R. C. Bray, Wil Wheaton"),
		Year:        metadata.Number(2013),
		Description: metadata.Text("Six days ago, astronaut Mark Watney became one of the first people to walk on Mars. Now & then."),
		Publisher:   metadata.Text("Podium"),
		ASIN:        metadata.Text("B082BHJMFF"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestAudibleLookupWithoutKeywords(t *testing.T) {
	client, err := NewAudibleClient("http://127.0.0.1:1", nil)
	if err != nil {
		t.Fatalf("NewAudibleClient returned error: %v", err)
	}
	got, err := client.Lookup(context.Background(), Query{ISBN: "9780553418026"})
	if err != nil || got != nil {
		t.Fatalf("expected no request and no result, got %#v, %v", got, err)
	}
}

func TestAudibleLookupNonSuccessIsEmpty(t *testing.T) {
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client, _ := NewAudibleClient(server.URL, nil)
	got, err := client.Lookup(context.Background(), Query{Title: "x"})
	if err != nil || got != nil {
		t.Fatalf("expected empty result, got %#v, %v", got, err)
	}
}

func TestAudnexusLookup(t *testing.T) {
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/books/B08G9PRS1K" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"asin":"B08G9PRS1K","title":"Project Hail Mary",
			"authors":[{"name":"Andy Weir"}],"narrators":[{"name":"Ray Porter"}],
			"seriesPrimary":{"name":"Standalone","position":"2.5"},
			"publisherName":"Audible Studios","releaseDate":"2021-05-04",
			"genres":[{"name":"Science Fiction"},{"name":"Fantasy"}],
			"description":"A lone astronaut."}`))
	})
	client, err := NewAudnexusClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewAudnexusClient returned error: %v", err)
	}
	got, err := client.Lookup(context.Background(), Query{ASIN: "B08G9PRS1K"})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	want := &metadata.Record{
		Title:          metadata.Text("Project Hail Mary"),
		Author:         metadata.Text("Andy Weir"),
		Narrator:       metadata.Text("Ray Porter"),
		Series:         metadata.Text("Standalone"),
		SeriesPosition: metadata.Number(2),
		Year:           metadata.Number(2021),
		Description:    metadata.Text("A lone astronaut."),
		Publisher:      metadata.Text("Audible Studios"),
		Genre:          metadata.Text("Science Fiction"),
		ASIN:           metadata.Text("B08G9PRS1K"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestAudnexusMissingBookIsEmpty(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		server := serve(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		client, _ := NewAudnexusClient(server.URL, nil)
		got, err := client.Lookup(context.Background(), Query{ASIN: "B000000000"})
		if err != nil || got != nil {
			t.Fatalf("status %d: expected empty result, got %#v, %v", status, got, err)
		}
	}
}

func TestAudnexusRequiresASIN(t *testing.T) {
	client, _ := NewAudnexusClient("http://127.0.0.1:1", nil)
	got, err := client.Lookup(context.Background(), Query{Title: "x"})
	if err != nil || got != nil {
		t.Fatalf("expected no lookup without asin, got %#v, %v", got, err)
	}
}

func TestOpenLibraryLookupByISBN(t *testing.T) {
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("isbn") != "9780553418026" || query.Get("title") != "" {
			t.Errorf("expected isbn-only search, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"docs":[{"title":"The Martian","author_name":["Andy Weir"],
			"first_publish_year":2011,"publisher":["Crown"],"isbn":["9780553418026","0553418025"],
			"subject":["Mars (Planet)","Fiction"]}]}`))
	})
	client, err := NewOpenLibraryClient(server.URL)
	if err != nil {
		t.Fatalf("NewOpenLibraryClient returned error: %v", err)
	}
	got, err := client.Lookup(context.Background(), Query{Title: "The Martian", ISBN: "9780553418026"})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	want := &metadata.Record{
		Title:     metadata.Text("The Martian"),
		Author:    metadata.Text("Andy Weir"),
		Year:      metadata.Number(2011),
		Publisher: metadata.Text("Crown"),
		Genre:     metadata.Text("Mars (Planet)"),
		ISBN:      metadata.Text("9780553418026"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenLibraryTitleAuthorSearch(t *testing.T) {
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("title") != "The Martian" || query.Get("author") != "Andy Weir" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"docs":[]}`))
	})
	client, _ := NewOpenLibraryClient(server.URL)
	got, err := client.Lookup(context.Background(), Query{Title: "The Martian", Author: "Andy Weir"})
	if err != nil || got != nil {
		t.Fatalf("expected empty result, got %#v, %v", got, err)
	}
}

func TestOpenLibraryStatusHandling(t *testing.T) {
	status := http.StatusNotFound
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	client, _ := NewOpenLibraryClient(server.URL)
	if got, err := client.Lookup(context.Background(), Query{Title: "x"}); err != nil || got != nil {
		t.Fatalf("404: expected empty result, got %#v, %v", got, err)
	}
	status = http.StatusBadGateway
	if _, err := client.Lookup(context.Background(), Query{Title: "x"}); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestClientConstructorsRequireBaseURL(t *testing.T) {
	if _, err := NewAudibleClient(" ", nil); err == nil {
		t.Fatal("expected audible error")
	}
	if _, err := NewAudnexusClient("", nil); err == nil {
		t.Fatal("expected audnexus error")
	}
	if _, err := NewOpenLibraryClient(""); err == nil {
		t.Fatal("expected openlibrary error")
	}
}

func TestStripHTML(t *testing.T) {
	cases := map[string]string{
		"plain text":                         "plain text",
		"<b>Bold</b> and <i>italic</i>":      "Bold and italic",
		"<p>One</p><p>Two</p>":               "One Two",
		"Fish &amp; Chips":                   "Fish & Chips",
		"  <div>\n  spaced \n text </div> ": "spaced text",
	}
	for in, want := range cases {
		if got := StripHTML(in); got != want {
			t.Fatalf("StripHTML(%q) = %q, want %q", in, got, want)
		}
	}
}
