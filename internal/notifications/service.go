package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookshelf/internal/config"
)

const userAgent = "bookshelf"

// Event identifies a notification kind.
type Event string

const (
	EventOrganizeCompleted Event = "organize_completed"
	EventFixCompleted      Event = "fix_completed"
	EventLookupCompleted   Event = "lookup_completed"
	EventError             Event = "error"
	EventTest              Event = "test"
)

// Payload carries the event fields. Missing keys render as defaults.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy notifier, or a no-op when no topic is configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := render(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}
	return n.send(ctx, msg)
}

func render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventOrganizeCompleted:
		copied := payload.number("copied")
		body := fmt.Sprintf("Organized %s into %s", plural(copied, "audiobook"), payload.text("dest", "the library"))
		if n := payload.number("uncategorized"); n > 0 {
			body += fmt.Sprintf("\n%s uncategorized", plural(n, "file"))
		}
		return message{
			title: "Bookshelf - Organize Complete",
			body:  body,
			tags:  []string{"bookshelf", "organize", "completed"},
		}, true
	case EventFixCompleted:
		return message{
			title: "Bookshelf - Library Fixed",
			body:  fmt.Sprintf("Moved %s in %s", plural(payload.number("moved"), "audiobook"), payload.text("dest", "the library")),
			tags:  []string{"bookshelf", "fix", "completed"},
		}, true
	case EventLookupCompleted:
		failed := payload.number("failed")
		title := "Bookshelf - Lookup Complete"
		if failed > 0 {
			title = "Bookshelf - Lookup Complete (with errors)"
		}
		return message{
			title: title,
			body: fmt.Sprintf("Metadata lookup finished: %d updated, %d up to date, %d failed",
				payload.number("processed"), payload.number("skipped"), failed),
			tags: []string{"bookshelf", "lookup", "completed"},
		}, true
	case EventError:
		var b strings.Builder
		b.WriteString("Error")
		if label := payload.text("context", ""); label != "" {
			b.WriteString(" during ")
			b.WriteString(label)
		}
		b.WriteString(": ")
		b.WriteString(payload.text("error", "unknown"))
		return message{
			title:    "Bookshelf - Error",
			body:     b.String(),
			tags:     []string{"bookshelf", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Bookshelf - Test",
			body:     "Notification system test",
			tags:     []string{"bookshelf", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p Payload) text(key, fallback string) string {
	switch v := p[key].(type) {
	case string:
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	case error:
		return strings.TrimSpace(v.Error())
	case fmt.Stringer:
		return v.String()
	}
	return fallback
}

func (p Payload) number(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
