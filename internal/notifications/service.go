package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"cardvault/internal/config"
)

const userAgent = "cardvault/1.0"

// Event identifies the kind of notification being published.
type Event string

const (
	// EventImportCompleted is sent after every card in a run was archived.
	EventImportCompleted Event = "import_completed"
	// EventImportFailed is sent when a run stops early or leaves failures.
	EventImportFailed Event = "import_failed"
	// EventTest is the operator-triggered connectivity check.
	EventTest Event = "test"
)

// Payload carries the figures rendered into a notification. Fields that do
// not apply to an event are ignored.
type Payload struct {
	Cards       int
	Files       int
	Transferred int
	Failed      int
	Bytes       int64
	Elapsed     time.Duration
	Err         error
}

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
	Enabled() bool
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: strings.TrimSpace(cfg.Notifications.NtfyTopic),
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

func (n *ntfyService) Enabled() bool { return true }

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, err := render(event, payload)
	if err != nil {
		return err
	}
	return n.send(ctx, msg)
}

func render(event Event, p Payload) (message, error) {
	switch event {
	case EventImportCompleted:
		body := fmt.Sprintf("Archived %d file(s) from %d card(s), %s in %s",
			p.Transferred, p.Cards, humanize.IBytes(uint64(max(p.Bytes, 0))), roundElapsed(p.Elapsed))
		if present := p.Files - p.Transferred; present > 0 {
			body += fmt.Sprintf("\n%d already archived", present)
		}
		return message{
			title: "cardvault - Import Complete",
			body:  body,
			tags:  []string{"cardvault", "import", "completed"},
		}, nil
	case EventImportFailed:
		var b strings.Builder
		if p.Failed > 0 {
			fmt.Fprintf(&b, "%d of %d file(s) failed; cards were left mounted", p.Failed, p.Files)
		} else {
			b.WriteString("Import stopped")
		}
		if p.Err != nil {
			b.WriteString("\n")
			b.WriteString(strings.TrimSpace(p.Err.Error()))
		}
		return message{
			title:    "cardvault - Import Failed",
			body:     b.String(),
			tags:     []string{"cardvault", "import", "error"},
			priority: "high",
		}, nil
	case EventTest:
		return message{
			title:    "cardvault - Test",
			body:     "Notification system test",
			tags:     []string{"cardvault", "test"},
			priority: "low",
		}, nil
	default:
		return message{}, fmt.Errorf("unknown notification event %q", event)
	}
}

func roundElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
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
	if msg.priority != "" && msg.priority != "default" {
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

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
func (noopService) Enabled() bool                                  { return false }
