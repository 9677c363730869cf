package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cardvault/internal/config"
	"cardvault/internal/notifications"
)

type captured struct {
	title, body, tags, priority string
}

func newTopic(t *testing.T, status int) (*config.Config, <-chan captured) {
	t.Helper()
	requests := make(chan captured, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- captured{
			title:    r.Header.Get("Title"),
			body:     string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("topic says no"))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL + "/cards"
	return &cfg, requests
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if svc.Enabled() {
		t.Fatal("expected disabled service without a topic")
	}
	if err := svc.Publish(context.Background(), notifications.EventImportCompleted, notifications.Payload{}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectBody     string
		expectTags     string
		expectPriority string
	}{
		{
			name:        "import completed",
			event:       notifications.EventImportCompleted,
			payload:     notifications.Payload{Cards: 2, Files: 5, Transferred: 4, Bytes: 3 << 20, Elapsed: 61400 * time.Millisecond},
			expectTitle: "cardvault - Import Complete",
			expectBody:  "Archived 4 file(s) from 2 card(s), 3.0 MiB in 1m1s\n1 already archived",
			expectTags:  "cardvault,import,completed",
		},
		{
			name:           "import failed",
			event:          notifications.EventImportFailed,
			payload:        notifications.Payload{Files: 3, Failed: 1, Err: errors.New("1 transfer(s) failed")},
			expectTitle:    "cardvault - Import Failed",
			expectBody:     "1 of 3 file(s) failed; cards were left mounted\n1 transfer(s) failed",
			expectTags:     "cardvault,import,error",
			expectPriority: "high",
		},
		{
			name:           "import stopped",
			event:          notifications.EventImportFailed,
			payload:        notifications.Payload{Err: errors.New("primary archive: marker missing")},
			expectTitle:    "cardvault - Import Failed",
			expectBody:     "Import stopped\nprimary archive: marker missing",
			expectTags:     "cardvault,import,error",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "cardvault - Test",
			expectBody:     "Notification system test",
			expectTags:     "cardvault,test",
			expectPriority: "low",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, requests := newTopic(t, http.StatusOK)
			svc := notifications.NewService(cfg)
			if !svc.Enabled() {
				t.Fatal("expected enabled service")
			}
			if err := svc.Publish(context.Background(), tt.event, tt.payload); err != nil {
				t.Fatalf("Publish: %v", err)
			}
			got := <-requests
			if got.title != tt.expectTitle || got.body != tt.expectBody || got.tags != tt.expectTags || got.priority != tt.expectPriority {
				t.Fatalf("unexpected request %+v", got)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	cfg, _ := newTopic(t, http.StatusForbidden)
	err := notifications.NewService(cfg).Publish(context.Background(), notifications.EventTest, notifications.Payload{})
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic says no") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestNtfyServiceRejectsUnknownEvent(t *testing.T) {
	cfg, _ := newTopic(t, http.StatusOK)
	if err := notifications.NewService(cfg).Publish(context.Background(), "bogus", notifications.Payload{}); err == nil {
		t.Fatal("expected error for unknown event")
	}
}
