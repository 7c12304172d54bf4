package fetcher

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/gofeed"

	"feed_notifier/internal/model"
)

type response struct {
	body       string
	statusCode int
	err        error
}

type mockTransport struct {
	mu        sync.Mutex
	responses []response
	calls     int
	userAgent string
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.userAgent = req.Header.Get("User-Agent")
	r := m.responses[min(m.calls, len(m.responses)-1)]
	m.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(r.body)),
	}, nil
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func newTestFetcher(client HTTPClient) *Fetcher {
	f := New(client)
	f.backoff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return f
}

func TestFetch(t *testing.T) {
	xml := loadFixture(t, "../../testdata/sample.xml")

	tests := []struct {
		name      string
		responses []response
		wantIDs   []string
		wantCalls int
		wantErr   bool
	}{
		{
			name:      "successful fetch",
			responses: []response{{body: xml, statusCode: 200}},
			wantIDs: []string{
				"item-5",
				"item-4",
				"item-3",
				"https://devops.example.com/terraform-locking",
				"item-1",
			},
			wantCalls: 1,
		},
		{
			name:      "not found is not retried",
			responses: []response{{body: "not found", statusCode: 404}},
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name:      "invalid xml is not retried",
			responses: []response{{body: "not xml at all", statusCode: 200}},
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name: "server error then success",
			responses: []response{
				{body: "oops", statusCode: 503},
				{body: xml, statusCode: 200},
			},
			wantIDs: []string{
				"item-5",
				"item-4",
				"item-3",
				"https://devops.example.com/terraform-locking",
				"item-1",
			},
			wantCalls: 2,
		},
		{
			name:      "network error exhausts retries",
			responses: []response{{err: io.ErrUnexpectedEOF}},
			wantCalls: 1 + maxRetries,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &mockTransport{responses: tt.responses}
			f := newTestFetcher(transport)
			entries, err := f.Fetch(context.Background(), "https://example.com/rss")

			if diff := cmp.Diff(tt.wantCalls, transport.calls); diff != "" {
				t.Errorf("call count mismatch (-want +got):\n%s", diff)
			}
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var ids []string
			for _, e := range entries {
				ids = append(ids, e.Identifier())
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("identifiers mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(userAgent, transport.userAgent); diff != "" {
				t.Errorf("user agent mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetchCancelledContext(t *testing.T) {
	transport := &mockTransport{responses: []response{{err: context.Canceled}}}
	f := newTestFetcher(transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Fetch(ctx, "https://example.com/rss"); err == nil {
		t.Fatal("expected error, got nil")
	}
	if transport.calls > 1 {
		t.Errorf("expected at most one attempt, got %d", transport.calls)
	}
}

func TestToEntry(t *testing.T) {
	published := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		item *gofeed.Item
		want model.Entry
	}{
		{
			name: "all fields",
			item: &gofeed.Item{
				GUID:            "abc-123",
				Title:           "Post",
				Link:            "https://example.com/post",
				Description:     "Body",
				PublishedParsed: &published,
				UpdatedParsed:   &updated,
			},
			want: model.Entry{
				ID:        "abc-123",
				Title:     "Post",
				Link:      "https://example.com/post",
				Summary:   "Body",
				Published: &published,
				Updated:   &updated,
			},
		},
		{
			name: "no guid or dates",
			item: &gofeed.Item{Title: "Post", Link: "https://example.com/post"},
			want: model.Entry{Title: "Post", Link: "https://example.com/post"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToEntry(tt.item)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ToEntry() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
