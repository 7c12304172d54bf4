package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHandler(t *testing.T) {
	Fetches.WithLabelValues(ResultOK).Inc()

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "health", path: "/healthz", wantStatus: http.StatusOK, wantBody: "ok"},
		{name: "metrics", path: "/metrics", wantStatus: http.StatusOK, wantBody: "feed_notifier_fetches_total"},
		{name: "unknown", path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()
			body, _ := io.ReadAll(resp.Body)

			if diff := cmp.Diff(tt.wantStatus, resp.StatusCode); diff != "" {
				t.Errorf("status mismatch (-want +got):\n%s", diff)
			}
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body %q does not contain %q", body, tt.wantBody)
			}
		})
	}
}

func TestResult(t *testing.T) {
	if diff := cmp.Diff(ResultOK, Result(nil)); diff != "" {
		t.Errorf("Result(nil) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ResultError, Result(errors.New("boom"))); diff != "" {
		t.Errorf("Result(err) mismatch (-want +got):\n%s", diff)
	}
}
