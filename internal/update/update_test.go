package update

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func releaseServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChecker_Check(t *testing.T) {
	body := `{"tag_name": "v1.3.0", "zipball_url": "https://example.com/zip", "html_url": "https://example.com/release"}`

	tests := []struct {
		name      string
		current   string
		wantNewer bool
	}{
		{"older running version", "v1.2.9", true},
		{"without v prefix", "1.2.0", true},
		{"same version", "v1.3.0", false},
		{"newer running version", "v1.4.0", false},
		{"development build", "dev", false},
	}

	srv := releaseServer(t, http.StatusOK, body)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(srv.Client(), srv.URL, tt.current, testLogger())
			rel, newer, err := c.Check(context.Background())
			if err != nil {
				t.Fatalf("Check() error: %v", err)
			}
			if newer != tt.wantNewer {
				t.Errorf("newer = %v, want %v", newer, tt.wantNewer)
			}
			if rel.ZipballURL != "https://example.com/zip" || rel.HTMLURL != "https://example.com/release" {
				t.Errorf("release = %+v", rel)
			}
		})
	}
}

func TestChecker_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"malformed body", http.StatusOK, "{"},
		{"tag is not a version", http.StatusOK, `{"tag_name": "latest"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := releaseServer(t, tt.status, tt.body)
			if _, _, err := NewChecker(srv.Client(), srv.URL, "v1.0.0", testLogger()).Check(context.Background()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
