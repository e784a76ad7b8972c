package reference

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ignite/casedeck/internal/config"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(sampleSheet))
	}))
	defer server.Close()

	f := NewFetcher(config.ReferenceConfig{URL: server.URL, TimeoutSeconds: 5})
	table, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if table.Len() != 3 {
		t.Errorf("Len() = %d, want 3", table.Len())
	}
	if _, ok := table.Lookup("1001"); !ok {
		t.Error("Lookup(1001) missed after fetch")
	}
}

func TestFetchExportURLFromSheetID(t *testing.T) {
	f := NewFetcher(config.ReferenceConfig{SheetID: "abc123", GID: "0"})
	want := "https://docs.google.com/spreadsheets/d/abc123/export?format=csv&gid=0"
	if f.exportURL != want {
		t.Errorf("exportURL = %q, want %q", f.exportURL, want)
	}
}

func TestFetchStatusErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantPhrase string
	}{
		{"not found", http.StatusNotFound, "not found"},
		{"access denied", http.StatusForbidden, "access denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			f := NewFetcher(config.ReferenceConfig{URL: server.URL, TimeoutSeconds: 5})
			_, err := f.Fetch(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}

			var unavailable *UnavailableError
			if !errors.As(err, &unavailable) {
				t.Fatalf("error %T, want *UnavailableError", err)
			}
			if unavailable.Status != tt.status {
				t.Errorf("Status = %d, want %d", unavailable.Status, tt.status)
			}
			if !strings.Contains(err.Error(), tt.wantPhrase) {
				t.Errorf("Error() = %q, want it to mention %q", err.Error(), tt.wantPhrase)
			}
		})
	}
}

func TestFetchParseFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Account Name,Industry\nAcme,Retail\n"))
	}))
	defer server.Close()

	f := NewFetcher(config.ReferenceConfig{URL: server.URL, TimeoutSeconds: 5})
	_, err := f.Fetch(context.Background())

	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("error %T, want *UnavailableError", err)
	}
	if unavailable.Status != 0 {
		t.Errorf("Status = %d, want 0 for a parse failure", unavailable.Status)
	}
}

func TestFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	f := NewFetcher(config.ReferenceConfig{URL: server.URL, TimeoutSeconds: 1})
	f.SetHTTPClient(&http.Client{}) // no retries, keep the test fast

	_, err := f.Fetch(context.Background())
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("error %T, want *UnavailableError", err)
	}
}

func TestFetcherBadPolicyFallsBack(t *testing.T) {
	f := NewFetcher(config.ReferenceConfig{SheetID: "x", GID: "0", DuplicatePolicy: "newest"})
	if f.policy != LastWins {
		t.Errorf("policy = %s, want fallback to %s", f.policy, LastWins)
	}
}
