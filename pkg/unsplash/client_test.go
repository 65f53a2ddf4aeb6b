package unsplash

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/photogram-hq/photogram-poster/pkg/httpclient"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(httpclient.NewRestyClient(2*time.Second), srv.URL+"/", "test-key", "v1", nil)
	return c, srv
}

func TestFetchRandomSuccess(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photos/random" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("collections"); got != "2102317,9254430" {
			t.Fatalf("collections query = %q", got)
		}
		if got := r.URL.Query().Get("content_filter"); got != "high" {
			t.Fatalf("content_filter query = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Client-ID test-key" {
			t.Fatalf("Authorization header = %q", got)
		}
		if got := r.Header.Get("Accept-Version"); got != "v1" {
			t.Fatalf("Accept-Version header = %q", got)
		}
		w.Write([]byte(`{
			"id": "abc123",
			"urls": {"raw": "https://images.example.com/photo-IMG42?ixid=xyz"},
			"user": {"name": "Jane Doe"}
		}`))
	})

	desc, err := c.FetchRandom(context.Background(), "2102317,9254430")
	if err != nil {
		t.Fatalf("FetchRandom: %v", err)
	}
	if desc.ID != "IMG42" {
		t.Fatalf("image id = %q, want IMG42", desc.ID)
	}
	if !strings.HasSuffix(desc.URL, "&fit=crop&w=1080&h=1350") {
		t.Fatalf("image url missing crop params: %s", desc.URL)
	}
	if desc.Author != "Jane Doe" {
		t.Fatalf("author = %q", desc.Author)
	}
}

func TestFetchRandomNonSuccessStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.FetchRandom(context.Background(), "c1")
	var serr *SupplierError
	if !errors.As(err, &serr) || serr.Status != http.StatusForbidden {
		t.Fatalf("expected SupplierError with status 403, got %v", err)
	}
}

func TestFetchRandomMissingRawURL(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "abc", "urls": {}, "user": {"name": "A"}}`))
	})

	_, err := c.FetchRandom(context.Background(), "c1")
	if err == nil || !strings.Contains(err.Error(), "urls.raw") {
		t.Fatalf("expected missing urls.raw error, got %v", err)
	}
}

func TestFetchRandomMissingAuthorIsNonFatal(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "abc", "urls": {"raw": "https://x/photo-P1?a=1"}}`))
	})

	desc, err := c.FetchRandom(context.Background(), "c1")
	if err != nil {
		t.Fatalf("FetchRandom: %v", err)
	}
	if desc.Author != "" {
		t.Fatalf("author = %q, want empty", desc.Author)
	}
	if desc.ID != "P1" {
		t.Fatalf("image id = %q", desc.ID)
	}
}

func TestDeriveImageID(t *testing.T) {
	cases := []struct {
		name     string
		url      string
		fallback string
		want     string
	}{
		{"photo marker", "https://x/photo-IMG1?raw&fit=crop", "fb", "IMG1"},
		{"first marker wins", "https://x/photo-A?u=photo-B", "fb", "A"},
		{"no marker", "https://x/image/123?raw", "fb", "fb"},
		{"marker at query end", "https://x/photo-?raw", "fb", "fb"},
		{"no query", "https://x/photo-IMG9", "fb", "IMG9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveImageID(tc.url, tc.fallback); got != tc.want {
				t.Fatalf("DeriveImageID(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}
