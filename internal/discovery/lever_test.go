package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

const leverFeed = `[
  {
    "id": "abc-1",
    "text": "Platform Engineer",
    "hostedUrl": "https://jobs.lever.co/acme/abc-1",
    "createdAt": 1719800000000,
    "descriptionPlain": "Build the deploy pipeline.",
    "categories": {"location": "Remote", "commitment": "Full-time"}
  },
  {
    "id": "",
    "text": "No identifier",
    "hostedUrl": "https://jobs.lever.co/acme/broken"
  },
  {
    "id": "abc-2",
    "text": "   ",
    "hostedUrl": "https://jobs.lever.co/acme/abc-2"
  }
]`

func TestLeverFetch(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v0/postings/acme", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mode") != "json" {
			http.Error(w, "expected mode=json", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(leverFeed))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	source := NewLever(LeverConfig{
		BaseURL: srv.URL,
		Orgs:    []LeverOrg{{Slug: "acme", Company: "Acme"}},
	}, nil, zap.NewNop())

	postings, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected entries without id or title to be dropped, got %d postings", len(postings))
	}

	p := postings[0]
	if p.ID != "lever:acme:abc-1" {
		t.Errorf("unexpected ID %q", p.ID)
	}
	if p.Title != "Platform Engineer" {
		t.Errorf("unexpected title %q", p.Title)
	}
	if p.Company != "Acme" {
		t.Errorf("expected company from config, got %q", p.Company)
	}
	if p.Location != "Remote" {
		t.Errorf("unexpected location %q", p.Location)
	}
	if p.Description != "Build the deploy pipeline." {
		t.Errorf("unexpected description %q", p.Description)
	}
	if p.ATS != jobs.ATSLever {
		t.Errorf("expected lever ATS, got %q", p.ATS)
	}
	if p.ApplyURL != "https://jobs.lever.co/acme/abc-1" {
		t.Errorf("unexpected apply URL %q", p.ApplyURL)
	}
	if want := time.UnixMilli(1719800000000); !p.DiscoveredAt.Equal(want) {
		t.Errorf("expected discovery time from the feed, got %v", p.DiscoveredAt)
	}
}

func TestDecodeLeverFeedToleratesStringNumbers(t *testing.T) {
	t.Parallel()

	feed, err := decodeLeverFeed([]map[string]any{
		{
			"id":        "abc-3",
			"text":      "SRE",
			"hostedUrl": "https://jobs.lever.co/acme/abc-3",
			"createdAt": "1719800000000",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feed) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(feed))
	}
	if feed[0].CreatedAt != 1719800000000 {
		t.Errorf("expected createdAt parsed from string, got %d", feed[0].CreatedAt)
	}
}

func TestLeverFetchSkipsDeadOrg(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	source := NewLever(LeverConfig{
		BaseURL: srv.URL,
		Orgs:    []LeverOrg{{Slug: "ghost", Company: "Ghost"}},
	}, nil, zap.NewNop())

	postings, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("dead org should be skipped, got error %v", err)
	}
	if len(postings) != 0 {
		t.Fatalf("expected no postings, got %d", len(postings))
	}
}
