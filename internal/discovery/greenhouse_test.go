package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

const greenhouseBoardPage = `<html><body>
<section>
  <a href="/acme/jobs/100">Backend Engineer</a>
  <a href="/acme/jobs/100">View job</a>
  <a href="/acme/jobs/200">Apply</a>
  <a href="/acme/about">About us</a>
</section>
</body></html>`

func newGreenhouseServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/acme", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(greenhouseBoardPage))
	})
	mux.HandleFunc("/acme/jobs/100", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<h1>Backend Engineer</h1>
<div class="location">Toronto, ON</div>
<div id="content"><p>Go and SQL, every day.</p></div>
</body></html>`))
	})
	mux.HandleFunc("/acme/jobs/200", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<h1>Data Engineer</h1>
<p>Pipelines and warehouses.</p>
</body></html>`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestGreenhouseFetch(t *testing.T) {
	t.Parallel()

	srv := newGreenhouseServer(t)

	source := NewGreenhouse(GreenhouseConfig{
		BaseURL: srv.URL,
		Boards:  []GreenhouseBoard{{Slug: "acme", Company: "Acme"}},
	}, nil, zap.NewNop())

	postings, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings after dedupe, got %d", len(postings))
	}

	byID := map[string]jobs.Posting{}
	for _, p := range postings {
		byID[p.ID] = p
	}

	backend, ok := byID["greenhouse:acme:100"]
	if !ok {
		t.Fatalf("posting greenhouse:acme:100 missing, have %v", postings)
	}
	if backend.Title != "Backend Engineer" {
		t.Errorf("expected board link title, got %q", backend.Title)
	}
	if backend.Company != "Acme" {
		t.Errorf("expected company from config, got %q", backend.Company)
	}
	if backend.Location != "Toronto, ON" {
		t.Errorf("expected hydrated location, got %q", backend.Location)
	}
	if !strings.Contains(backend.Description, "Go and SQL") {
		t.Errorf("expected hydrated description, got %q", backend.Description)
	}
	if backend.ATS != jobs.ATSGreenhouse {
		t.Errorf("expected greenhouse ATS, got %q", backend.ATS)
	}
	if backend.ApplyURL != srv.URL+"/acme/jobs/100" {
		t.Errorf("unexpected apply URL %q", backend.ApplyURL)
	}

	data, ok := byID["greenhouse:acme:200"]
	if !ok {
		t.Fatalf("posting greenhouse:acme:200 missing, have %v", postings)
	}
	if data.Title != "Data Engineer" {
		t.Errorf("junk link text should be replaced from the job page, got %q", data.Title)
	}
	if !strings.Contains(data.Description, "Pipelines and warehouses") {
		t.Errorf("expected body fallback description, got %q", data.Description)
	}
}

func TestGreenhouseFetchSkipsDeadBoard(t *testing.T) {
	t.Parallel()

	srv := newGreenhouseServer(t)

	source := NewGreenhouse(GreenhouseConfig{
		BaseURL: srv.URL,
		Boards: []GreenhouseBoard{
			{Slug: "ghost", Company: "Ghost"},
			{Slug: "acme", Company: "Acme"},
		},
	}, nil, zap.NewNop())

	postings, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected the healthy board's postings, got %d", len(postings))
	}
	for _, p := range postings {
		if !strings.HasPrefix(p.ID, "greenhouse:acme:") {
			t.Errorf("unexpected posting %q", p.ID)
		}
	}
}
