package gemini

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
	"github.com/RealRedbaron07/JobApplier/internal/materials"
)

type stubGenerator struct {
	response   string
	err        error
	cacheName  string
	cacheErr   error
	lastPrompt string
	usedCache  bool
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	s.usedCache = false
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) GenerateContentWithCache(_ context.Context, prompt, _ string) (string, error) {
	s.lastPrompt = prompt
	s.usedCache = true
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) EnsureProfileCache(_ context.Context, _, _ string) (string, error) {
	if s.cacheErr != nil {
		return "", s.cacheErr
	}
	return s.cacheName, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func testCandidate() *jobs.Candidate {
	return &jobs.Candidate{
		Contact: jobs.Contact{Email: "alice@example.com", FirstName: "Alice", LastName: "Doe"},
		Skills:  []string{"go", "sql"},
	}
}

func TestWriterPrepareWithCachedProfile(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{response: "Dear Acme team,\n\nI would love to join.", cacheName: "caches/p1"}
	writer, err := NewWriter(stub, "resume.pdf", t.TempDir(), zap.NewNop(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	posting := jobs.Posting{ID: "gh-42", Title: "Backend Engineer", Company: "Acme"}
	set, err := writer.Prepare(context.Background(), posting, testCandidate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !stub.usedCache {
		t.Fatalf("expected cached generation to be used")
	}
	if !strings.Contains(stub.lastPrompt, "Backend Engineer") {
		t.Fatalf("prompt missing posting title:\n%s", stub.lastPrompt)
	}
	if strings.Contains(stub.lastPrompt, "alice@example.com") {
		t.Fatalf("cached prompt should not inline the profile:\n%s", stub.lastPrompt)
	}

	if set.ResumePath != "resume.pdf" {
		t.Fatalf("unexpected resume path: %q", set.ResumePath)
	}
	body, err := os.ReadFile(set.CoverLetterPath)
	if err != nil {
		t.Fatalf("read cover letter: %v", err)
	}
	if !strings.Contains(string(body), "Dear Acme team,") {
		t.Fatalf("unexpected cover letter body: %q", body)
	}
}

func TestWriterFallsBackWithoutCache(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{response: "letter", cacheErr: errors.New("quota exceeded")}
	writer, err := NewWriter(stub, "resume.pdf", t.TempDir(), zap.NewNop(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := writer.Prepare(context.Background(), jobs.Posting{ID: "j1", Title: "SRE"}, testCandidate()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stub.usedCache {
		t.Fatalf("expected plain generation after cache failure")
	}
	if !strings.Contains(stub.lastPrompt, "alice@example.com") {
		t.Fatalf("full prompt should inline the profile:\n%s", stub.lastPrompt)
	}
}

func TestWriterReportsBackendFailureAsUnavailable(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{err: errors.New("backend down"), cacheName: "caches/p1"}
	writer, err := NewWriter(stub, "resume.pdf", t.TempDir(), zap.NewNop(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = writer.Prepare(context.Background(), jobs.Posting{ID: "j1"}, testCandidate())
	if !errors.Is(err, materials.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable so the chain can fall back, got %v", err)
	}
	if !strings.Contains(err.Error(), "backend down") {
		t.Fatalf("expected the cause in the message, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Dear team,", "Dear team,"},
		{"fenced", "```text\nDear team,\n```", "Dear team,"},
		{"bare fence", "```\nDear team,\n```", "Dear team,"},
		{"whitespace", "  Dear team,  ", "Dear team,"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := stripFences(tc.input); got != tc.want {
				t.Fatalf("stripFences(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
