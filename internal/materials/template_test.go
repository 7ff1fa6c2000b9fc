package materials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

type fakeGenerator struct {
	set Set
	err error
}

func (f *fakeGenerator) Prepare(_ context.Context, _ jobs.Posting, _ *jobs.Candidate) (Set, error) {
	return f.set, f.err
}

func TestStaticGenerator(t *testing.T) {
	t.Parallel()

	gen := Static(" resume.pdf ", "")
	set, err := gen.Prepare(context.Background(), jobs.Posting{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.ResumePath != "resume.pdf" {
		t.Fatalf("unexpected resume path: %q", set.ResumePath)
	}
	if set.CoverLetterPath != "" {
		t.Fatalf("expected empty cover letter path, got %q", set.CoverLetterPath)
	}

	if _, err := Static("", "cl.txt").Prepare(context.Background(), jobs.Posting{}, nil); err == nil {
		t.Fatalf("expected error for missing resume path")
	}
}

func TestChainFallsBack(t *testing.T) {
	t.Parallel()

	want := Set{ResumePath: "resume.pdf"}
	gen := Chain(
		&fakeGenerator{err: ErrUnavailable},
		&fakeGenerator{set: want},
		&fakeGenerator{err: errors.New("must not be reached")},
	)

	set, err := gen.Prepare(context.Background(), jobs.Posting{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set != want {
		t.Fatalf("unexpected set: %+v", set)
	}

	if _, err := Chain(&fakeGenerator{err: ErrUnavailable}).Prepare(context.Background(), jobs.Posting{}, nil); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestTemplateWriterRendersLetter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writer, err := NewTemplateWriter("resume.pdf", dir, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	posting := jobs.Posting{
		ID:       "greenhouse:acme:42",
		Title:    "Backend Engineer",
		Company:  "Acme",
		Location: "Toronto, ON",
	}
	candidate := &jobs.Candidate{
		Contact: jobs.Contact{Email: "alice@example.com", FirstName: "Alice", LastName: "Doe"},
		Skills:  []string{"go", "sql"},
		Experience: []jobs.Experience{
			{Title: "Developer", Company: "Initech", StartYear: 2020, EndYear: 2023},
		},
	}

	set, err := writer.Prepare(context.Background(), posting, candidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.ResumePath != "resume.pdf" {
		t.Fatalf("unexpected resume path: %q", set.ResumePath)
	}

	body, err := os.ReadFile(set.CoverLetterPath)
	if err != nil {
		t.Fatalf("read cover letter: %v", err)
	}
	text := string(body)

	for _, want := range []string{"Acme", "Backend Engineer", "go, sql", "Toronto, ON", "Alice Doe"} {
		if !strings.Contains(text, want) {
			t.Fatalf("cover letter missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "{{") {
		t.Fatalf("cover letter contains unrendered placeholders:\n%s", text)
	}
}

func TestWriteCoverLetterSanitizesName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := WriteCoverLetter(dir, "lever:acme/sre 7", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	name := filepath.Base(path)
	if strings.ContainsAny(name, ":/ ") {
		t.Fatalf("file name not sanitized: %q", name)
	}
	if !strings.HasPrefix(name, "cover-letter-") {
		t.Fatalf("unexpected file name: %q", name)
	}
}
