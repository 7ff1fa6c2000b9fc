package materials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
	"github.com/RealRedbaron07/JobApplier/internal/logger"
)

const coverLetterTemplate = `{{.Greeting}}

I am writing to apply for the {{.Title}} position.
{{- if .Skills}} My background covers {{.Skills}}.{{end}}
{{- if gt .Years 0}} I bring {{.Years}} years of hands-on experience.{{end}}
I believe I can contribute to your team from day one.
{{- if .Location}}

I noticed the role is based in {{.Location}}, which works well for me.
{{- end}}

I would welcome the chance to discuss the role further. Thank you for your
time and consideration.

Best regards,
{{.Name}}
`

// TemplateWriter renders a plain-text cover letter from the candidate
// profile without calling any external service. It is the fallback when no
// AI generator is configured.
type TemplateWriter struct {
	resumePath string
	outputDir  string
	tmpl       *template.Template
	logger     *zap.Logger
}

func NewTemplateWriter(resumePath, outputDir string, log *zap.Logger) (*TemplateWriter, error) {
	resumePath = strings.TrimSpace(resumePath)
	if resumePath == "" {
		return nil, fmt.Errorf("resume path is required")
	}

	tmpl, err := template.New("cover-letter").Parse(coverLetterTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse cover letter template: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &TemplateWriter{
		resumePath: resumePath,
		outputDir:  strings.TrimSpace(outputDir),
		tmpl:       tmpl,
		logger:     log,
	}, nil
}

func (w *TemplateWriter) Prepare(_ context.Context, posting jobs.Posting, candidate *jobs.Candidate) (Set, error) {
	if candidate == nil {
		return Set{}, fmt.Errorf("candidate profile is required")
	}

	greeting := "Dear hiring team,"
	if strings.TrimSpace(posting.Company) != "" {
		greeting = fmt.Sprintf("Dear %s hiring team,", posting.Company)
	}

	data := struct {
		Greeting string
		Title    string
		Location string
		Years    int
		Skills   string
		Name     string
	}{
		Greeting: greeting,
		Title:    fallback(posting.Title, "advertised"),
		Location: posting.Location,
		Years:    candidate.ApparentYears(),
		Skills:   strings.Join(candidate.Skills, ", "),
		Name:     fallback(candidate.FullName(), candidate.Contact.Email),
	}

	var rendered strings.Builder
	if err := w.tmpl.Execute(&rendered, data); err != nil {
		return Set{}, fmt.Errorf("render cover letter: %w", err)
	}

	path, err := WriteCoverLetter(w.outputDir, posting.ID, rendered.String())
	if err != nil {
		return Set{}, err
	}

	logger.WithPostingFields(w.logger, posting.Title, posting.Company).
		Debug("rendered cover letter from template", zap.String("path", path))

	return Set{ResumePath: w.resumePath, CoverLetterPath: path}, nil
}

// WriteCoverLetter stores one rendered cover letter under dir, named after
// the posting so repeated runs overwrite stale copies instead of piling up.
func WriteCoverLetter(dir, postingID, body string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create materials dir: %w", err)
	}

	name := fmt.Sprintf("cover-letter-%s.txt", sanitizeName(postingID))
	path := filepath.Join(dir, name)

	body = strings.TrimSpace(body) + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write cover letter: %w", err)
	}

	return path, nil
}

func sanitizeName(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "posting"
	}
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, id)
	return strings.Trim(mapped, "-")
}

func fallback(value, alt string) string {
	if strings.TrimSpace(value) == "" {
		return alt
	}
	return value
}
