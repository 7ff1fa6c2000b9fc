package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
	"github.com/RealRedbaron07/JobApplier/internal/logger"
	"github.com/RealRedbaron07/JobApplier/internal/materials"
	"github.com/RealRedbaron07/JobApplier/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	GenerateContentWithCache(ctx context.Context, prompt, cacheName string) (string, error)
	EnsureProfileCache(ctx context.Context, displayName, payload string) (string, error)
	Model() string
}

// Writer produces a tailored cover letter per posting through Gemini and
// stores it next to the static resume.
type Writer struct {
	generator  contentGenerator
	resumePath string
	outputDir  string
	logger     *zap.Logger
	maxLogLen  int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewWriter(generator contentGenerator, resumePath, outputDir string, log *zap.Logger, maxLogLength int) (*Writer, error) {
	if generator == nil {
		return nil, fmt.Errorf("content generator is required")
	}
	resumePath = strings.TrimSpace(resumePath)
	if resumePath == "" {
		return nil, fmt.Errorf("resume path is required")
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Writer{
		generator:  generator,
		resumePath: resumePath,
		outputDir:  strings.TrimSpace(outputDir),
		logger:     logger.WithCommonFields(log, "gemini", generator.Model()),
		maxLogLen:  maxLogLength,
	}, nil
}

func (w *Writer) Prepare(ctx context.Context, posting jobs.Posting, candidate *jobs.Candidate) (materials.Set, error) {
	if candidate == nil {
		return materials.Set{}, fmt.Errorf("candidate profile is required")
	}

	profileJSON, err := json.MarshalIndent(profilePayload(candidate), "", "  ")
	if err != nil {
		return materials.Set{}, fmt.Errorf("marshal profile payload: %w", err)
	}

	postingJSON, err := json.MarshalIndent(postingPayload(posting), "", "  ")
	if err != nil {
		return materials.Set{}, fmt.Errorf("marshal posting payload: %w", err)
	}

	log := logger.WithPostingFields(w.logger, posting.Title, posting.Company)

	cacheName, err := w.generator.EnsureProfileCache(ctx, candidate.FullName(), string(profileJSON))
	if err != nil {
		log.Debug("profile cache unavailable, sending full prompt", zap.Error(err))
		cacheName = ""
	}

	prompt := buildPrompt(string(profileJSON), string(postingJSON), cacheName != "")

	log.Debug("gemini cover letter request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, w.maxLogLen)),
		zap.Bool("cached_profile", cacheName != ""),
	)

	var raw string
	if cacheName != "" {
		raw, err = w.generator.GenerateContentWithCache(ctx, prompt, cacheName)
	} else {
		raw, err = w.generator.GenerateContent(ctx, prompt)
	}
	if err != nil {
		log.Warn("gemini cover letter failed", zap.Error(err))
		return materials.Set{}, fmt.Errorf("%w: %v", materials.ErrUnavailable, err)
	}

	log.Debug("gemini cover letter response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, w.maxLogLen)),
	)

	body := stripFences(raw)
	if body == "" {
		return materials.Set{}, fmt.Errorf("%w: model returned an empty cover letter", materials.ErrUnavailable)
	}

	path, err := materials.WriteCoverLetter(w.outputDir, posting.ID, body)
	if err != nil {
		return materials.Set{}, err
	}

	log.Info("cover letter generated", zap.String("path", path))

	return materials.Set{ResumePath: w.resumePath, CoverLetterPath: path}, nil
}

func profilePayload(candidate *jobs.Candidate) map[string]any {
	return map[string]any{
		"name":       candidate.FullName(),
		"email":      candidate.Contact.Email,
		"skills":     candidate.Skills,
		"years":      candidate.ApparentYears(),
		"experience": candidate.Experience,
		"education":  candidate.Education,
	}
}

func postingPayload(posting jobs.Posting) map[string]any {
	return map[string]any{
		"title":       posting.Title,
		"company":     posting.Company,
		"location":    posting.Location,
		"description": posting.Description,
	}
}

func buildPrompt(profileJSON, postingJSON string, cachedProfile bool) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Profile:\n{{PROFILE_JSON}}\n\nPosting:\n{{POSTING_JSON}}\n\nCover letter:"
	}

	profileSection := profileJSON
	if cachedProfile {
		profileSection = "(provided in the attached cached content)"
	}

	prompt := strings.ReplaceAll(template, "{{PROFILE_JSON}}", profileSection)
	prompt = strings.ReplaceAll(prompt, "{{POSTING_JSON}}", postingJSON)
	return prompt
}

// stripFences removes a surrounding markdown code fence if the model wrapped
// its answer in one.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```text")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}
