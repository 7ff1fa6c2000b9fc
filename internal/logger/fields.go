package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldSource is the structured log field key for the discovery source name.
	FieldSource = "source"
	// FieldAttempt is the structured log field key for the application attempt id.
	FieldAttempt = "attempt_id"
	// FieldPosting is the structured log field key for the job posting title.
	FieldPosting = "posting"
	// FieldCompany is the structured log field key for the posting's company.
	FieldCompany = "company"
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// PostingFields returns standard zap fields identifying a job posting.
// Empty values are ignored to keep log entries compact when information is missing.
func PostingFields(title, company string) []zap.Field {
	return StringFields(
		StringField{Key: FieldPosting, Value: title},
		StringField{Key: FieldCompany, Value: company},
	)
}

// WithPostingFields attaches the posting identity fields to the provided logger.
// If the logger is nil, a no-op logger is created to avoid panics.
func WithPostingFields(logger *zap.Logger, title, company string) *zap.Logger {
	fields := PostingFields(title, company)
	return WithFields(logger, fields...)
}

// CommonFields returns standard zap fields that describe the AI provider and model.
// Empty values are ignored to keep log entries compact when information is missing.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the common AI fields to the provided logger.
// If the logger is nil, a no-op logger is created to avoid panics.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	fields := CommonFields(provider, model)
	return WithFields(logger, fields...)
}
