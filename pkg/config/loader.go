package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/AccelByte/extend-levelup-common/pkg/codec"
	"github.com/AccelByte/extend-levelup-common/pkg/domain"
)

// ConfigLoader loads the world document from a JSON file.
//
// Malformed elements are skipped by the decoder and validation findings are
// logged as warnings; only an unreadable file or invalid JSON fails the load.
type ConfigLoader struct {
	documentPath string
	validator    *Validator
	logger       *slog.Logger
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(documentPath string, logger *slog.Logger) *ConfigLoader {
	return &ConfigLoader{
		documentPath: documentPath,
		validator:    NewValidator(),
		logger:       logger,
	}
}

// LoadDocument reads, decodes and validates the document.
func (l *ConfigLoader) LoadDocument() (*domain.Document, error) {
	data, err := os.ReadFile(l.documentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}

	decoder := codec.NewDecoder(l.logger)
	doc, err := decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document JSON: %w", err)
	}

	warnings := l.validator.Validate(doc)
	for _, w := range warnings {
		l.logger.Warn("Document validation warning", "error", w)
	}

	l.logger.Info("Document loaded successfully",
		"worlds", len(doc.Worlds),
		"rewards", len(doc.Rewards),
		"skipped", decoder.Skipped(),
		"warnings", len(warnings),
		"document_path", l.documentPath,
	)

	return doc, nil
}
