// Package knowledge loads the static reference material injected into every
// classification prompt.
package knowledge

import (
	"os"
	"path/filepath"
	"strings"

	"classifybot/internal/logger"
)

// Base is read once at startup and never mutated.
type Base struct {
	Departments string
	Regulation  string
}

// TextExtractor returns the text of each page of a document. Pages without
// text are returned as empty strings.
type TextExtractor interface {
	ExtractPages(path string) ([]string, error)
}

// Load reads the department list as plain text and the regulation through
// extractor when it is a PDF. Missing or unreadable resources become "".
func Load(departmentsPath, regulationPath string, extractor TextExtractor) Base {
	base := Base{Departments: LoadText(departmentsPath)}
	if strings.EqualFold(filepath.Ext(regulationPath), ".pdf") {
		base.Regulation = LoadDocument(regulationPath, extractor)
	} else {
		base.Regulation = LoadText(regulationPath)
	}
	logger.Info().
		Int("departments_chars", len([]rune(base.Departments))).
		Int("regulation_chars", len([]rune(base.Regulation))).
		Msg("knowledge base loaded")
	return base
}

func LoadText(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("knowledge resource unavailable")
		return ""
	}
	return string(data)
}

func LoadDocument(path string, extractor TextExtractor) string {
	if path == "" || extractor == nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("knowledge document unavailable")
		return ""
	}
	pages, err := extractor.ExtractPages(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("knowledge document extraction failed")
		return ""
	}
	return JoinPages(pages)
}

// JoinPages concatenates page texts, each followed by a newline, skipping
// pages that produced no text.
func JoinPages(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		if p == "" {
			continue
		}
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}
