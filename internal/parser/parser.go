package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"docs-query/internal/models"
)

// Extractor pulls the plain text out of one file
type Extractor interface {
	Extract(ctx context.Context, filePath string) (string, error)
}

// ExtractorFunc adapts a function to Extractor
type ExtractorFunc func(ctx context.Context, filePath string) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, filePath string) (string, error) {
	return f(ctx, filePath)
}

// Registry maps a lower-case file extension (with the dot) to its extractor
type Registry struct {
	extractors map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// DefaultRegistry knows pdf, txt, docx and xlsx
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(models.ExtPDF, ExtractorFunc(parsePDF))
	r.Register(models.ExtTXT, ExtractorFunc(parseText))
	r.Register(models.ExtDOCX, ExtractorFunc(parseDOCX))
	r.Register(models.ExtXLSX, Fallback(ExtractorFunc(parseXLSX), ExtractorFunc(parseXLSXLegacy)))
	return r
}

func (r *Registry) Register(ext string, e Extractor) {
	r.extractors[strings.ToLower(ext)] = e
}

// Lookup returns the extractor for the extension of filePath
func (r *Registry) Lookup(filePath string) (Extractor, bool) {
	e, ok := r.extractors[strings.ToLower(filepath.Ext(filePath))]
	return e, ok
}

func (r *Registry) Supports(filePath string) bool {
	_, ok := r.Lookup(filePath)
	return ok
}

// Extensions lists the registered extensions in sorted order
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract dispatches filePath to its extractor. Failures wrap
// ErrUnsupportedFormat or ErrParseFailure; a panicking parser is reported
// as a parse failure.
func (r *Registry) Extract(ctx context.Context, filePath string) (text string, err error) {
	e, ok := r.Lookup(filePath)
	if !ok {
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedFormat, filepath.Ext(filePath))
	}

	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("%w: %s: panic: %v", models.ErrParseFailure, filepath.Base(filePath), rec)
		}
	}()

	text, err = e.Extract(ctx, filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", models.ErrParseFailure, filepath.Base(filePath), err)
	}
	return text, nil
}

type fallbackExtractor struct {
	primary   Extractor
	secondary Extractor
}

// Fallback tries primary and, if it fails, secondary
func Fallback(primary, secondary Extractor) Extractor {
	return &fallbackExtractor{primary: primary, secondary: secondary}
}

func (f *fallbackExtractor) Extract(ctx context.Context, filePath string) (string, error) {
	text, err := f.primary.Extract(ctx, filePath)
	if err == nil {
		return text, nil
	}
	log.Warn().Err(err).Str("file", filePath).Msg("Primary parser failed, trying fallback")

	text, fbErr := f.secondary.Extract(ctx, filePath)
	if fbErr != nil {
		return "", fmt.Errorf("%w (fallback: %v)", err, fbErr)
	}
	return text, nil
}
