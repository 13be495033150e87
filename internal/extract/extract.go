// Package extract turns uploaded documents into plain text for the model.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/gabriel-vasile/mimetype"

	app_errors "askflow/backend/internal/errors"
	"askflow/backend/internal/model"
)

// Extractor converts supported document types to text, truncated to MaxChars runes.
type Extractor struct {
	MaxChars  int
	converter *md.Converter
}

func New(maxChars int) *Extractor {
	return &Extractor{
		MaxChars:  maxChars,
		converter: md.NewConverter("", true, nil),
	}
}

var byExtension = map[string]string{
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".json":     "application/json",
	".html":     "text/html",
	".htm":      "text/html",
}

// Extract returns the text of the document. declaredType is the client supplied
// content type and may be empty or generic.
func (e *Extractor) Extract(name string, data []byte, declaredType string) (*model.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: document %q is empty", app_errors.ErrValidation, name)
	}

	mimeType := resolveType(name, data, declaredType)
	var text string
	switch mimeType {
	case "text/plain", "text/markdown", "text/csv":
		text = string(data)
	case "application/json":
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return nil, fmt.Errorf("%w: document %q is not valid JSON", app_errors.ErrValidation, name)
		}
		text = buf.String()
	case "text/html":
		markdown, err := e.converter.ConvertString(string(data))
		if err != nil {
			return nil, fmt.Errorf("could not convert html document: %w", err)
		}
		text = markdown
	default:
		return nil, fmt.Errorf("%w: %s", app_errors.ErrUnsupportedMedia, mimeType)
	}

	text = strings.TrimSpace(strings.ToValidUTF8(text, "�"))
	if text == "" {
		return nil, fmt.Errorf("%w: document %q contains no text", app_errors.ErrValidation, name)
	}

	doc := &model.Document{Name: name, MimeType: mimeType, Text: text}
	if e.MaxChars > 0 && utf8.RuneCountInString(text) > e.MaxChars {
		doc.Text = string([]rune(text)[:e.MaxChars])
		doc.Truncated = true
	}
	return doc, nil
}

func resolveType(name string, data []byte, declared string) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
			if mt == "text/x-markdown" {
				return "text/markdown"
			}
			return mt
		}
	}
	if mt, ok := byExtension[strings.ToLower(filepath.Ext(name))]; ok {
		return mt
	}
	detected := mimetype.Detect(data)
	for _, mt := range []string{"text/html", "application/json", "text/csv", "text/plain"} {
		if detected.Is(mt) {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(detected.String())
	return mt
}
