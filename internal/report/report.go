// Package report exports archived sessions as JSON, YAML or Markdown and
// reads them back.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fakeyudi/locus/internal/session"
)

// Renderer serializes a session record to bytes.
type Renderer interface {
	Render(r *session.Record) ([]byte, error)
}

// Parser deserializes an exported report back into a record.
type Parser interface {
	Parse(data []byte) (*session.Record, error)
}

// Format names.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// RendererFor returns the renderer for format. minTitleSeconds hides short
// titles from the Markdown breakdown.
func RendererFor(format string, minTitleSeconds int) (Renderer, error) {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		return &MarkdownRenderer{MinTitleSeconds: minTitleSeconds}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatYAML, "yml":
		return &YAMLRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want markdown, json or yaml)", format)
}

// Extension returns the file extension for format, including the dot.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case FormatJSON:
		return ".json"
	case FormatYAML, "yml":
		return ".yaml"
	}
	return ".md"
}

// Detect picks a parser by sniffing data.
func Detect(data []byte) Parser {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Contains(trimmed, []byte(versionSentinel)):
		return &MarkdownParser{}
	case bytes.HasPrefix(trimmed, []byte("{")):
		return &JSONParser{}
	default:
		return &YAMLParser{}
	}
}

// Parse detects the format of data and parses it.
func Parse(data []byte) (*session.Record, error) {
	return Detect(data).Parse(data)
}
