package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/locus/internal/session"
)

// JSONParser parses a JSON-encoded record.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*session.Record, error) {
	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse JSON report: %w", err)
	}
	return checked(&rec)
}

// YAMLParser parses a YAML-encoded record.
type YAMLParser struct{}

func (p *YAMLParser) Parse(data []byte) (*session.Record, error) {
	var rec session.Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML report: %w", err)
	}
	return checked(&rec)
}

// MarkdownParser parses a Markdown report by extracting the embedded base64
// JSON payload from the sentinel comments.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*session.Record, error) {
	content := string(data)

	if !strings.Contains(content, versionSentinel) {
		return nil, fmt.Errorf("not a valid locus report: missing version sentinel")
	}

	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid locus report: missing data payload")
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid locus report: malformed data payload")
	}
	encoded := content[start : start+end]

	jsonBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("not a valid locus report: corrupted base64 payload: %w", err)
	}

	var rec session.Record
	if err := json.Unmarshal(jsonBytes, &rec); err != nil {
		return nil, fmt.Errorf("not a valid locus report: failed to parse embedded JSON: %w", err)
	}
	return checked(&rec)
}

func checked(rec *session.Record) (*session.Record, error) {
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("not a valid locus report: %w", err)
	}
	return rec, nil
}
