package report

import (
	"encoding/base64"
	"strings"
	"testing"
)

// Unit tests for parser error conditions.

func TestMarkdownParser_PlainMarkdownWithoutSentinel(t *testing.T) {
	p := &MarkdownParser{}

	plainMarkdown := `# Some Document

This is just a regular Markdown file with no locus sentinel.
`
	_, err := p.Parse([]byte(plainMarkdown))
	if err == nil {
		t.Fatal("expected error for plain Markdown without sentinel, got nil")
	}
	if !strings.Contains(err.Error(), "not a valid locus report") {
		t.Errorf("expected error to contain 'not a valid locus report', got: %q", err.Error())
	}
}

func TestMarkdownParser_CorruptedBase64Payload(t *testing.T) {
	corrupted := versionSentinel + "\n" + dataPrefix + "!!!not-valid-base64!!!" + dataSuffix + "\n\n# Focus session\n"
	_, err := (&MarkdownParser{}).Parse([]byte(corrupted))
	if err == nil || !strings.Contains(err.Error(), "corrupted base64") {
		t.Fatalf("expected corrupted payload error, got %v", err)
	}
}

func TestMarkdownParser_MissingDataPayload(t *testing.T) {
	noData := versionSentinel + "\n\n# Focus session\n"
	_, err := (&MarkdownParser{}).Parse([]byte(noData))
	if err == nil || !strings.Contains(err.Error(), "missing data payload") {
		t.Fatalf("expected missing payload error, got %v", err)
	}
}

func TestMarkdownParser_ValidBase64ButInvalidJSON(t *testing.T) {
	badJSON := base64.StdEncoding.EncodeToString([]byte("this is not json {{{"))
	content := versionSentinel + "\n" + dataPrefix + badJSON + dataSuffix + "\n"
	_, err := (&MarkdownParser{}).Parse([]byte(content))
	if err == nil || !strings.Contains(err.Error(), "embedded JSON") {
		t.Fatalf("expected embedded JSON error, got %v", err)
	}
}

func TestParsersRejectIncompleteRecords(t *testing.T) {
	cases := map[string]Parser{
		`{"id":"x","chartData":{}}`: &JSONParser{},
		"id: x\nchartData: []\n":    &YAMLParser{},
	}
	for in, p := range cases {
		if _, err := p.Parse([]byte(in)); err == nil {
			t.Errorf("%T accepted a record without a start time: %s", p, in)
		}
	}
}

func TestDetect(t *testing.T) {
	cases := []struct {
		in   string
		want Parser
	}{
		{versionSentinel + "\n# x", &MarkdownParser{}},
		{"  {\"id\":1}", &JSONParser{}},
		{"id: abc\n", &YAMLParser{}},
	}
	for _, c := range cases {
		got := Detect([]byte(c.in))
		if gotT, wantT := typeName(got), typeName(c.want); gotT != wantT {
			t.Errorf("Detect(%q) = %s, want %s", c.in, gotT, wantT)
		}
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *MarkdownParser:
		return "markdown"
	case *JSONParser:
		return "json"
	case *YAMLParser:
		return "yaml"
	}
	return "unknown"
}
