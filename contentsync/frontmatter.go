package contentsync

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

var fence = []byte("---")

// parseFrontMatter splits a markdown document into its YAML frontmatter
// mapping and the body. A document without a leading fence yields an empty
// mapping and the full body; a fenced block that is not valid YAML is an
// error so the caller can report the file.
func parseFrontMatter(raw []byte) (map[string]any, []byte, error) {
	trimmed := bytes.TrimLeft(raw, "\ufeff\r\n \t")
	if !bytes.HasPrefix(trimmed, fence) {
		return map[string]any{}, raw, nil
	}

	rest := trimmed[len(fence):]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[i+1:]
	} else {
		return map[string]any{}, raw, nil
	}

	end := bytes.Index(rest, append([]byte("\n"), fence...))
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated frontmatter block")
	}
	block := rest[:end]
	body := rest[end+1+len(fence):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	}

	meta := map[string]any{}
	if err := yaml.Unmarshal(block, &meta); err != nil {
		return nil, nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	return meta, body, nil
}

// stringField reads a string value from frontmatter metadata.
func stringField(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

// dateLayouts cover the publish-date formats seen in real content files.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2 2006",
	"Jan 02 2006",
}

// timeField reads a timestamp from frontmatter metadata. yaml.v3 decodes
// unquoted ISO dates as time.Time already; quoted dates arrive as strings.
func timeField(meta map[string]any, key string) (time.Time, bool) {
	switch v := meta[key].(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
