// Package frontmatter codecs YAML frontmatter with a markdown body, the
// record shape the store uses for human-browsable files (issue.md,
// _walk.md, close.meta, _planning_result.md). The plain JSON records
// (run meta, memories.json, proposals.json) are encoded by the store
// package itself.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Split separates a frontmatter block from its trailing body. The input
// must begin with a line containing exactly "---"; the block ends at the
// next such line. Returns the raw YAML block and the remaining body with
// its leading blank line trimmed.
func Split(data []byte) (yamlBlock []byte, body string, err error) {
	s := string(data)
	s = strings.TrimPrefix(s, "\ufeff") // tolerate a stray BOM
	lines := strings.Split(s, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delimiter {
		return nil, "", fmt.Errorf("missing frontmatter delimiter")
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			block := strings.Join(lines[1:i], "\n")
			rest := strings.Join(lines[i+1:], "\n")
			return []byte(block), strings.TrimPrefix(rest, "\n"), nil
		}
	}
	return nil, "", fmt.Errorf("unterminated frontmatter block")
}

// Decode parses data into v (the frontmatter) and returns the body.
func Decode(data []byte, v interface{}) (body string, err error) {
	block, body, err := Split(data)
	if err != nil {
		return "", err
	}
	if err := yaml.Unmarshal(block, v); err != nil {
		return "", fmt.Errorf("parsing frontmatter: %w", err)
	}
	return body, nil
}

// Encode renders v as a frontmatter block followed by body.
func Encode(v interface{}, body string) ([]byte, error) {
	block, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(delimiter)
	buf.WriteString("\n")
	buf.Write(block)
	buf.WriteString(delimiter)
	buf.WriteString("\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
	}
	return buf.Bytes(), nil
}
