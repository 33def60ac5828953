// Package frontmatter splits markdown sources into a YAML metadata block and
// a body, and exposes the blog's front matter keys with their defaults.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

var utf8BOM = []byte("\xef\xbb\xbf")

// Style captures the newline convention of a source document.
type Style struct {
	Newline string
}

// ErrMissingClosingDelimiter indicates the document started with a front
// matter delimiter but no closing delimiter line followed.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Split separates `---` delimited front matter from the markdown body.
//
// The opening delimiter must be the first line (a UTF-8 BOM is ignored). The
// closing delimiter is the next line consisting of `---`, optionally followed
// by trailing whitespace, and may be the last line of the file. If the
// document does not start with a delimiter, had is false and body is the
// full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)
	src := bytes.TrimPrefix(content, utf8BOM)

	first, rest, _ := cutLine(src)
	if !isDelimiter(first) {
		return nil, content, false, style, nil
	}

	pos := 0
	for pos < len(rest) {
		line, next, _ := cutLine(rest[pos:])
		if isDelimiter(line) {
			return rest[:pos], next, true, style, nil
		}
		pos = len(rest) - len(next)
	}
	return nil, nil, false, style, ErrMissingClosingDelimiter
}

// Join reassembles a document from raw front matter and body.
//
// If had is false, Join returns body as-is.
func Join(frontmatter []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	var buf bytes.Buffer
	buf.Grow(len(frontmatter) + len(body) + 2*(len(delimiter)+len(nl)))
	buf.WriteString(delimiter + nl)
	buf.Write(frontmatter)
	if len(frontmatter) > 0 && !bytes.HasSuffix(frontmatter, []byte("\n")) {
		buf.WriteString(nl)
	}
	buf.WriteString(delimiter + nl)
	buf.Write(body)
	return buf.Bytes()
}

// ParseYAML parses raw YAML front matter (without delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// cutLine returns the first line without its terminator and the remainder.
// found is false when no newline terminates the line.
func cutLine(b []byte) (line, rest []byte, found bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil, false
	}
	return bytes.TrimSuffix(b[:i], []byte("\r")), b[i+1:], true
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t")) == delimiter
}

func detectStyle(content []byte) Style {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return Style{Newline: "\r\n"}
	}
	return Style{Newline: "\n"}
}
