package frontmatter

import (
	"fmt"
)

// Document is the result of splitting a source file.
type Document struct {
	Meta Meta
	// Raw is the YAML between the delimiters, empty when absent.
	Raw  []byte
	Body []byte
	// Had reports whether a front matter block was recognized.
	Had bool
	// Warning is set when a malformed block was ignored.
	Warning error
}

// Extract splits content into metadata and body. It never fails: a missing
// block yields empty metadata and the full text, a block without a closing
// delimiter is treated as body text, and invalid YAML yields empty metadata
// with the block removed. The latter two set Warning.
func Extract(content []byte) Document {
	fm, body, had, _, err := Split(content)
	if err != nil {
		return Document{Meta: Meta{}, Body: content, Warning: err}
	}
	if !had {
		return Document{Meta: Meta{}, Body: body}
	}

	fields, err := ParseYAML(fm)
	if err != nil {
		return Document{
			Meta:    Meta{},
			Raw:     fm,
			Body:    body,
			Had:     true,
			Warning: fmt.Errorf("invalid front matter yaml: %w", err),
		}
	}
	return Document{Meta: Meta(fields), Raw: fm, Body: body, Had: true}
}
