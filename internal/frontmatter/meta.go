package frontmatter

import (
	"fmt"
	"strings"
	"time"
)

// Front matter keys read by the blog builder.
const (
	KeyTitle     = "title"
	KeyDate      = "date"
	KeyUpdated   = "updated"
	KeyUpdate    = "update"
	KeyExcerpt   = "excerpt"
	KeyPublished = "published"
)

// DefaultTitle is used when a document has no title.
const DefaultTitle = "Untitled"

// Meta is the parsed front matter mapping. Missing keys take documented defaults.
type Meta map[string]any

// UpdateKind describes how a document declares its update date.
type UpdateKind int

const (
	// UpdateAbsent means neither `updated` nor `update` is set.
	UpdateAbsent UpdateKind = iota
	// UpdateDate means an explicit date string was given.
	UpdateDate
	// UpdateNow means `update: true`; the build date is used.
	UpdateNow
	// UpdateNone means `update: false`; no update date is shown.
	UpdateNone
)

// Update is the resolved `updated`/`update` declaration.
type Update struct {
	Kind UpdateKind
	Date string
}

// Title returns the title, or DefaultTitle when missing or blank.
func (m Meta) Title() string {
	if s := m.scalar(KeyTitle); s != "" {
		return s
	}
	return DefaultTitle
}

// Date returns the raw date string, empty when absent.
func (m Meta) Date() string {
	return m.scalar(KeyDate)
}

// Excerpt returns the excerpt, empty when absent.
func (m Meta) Excerpt() string {
	return m.scalar(KeyExcerpt)
}

// Published reports whether the document is eligible for output.
// Only an explicit boolean false (or the string "false") unpublishes.
func (m Meta) Published() bool {
	switch v := m[KeyPublished].(type) {
	case bool:
		return v
	case string:
		return !strings.EqualFold(strings.TrimSpace(v), "false")
	default:
		return true
	}
}

// Updated reads `updated`, falling back to `update`.
func (m Meta) Updated() Update {
	for _, key := range []string{KeyUpdated, KeyUpdate} {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		switch vv := v.(type) {
		case bool:
			if vv {
				return Update{Kind: UpdateNow}
			}
			return Update{Kind: UpdateNone}
		default:
			if s := scalarString(vv); s != "" {
				return Update{Kind: UpdateDate, Date: s}
			}
		}
	}
	return Update{Kind: UpdateAbsent}
}

func (m Meta) scalar(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	return scalarString(v)
}

func scalarString(v any) string {
	switch vv := v.(type) {
	case string:
		return strings.TrimSpace(vv)
	case time.Time:
		return vv.Format("2006-01-02")
	default:
		return strings.TrimSpace(fmt.Sprint(vv))
	}
}
