// Package templates implements `{{NAME}}` placeholder substitution and the
// named template resources used to assemble pages.
package templates

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// markerPattern matches a placeholder marker such as {{TITLE}}.
var markerPattern = regexp.MustCompile(`\{\{([A-Z][A-Z0-9_]*)\}\}`)

// ErrUnresolvedPlaceholder is returned in strict mode when a marker has no value.
var ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")

// Values maps placeholder names (without braces) to replacement text.
type Values map[string]string

// Render replaces every {{NAME}} marker that has an entry in values, in a
// single pass: inserted text is never scanned for markers again. A present
// key with an empty value yields an empty string; markers without an entry
// are left in place.
func Render(tpl string, values Values) string {
	return markerPattern.ReplaceAllStringFunc(tpl, func(marker string) string {
		if v, ok := values[marker[2:len(marker)-2]]; ok {
			return v
		}
		return marker
	})
}

// Unresolved lists the distinct marker names in tpl that values does not cover, sorted.
func Unresolved(tpl string, values Values) []string {
	var missing []string
	for _, m := range markerPattern.FindAllStringSubmatch(tpl, -1) {
		if _, ok := values[m[1]]; ok {
			continue
		}
		if !slices.Contains(missing, m[1]) {
			missing = append(missing, m[1])
		}
	}
	slices.Sort(missing)
	return missing
}

// Renderer applies the unrecognized-placeholder policy.
type Renderer struct {
	// Strict turns unresolved markers into an error instead of leaving them verbatim.
	Strict bool
}

// Render substitutes values into the named template. In strict mode any
// unresolved marker fails the render.
func (r Renderer) Render(name, tpl string, values Values) (string, error) {
	if r.Strict {
		if missing := Unresolved(tpl, values); len(missing) > 0 {
			return "", fmt.Errorf("%w in %s: %s", ErrUnresolvedPlaceholder, name, strings.Join(missing, ", "))
		}
	}
	return Render(tpl, values), nil
}
