// Package page assembles complete HTML documents from the header, a
// page-specific body and the footer template.
package page

import (
	"fmt"
	"html"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/templates"
)

// Kind selects which navigation entry is marked active.
type Kind string

const (
	KindHome  Kind = "home"
	KindPosts Kind = "posts"
	KindAbout Kind = "about"
	KindNone  Kind = "none"
)

const activeClass = "active"

// Site carries the values shared by every page of the site.
type Site struct {
	Title     string
	Language  string
	Copyright string // trusted HTML
	IndexFile string
	PostsPage string
	AboutPage string
	CSSFile   string // relative to the output root
}

// Options describes one page to assemble.
type Options struct {
	Title        string // plain text
	Description  string // plain text; defaults to the site title
	Page         Kind
	Content      string // trusted HTML fragment
	RootPath     string // prefix from the page back to the output root, e.g. "../"
	HeadExtra    string
	ScriptsExtra string
}

// Assembler renders pages against one template set.
type Assembler struct {
	set      *templates.Set
	renderer templates.Renderer
	site     Site
}

// NewAssembler returns an Assembler. In strict mode any unresolved
// placeholder fails the page.
func NewAssembler(set *templates.Set, site Site, strict bool) *Assembler {
	return &Assembler{set: set, renderer: templates.Renderer{Strict: strict}, site: site}
}

// Site returns the shared site values.
func (a *Assembler) Site() Site { return a.site }

// Assemble produces header + content + footer. It has no side effects.
func (a *Assembler) Assemble(opts Options) (string, error) {
	values := a.chrome(opts)

	header, err := a.render(templates.Header, values)
	if err != nil {
		return "", err
	}
	footer, err := a.render(templates.Footer, values)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(header) + len(opts.Content) + len(footer))
	sb.WriteString(header)
	sb.WriteString(opts.Content)
	sb.WriteString(footer)
	return sb.String(), nil
}

// chrome returns the values every header, footer and body template can use.
func (a *Assembler) chrome(opts Options) templates.Values {
	description := opts.Description
	if description == "" {
		description = a.site.Title
	}
	cssPath := ""
	if a.site.CSSFile != "" {
		cssPath = opts.RootPath + a.site.CSSFile
	}
	return templates.Values{
		"LANG":          html.EscapeString(a.site.Language),
		"SITE_TITLE":    html.EscapeString(a.site.Title),
		"COPYRIGHT":     a.site.Copyright,
		"TITLE":         html.EscapeString(opts.Title),
		"DESCRIPTION":   html.EscapeString(description),
		"ROOT_PATH":     opts.RootPath,
		"CSS_PATH":      cssPath,
		"INDEX_URL":     opts.RootPath + a.site.IndexFile,
		"POSTS_URL":     opts.RootPath + a.site.PostsPage,
		"ABOUT_URL":     opts.RootPath + a.site.AboutPage,
		"HOME_ACTIVE":   active(opts.Page == KindHome),
		"POSTS_ACTIVE":  active(opts.Page == KindPosts),
		"ABOUT_ACTIVE":  active(opts.Page == KindAbout),
		"HEAD_EXTRA":    opts.HeadExtra,
		"SCRIPTS_EXTRA": opts.ScriptsExtra,
	}
}

func (a *Assembler) render(name string, values templates.Values) (string, error) {
	tpl, err := a.set.Get(name)
	if err != nil {
		return "", err
	}
	out, err := a.renderer.Render(name, tpl, values)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return out, nil
}

func active(on bool) string {
	if on {
		return activeClass
	}
	return ""
}
