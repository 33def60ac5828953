// Package markdown renders post bodies to HTML fragments.
//
// Content is author-controlled and trusted: raw HTML inside markdown is passed
// through unchanged and no sanitization step runs. Do not feed untrusted input.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Options configures the goldmark engine.
type Options struct {
	// HardWraps turns soft line breaks inside paragraphs into <br>.
	HardWraps bool
	// GFM enables tables, strikethrough, task lists and autolinks.
	GFM bool
	// Unsafe passes raw HTML through. Only for trusted content.
	Unsafe bool
	// HeadingIDs adds generated id attributes to headings.
	HeadingIDs bool
}

// DefaultOptions mirrors the blog's rendering: breaks on, GFM on, raw HTML kept.
func DefaultOptions() Options {
	return Options{HardWraps: true, GFM: true, Unsafe: true}
}

// Renderer converts markdown to HTML. It holds no per-call state and can be reused.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a Renderer from opts.
func NewRenderer(opts Options) *Renderer {
	var engineOptions []goldmark.Option

	if opts.GFM {
		engineOptions = append(engineOptions, goldmark.WithExtensions(extension.GFM))
	}
	if opts.HeadingIDs {
		engineOptions = append(engineOptions, goldmark.WithParserOptions(parser.WithAutoHeadingID()))
	}

	var rendererOptions []renderer.Option
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if opts.Unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}

	return &Renderer{md: goldmark.New(engineOptions...)}
}

// Render converts a markdown body (front matter already removed) to an HTML fragment.
func (r *Renderer) Render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}
