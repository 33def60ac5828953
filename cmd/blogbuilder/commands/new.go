package commands

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/dates"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

// postSkeleton is used when the source directory has no post template.
const postSkeleton = `---
title: Untitled
date: ""
excerpt: ""
published: true
---

本文をここに書きます。
`

// NewCmd implements the 'new' command.
type NewCmd struct {
	Slug  string `arg:"" help:"File name of the post, without .md"`
	Title string `short:"t" help:"Post title"`
	Force bool   `help:"Overwrite an existing post"`
}

func (n *NewCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	path, err := NewPost(cfg, n.Slug, n.Title, n.Force, time.Now)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "Created %s\n", path)
	return nil
}

// NewPost writes source_dir/<slug>.md from the reserved post template (or
// the built-in skeleton) with the date set to today and, when given, the
// title replaced. It returns the path written.
func NewPost(cfg *config.Config, slug, title string, force bool, now func() time.Time) (string, error) {
	slug = strings.TrimSpace(slug)
	slug = strings.TrimSuffix(slug, ".md")
	if slug == "" || slug == "." || slug == ".." || strings.ContainsAny(slug, `/\`) {
		return "", errors.ValidationError("invalid slug").WithContext("slug", slug).Build()
	}
	name := slug + ".md"
	if name == cfg.Paths.ReservedFile {
		return "", errors.ValidationError("slug names the post template file").WithContext("slug", slug).Build()
	}

	target := filepath.Join(cfg.Paths.SourceDir, name)
	if _, err := os.Stat(target); err == nil && !force {
		return "", errors.ValidationError("post already exists (use --force to overwrite)").
			WithContext("path", target).
			Build()
	}

	skeleton, err := os.ReadFile(filepath.Join(cfg.Paths.SourceDir, cfg.Paths.ReservedFile))
	if err != nil {
		if !stderrors.Is(err, os.ErrNotExist) {
			return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to read post template").Build()
		}
		skeleton = []byte(postSkeleton)
	}

	_, _, _, style, _ := frontmatter.Split(skeleton)
	doc := frontmatter.Extract(skeleton)
	fields := make(map[string]any, len(doc.Meta)+2)
	for k, v := range doc.Meta {
		fields[k] = v
	}
	fields[frontmatter.KeyDate] = dates.NewFormatter(cfg.Site.TimezoneOffsetHours, now).CurrentDate()
	if title != "" {
		fields[frontmatter.KeyTitle] = title
	}

	fm, err := frontmatter.SerializeYAML(fields, style)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "failed to encode front matter").Build()
	}
	content := frontmatter.Join(fm, doc.Body, true, style)

	if err := os.MkdirAll(cfg.Paths.SourceDir, 0o755); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to create source directory").Build()
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to write post").
			WithContext("path", target).
			Build()
	}
	return target, nil
}
