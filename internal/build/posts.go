package build

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/dates"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/blogbuilder/internal/page"
)

// Post is one published document, derived once per build and never persisted.
type Post struct {
	Title       string
	Date        string // normalized YYYY/MM/DD
	UpdateDate  string // empty when no update date is shown
	Excerpt     string
	Slug        string
	ContentHTML string

	Source      string // source file as read
	Output      string // page path relative to the output root
	Fingerprint string

	parsed    dates.Date
	dateValid bool
}

// Summary returns the listing view of the post.
func (p Post) Summary() page.Summary {
	return page.Summary{Title: p.Title, Date: p.Date, Excerpt: p.Excerpt, Slug: p.Slug, Path: p.Output}
}

// resolveUpdate applies the update-date rules: an explicit date is
// normalized, true means the build date, false means none, and an absent
// declaration shows the build date only when it differs from the post date.
func resolveUpdate(u frontmatter.Update, date, buildDate string, f *dates.Formatter) string {
	switch u.Kind {
	case frontmatter.UpdateDate:
		return f.Normalize(u.Date)
	case frontmatter.UpdateNow:
		return buildDate
	case frontmatter.UpdateNone:
		return ""
	default:
		if date != buildDate {
			return buildDate
		}
		return ""
	}
}

// sortPosts orders posts newest first. Posts whose date does not parse come
// after every valid one; ties fall back to the slug so the order never
// depends on directory listing order.
func sortPosts(posts []Post) {
	slices.SortStableFunc(posts, func(a, b Post) int {
		switch {
		case a.dateValid && !b.dateValid:
			return -1
		case !a.dateValid && b.dateValid:
			return 1
		case a.dateValid && b.dateValid:
			if c := b.parsed.Compare(a.parsed); c != 0 {
				return c
			}
		}
		return strings.Compare(a.Slug, b.Slug)
	})
}

func summaries(posts []Post) []page.Summary {
	out := make([]page.Summary, len(posts))
	for i, p := range posts {
		out[i] = p.Summary()
	}
	return out
}
