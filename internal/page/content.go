package page

import (
	"html"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/templates"
)

// HighlightHead loads highlight.js for code blocks on post pages.
const HighlightHead = `    <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/styles/github-dark.min.css">
    <script src="https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/highlight.min.js"></script>
    <script>hljs.highlightAll();</script>`

// Summary is what listings show about a post.
type Summary struct {
	Title   string
	Date    string
	Excerpt string
	Slug    string
	Path    string // output-relative page path, forward slashes
}

// Post is the data rendered into a post page body.
type Post struct {
	Summary
	Updated     string // empty when no update date is shown
	ContentHTML string // trusted
	EditLink    string // trusted markup, may be empty
}

// PostContent renders the post body template. rootPath leads from the post
// page back to the output root.
func (a *Assembler) PostContent(p Post, rootPath string) (string, error) {
	values := a.chrome(Options{Title: p.Title, RootPath: rootPath, Page: KindNone})
	values["TITLE"] = html.EscapeString(p.Title)
	values["DATE"] = html.EscapeString(p.Date)
	values["UPDATED"] = updatedSuffix(p.Updated)
	values["CONTENT"] = p.ContentHTML
	values["EDIT_LINK"] = p.EditLink
	values["SLUG"] = html.EscapeString(p.Slug)
	values["EXCERPT"] = html.EscapeString(p.Excerpt)
	values["POST_URL"] = rootPath + escapeURLPath(p.Path)
	return a.render(templates.Post, values)
}

// IndexContent renders the home page body from the given posts, in order.
func (a *Assembler) IndexContent(posts []Summary, rootPath string) (string, error) {
	cards, err := a.items(templates.PostCard, posts, rootPath)
	if err != nil {
		return "", err
	}
	values := a.chrome(Options{RootPath: rootPath, Page: KindHome})
	values["RECENT_POSTS"] = cards
	return a.render(templates.Index, values)
}

// ListingContent renders the all-posts page body.
func (a *Assembler) ListingContent(posts []Summary, rootPath string) (string, error) {
	list, err := a.items(templates.PostItem, posts, rootPath)
	if err != nil {
		return "", err
	}
	values := a.chrome(Options{RootPath: rootPath, Page: KindPosts})
	values["POSTS_LIST"] = list
	return a.render(templates.Posts, values)
}

// AboutContent renders the static about page body.
func (a *Assembler) AboutContent(rootPath string) (string, error) {
	return a.render(templates.About, a.chrome(Options{RootPath: rootPath, Page: KindAbout}))
}

func (a *Assembler) items(name string, posts []Summary, rootPath string) (string, error) {
	parts := make([]string, 0, len(posts))
	for _, p := range posts {
		values := a.chrome(Options{RootPath: rootPath})
		values["TITLE"] = html.EscapeString(p.Title)
		values["DATE"] = html.EscapeString(p.Date)
		values["EXCERPT"] = html.EscapeString(p.Excerpt)
		values["SLUG"] = html.EscapeString(p.Slug)
		values["POST_URL"] = rootPath + escapeURLPath(p.Path)
		out, err := a.render(name, values)
		if err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimRight(out, "\n"))
	}
	return strings.Join(parts, "\n"), nil
}

func updatedSuffix(date string) string {
	if date == "" {
		return ""
	}
	return " / 更新日: " + html.EscapeString(date)
}

// escapeURLPath percent-encodes a relative page path for use in href.
func escapeURLPath(p string) string {
	return html.EscapeString((&url.URL{Path: p}).EscapedPath())
}
