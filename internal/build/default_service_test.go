package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/forge"
	dberrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/manifest"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/templates"
)

// 2024-06-10 12:00 at UTC+9.
func fixedNow() time.Time { return time.Date(2024, 6, 10, 3, 0, 0, 0, time.UTC) }

func noRepository(string, string) (forge.Identity, error) {
	return forge.Identity{}, forge.ErrNotRepository
}

type fixture struct {
	root string
	src  string
	out  string
	cfg  *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		root: root,
		src:  filepath.Join(root, "posts-md"),
		out:  filepath.Join(root, "site"),
		cfg:  config.Default(),
	}
	require.NoError(t, os.MkdirAll(f.src, 0o755))
	f.cfg.Paths.SourceDir = f.src
	f.cfg.Paths.OutputDir = f.out
	return f
}

func (f *fixture) source(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.src, name), []byte(content), 0o644))
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.out, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) service() *DefaultBuildService {
	return NewBuildService().
		WithClock(fixedNow).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithIdentityDetector(noRepository)
}

func (f *fixture) run(t *testing.T) (*BuildResult, error) {
	t.Helper()
	return f.service().Run(context.Background(), BuildRequest{Config: f.cfg})
}

func postSource(title, date string, extra ...string) string {
	var sb strings.Builder
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "title: %q\n", title)
	if date != "" {
		fmt.Fprintf(&sb, "date: %q\n", date)
	}
	for _, line := range extra {
		sb.WriteString(line + "\n")
	}
	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "Body of %s.\n", title)
	return sb.String()
}

func htmlFiles(t *testing.T, dir string) []string {
	t.Helper()
	var found []string
	_ = filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.HasSuffix(p, ".html") {
			found = append(found, p)
		}
		return nil
	})
	return found
}

func TestRunRendersPublishedPostsNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.source(t, "older.md", postSource("Older", "2024/05/01"))
	f.source(t, "newer.md", postSource("Newer", "2024-06-01"))
	f.source(t, "hidden.md", postSource("Hidden", "2024/06/05", "published: false"))
	f.source(t, "_template.md", postSource("Template", ""))
	f.source(t, "notes.txt", "not markdown")

	result, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, result.Status)
	assert.Equal(t, "2024/06/10", result.BuildDate)

	require.Len(t, result.Posts, 2)
	assert.Equal(t, "newer", result.Posts[0].Slug)
	assert.Equal(t, "2024/06/01", result.Posts[0].Date)
	assert.Equal(t, "older", result.Posts[1].Slug)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, ReasonUnpublished, result.Skipped[0].Reason)
	assert.NoFileExists(t, filepath.Join(f.out, "posts", "hidden.html"))
	assert.NoFileExists(t, filepath.Join(f.out, "posts", "_template.html"))

	assert.ElementsMatch(t,
		[]string{"posts/older.html", "posts/newer.html", "index.html", "posts.html", "about.html"},
		result.Pages)

	index := f.read(t, "index.html")
	assert.Less(t, strings.Index(index, "posts/newer.html"), strings.Index(index, "posts/older.html"))
	assert.NotContains(t, index, "Hidden")

	listing := f.read(t, "posts.html")
	assert.Contains(t, listing, "<title>記事一覧 - My Blog</title>")
	assert.Contains(t, f.read(t, "about.html"), "<title>About - My Blog</title>")
}

func TestRunPostPage(t *testing.T) {
	f := newFixture(t)
	f.source(t, "hello.md", postSource("A & B", "2024/06/01", `excerpt: "Short <summary>"`))

	_, err := f.run(t)
	require.NoError(t, err)

	doc := f.read(t, "posts/hello.html")
	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, "<title>A &amp; B - My Blog</title>")
	assert.Contains(t, doc, `content="Short &lt;summary&gt;"`)
	assert.Contains(t, doc, "作成日: 2024/06/01 / 更新日: 2024/06/10")
	assert.Contains(t, doc, "<p>Body of A &amp; B.</p>")
	assert.Contains(t, doc, `href="../css/style.css"`)
	assert.Contains(t, doc, `href="../index.html"`)
	assert.Contains(t, doc, "highlight.min.js")
	assert.NotContains(t, doc, "report-issue", "edit links need a known repository")
}

func TestRunUpdateDates(t *testing.T) {
	tests := []struct {
		name   string
		extra  []string
		date   string
		expect string
	}{
		{name: "absent, same day", date: "2024/06/10", expect: "作成日: 2024/06/10</p>"},
		{name: "absent, older post", date: "2024/06/01", expect: "作成日: 2024/06/01 / 更新日: 2024/06/10</p>"},
		{name: "explicit", date: "2024/06/01", extra: []string{`updated: "2024-06-03"`}, expect: "作成日: 2024/06/01 / 更新日: 2024/06/03</p>"},
		{name: "true", date: "2024/06/10", extra: []string{"updated: true"}, expect: "作成日: 2024/06/10 / 更新日: 2024/06/10</p>"},
		{name: "false", date: "2024/06/01", extra: []string{"updated: false"}, expect: "作成日: 2024/06/01</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.source(t, "post.md", postSource("Post", tt.date, tt.extra...))

			_, err := f.run(t)
			require.NoError(t, err)
			assert.Contains(t, f.read(t, "posts/post.html"), tt.expect)
		})
	}
}

func TestRunMissingDateUsesBuildDate(t *testing.T) {
	f := newFixture(t)
	f.source(t, "undated.md", "# Just a body\n")

	result, err := f.run(t)
	require.NoError(t, err)
	require.Len(t, result.Posts, 1)
	assert.Equal(t, "2024/06/10", result.Posts[0].Date)
	assert.Equal(t, "", result.Posts[0].UpdateDate)
	assert.Equal(t, "Untitled", result.Posts[0].Title)
}

func TestRunIsByteIdenticalAcrossRuns(t *testing.T) {
	f := newFixture(t)
	f.cfg.Build.Manifest = "manifest.json"
	f.source(t, "a.md", postSource("A", "2024/06/01"))
	f.source(t, "b.md", postSource("B", "2024/06/01"))
	f.source(t, "c.md", postSource("C", "not a date"))

	first, err := f.run(t)
	require.NoError(t, err)
	snapshot := map[string]string{"manifest.json": f.read(t, "manifest.json")}
	for _, p := range first.Pages {
		snapshot[p] = f.read(t, p)
	}

	second, err := f.run(t)
	require.NoError(t, err)
	assert.NotEqual(t, first.BuildID, second.BuildID)
	for rel, content := range snapshot {
		assert.Equal(t, content, f.read(t, rel), rel)
	}

	slugs := make([]string, len(second.Posts))
	for i, p := range second.Posts {
		slugs[i] = p.Slug
	}
	assert.Equal(t, []string{"a", "b", "c"}, slugs, "ties by slug, invalid dates last")
}

func TestRunSlugCollisionFails(t *testing.T) {
	f := newFixture(t)
	f.source(t, "Hello.md", postSource("Upper", "2024/06/01"))
	f.source(t, "hello.md", postSource("Lower", "2024/06/02"))

	result, err := f.run(t)
	require.Error(t, err)
	assert.Equal(t, BuildStatusFailed, result.Status)
	assert.True(t, errors.Is(err, ErrSlugCollision))
	assert.True(t, dberrors.HasCategory(err, dberrors.CategoryValidation))
	assert.Contains(t, err.Error(), "Hello.md and hello.md")
	assert.Empty(t, htmlFiles(t, f.out), "nothing is written when slugs collide")
}

func TestRunSlugCollisionUnpublishedDoesNotCount(t *testing.T) {
	f := newFixture(t)
	f.source(t, "Hello.md", postSource("Upper", "2024/06/01", "published: false"))
	f.source(t, "hello.md", postSource("Lower", "2024/06/02"))

	result, err := f.run(t)
	require.NoError(t, err)
	require.Len(t, result.Posts, 1)
	assert.Equal(t, "hello", result.Posts[0].Slug)
}

func TestRunSlugCollisionOverwrite(t *testing.T) {
	f := newFixture(t)
	f.cfg.Build.SlugCollision = config.CollisionOverwrite
	f.source(t, "Hello.md", postSource("Upper", "2024/06/01"))
	f.source(t, "hello.md", postSource("Lower", "2024/06/02"))

	result, err := f.run(t)
	require.NoError(t, err)
	require.Len(t, result.Posts, 1)
	assert.Equal(t, "hello", result.Posts[0].Slug)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, ReasonOverwritten, result.Skipped[0].Reason)
	assert.Equal(t, filepath.Join(f.src, "Hello.md"), result.Skipped[0].Source)
	assert.NoFileExists(t, filepath.Join(f.out, "posts", "Hello.html"))
}

func TestRunNoInputIsEmptyAndWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.source(t, "readme.txt", "nothing to see")
	f.source(t, "_template.md", postSource("Template", ""))

	result, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, BuildStatusEmpty, result.Status)
	assert.True(t, result.Status.IsSuccess())
	assert.Empty(t, result.Pages)
	assert.Empty(t, htmlFiles(t, f.out))
}

func TestRunMissingSourceDirectory(t *testing.T) {
	f := newFixture(t)
	f.cfg.Paths.SourceDir = filepath.Join(f.root, "nope")

	result, err := f.run(t)
	require.Error(t, err)
	assert.Equal(t, BuildStatusFailed, result.Status)
	assert.True(t, dberrors.HasCategory(err, dberrors.CategoryFileSystem))
}

func brokenHeaderTemplates(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := templates.WriteDefaults(dir, false)
	require.NoError(t, err)
	header := filepath.Join(dir, templates.Header)
	data, err := os.ReadFile(header)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(header, append(data, []byte("<!-- {{NOT_A_PLACEHOLDER}} -->\n")...), 0o644))
	return dir
}

func TestRunUnknownPlaceholderFailOpen(t *testing.T) {
	f := newFixture(t)
	f.cfg.Paths.TemplatesDir = brokenHeaderTemplates(t)
	f.source(t, "a.md", postSource("A", "2024/06/01"))

	result, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, result.Status)
	assert.Contains(t, f.read(t, "index.html"), "{{NOT_A_PLACEHOLDER}}")
}

func TestRunUnknownPlaceholderStrict(t *testing.T) {
	f := newFixture(t)
	f.cfg.Paths.TemplatesDir = brokenHeaderTemplates(t)
	f.source(t, "a.md", postSource("A", "2024/06/01"))

	result, err := f.service().Run(context.Background(), BuildRequest{Config: f.cfg, Strict: true})
	require.Error(t, err)
	assert.Equal(t, BuildStatusFailed, result.Status)
	assert.True(t, dberrors.HasCategory(err, dberrors.CategoryTemplate))
	assert.True(t, errors.Is(err, templates.ErrUnresolvedPlaceholder))
	assert.Empty(t, htmlFiles(t, f.out))
}

func TestRunMissingTemplateResource(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, templates.Header), []byte("<html>"), 0o644))
	f.cfg.Paths.TemplatesDir = dir
	f.source(t, "a.md", postSource("A", "2024/06/01"))

	_, err := f.run(t)
	require.Error(t, err)
	assert.True(t, dberrors.HasCategory(err, dberrors.CategoryTemplate))
	assert.NoDirExists(t, f.out)
}

func TestRunRecentPostsLimit(t *testing.T) {
	f := newFixture(t)
	f.cfg.Site.RecentPosts = 2
	for i := 1; i <= 3; i++ {
		f.source(t, fmt.Sprintf("p%d.md", i), postSource(fmt.Sprintf("Post %d", i), fmt.Sprintf("2024/06/0%d", i)))
	}

	_, err := f.run(t)
	require.NoError(t, err)

	index := f.read(t, "index.html")
	assert.Contains(t, index, "posts/p3.html")
	assert.Contains(t, index, "posts/p2.html")
	assert.NotContains(t, index, "posts/p1.html")

	listing := f.read(t, "posts.html")
	for i := 1; i <= 3; i++ {
		assert.Contains(t, listing, fmt.Sprintf("posts/p%d.html", i))
	}
}

func TestRunWritesManifest(t *testing.T) {
	f := newFixture(t)
	f.cfg.Build.Manifest = "manifest.json"
	f.source(t, "a.md", postSource("A", "2024/06/01"))
	f.source(t, "draft.md", postSource("Draft", "2024/06/02", "published: false"))

	result, err := f.run(t)
	require.NoError(t, err)

	m, err := manifest.Read(filepath.Join(f.out, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, "2024/06/10", m.BuildDate)
	assert.NotEmpty(t, m.Hash)
	require.Len(t, m.Posts, 1)
	assert.Equal(t, "a", m.Posts[0].Slug)
	assert.Equal(t, "posts/a.html", m.Posts[0].Output)
	assert.Equal(t, result.Posts[0].Fingerprint, m.Posts[0].Fingerprint)
	assert.NotEmpty(t, m.Posts[0].Fingerprint)
	require.Len(t, m.Skipped, 1)
	assert.Equal(t, ReasonUnpublished, m.Skipped[0].Reason)
	assert.Equal(t, result.Pages, m.Pages)
}

func TestRunVerifyLinks(t *testing.T) {
	f := newFixture(t)
	f.cfg.Build.VerifyLinks = true
	f.source(t, "a.md", "---\ntitle: A\ndate: \"2024/06/01\"\n---\n\nSee [gone](missing.html).\n")
	require.NoError(t, os.MkdirAll(filepath.Join(f.out, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.out, "css", "style.css"), []byte("body{}"), 0o644))

	result, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, result.Status)
	require.Len(t, result.BrokenLinks, 1)
	assert.Equal(t, "posts/a.html", result.BrokenLinks[0].Page)
	assert.Equal(t, "missing.html", result.BrokenLinks[0].Link)
}

func TestRunEditLinks(t *testing.T) {
	f := newFixture(t)
	f.cfg.Repository.Owner = "inful"
	f.cfg.Repository.Name = "blog"
	f.source(t, "a.md", postSource("A", "2024/06/01"))

	svc := f.service().WithIdentityDetector(func(string, string) (forge.Identity, error) {
		return forge.Identity{Host: "github.com", Owner: "someone", Name: "else", Root: f.root}, nil
	})
	_, err := svc.Run(context.Background(), BuildRequest{Config: f.cfg})
	require.NoError(t, err)

	doc := f.read(t, "posts/a.html")
	assert.Contains(t, doc, `href="https://github.com/inful/blog/edit/main/posts-md/a.md"`)
	assert.Contains(t, doc, `id="report-issue"`)
	assert.Contains(t, doc, "DOMContentLoaded")
}

func TestRunEditLinksFromDetectedRemote(t *testing.T) {
	f := newFixture(t)
	f.source(t, "a.md", postSource("A", "2024/06/01"))

	svc := f.service().WithIdentityDetector(func(string, string) (forge.Identity, error) {
		return forge.Identity{Host: "gitlab.example.com", Owner: "team", Name: "site", Root: f.root}, nil
	})
	_, err := svc.Run(context.Background(), BuildRequest{Config: f.cfg})
	require.NoError(t, err)

	assert.Contains(t, f.read(t, "posts/a.html"), `href="https://gitlab.example.com/team/site/-/edit/main/posts-md/a.md"`)
}

func TestRunOutputDirOverride(t *testing.T) {
	f := newFixture(t)
	f.source(t, "a.md", postSource("A", "2024/06/01"))
	other := filepath.Join(f.root, "elsewhere")

	result, err := f.service().Run(context.Background(), BuildRequest{Config: f.cfg, OutputDir: other})
	require.NoError(t, err)
	assert.Equal(t, other, result.OutputPath)
	assert.FileExists(t, filepath.Join(other, "index.html"))
	assert.NoDirExists(t, f.out)
}

func TestRunCanceled(t *testing.T) {
	f := newFixture(t)
	f.source(t, "a.md", postSource("A", "2024/06/01"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.service().Run(ctx, BuildRequest{Config: f.cfg})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, BuildStatusCanceled, result.Status)
}

type recordingRecorder struct {
	metrics.NoopRecorder
	outcomes []metrics.BuildOutcomeLabel
	posts    map[metrics.PostResultLabel]int
	pages    map[string]int
}

func (r *recordingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingRecorder) IncPostResult(l metrics.PostResultLabel) { r.posts[l]++ }

func (r *recordingRecorder) AddPagesWritten(kind string, n int) { r.pages[kind] += n }

func TestRunRecordsMetrics(t *testing.T) {
	f := newFixture(t)
	f.source(t, "a.md", postSource("A", "2024/06/01"))
	f.source(t, "b.md", postSource("B", "2024/06/02", "published: false"))

	rec := &recordingRecorder{posts: map[metrics.PostResultLabel]int{}, pages: map[string]int{}}
	_, err := f.service().WithRecorder(rec).Run(context.Background(), BuildRequest{Config: f.cfg})
	require.NoError(t, err)

	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)
	assert.Equal(t, 1, rec.posts[metrics.PostRendered])
	assert.Equal(t, 1, rec.posts[metrics.PostUnpublished])
	assert.Equal(t, 1, rec.pages["post"])
	assert.Equal(t, 1, rec.pages["home"])
}

func TestRunProgressOutput(t *testing.T) {
	f := newFixture(t)
	f.source(t, "a.md", postSource("A", "2024/06/01"))

	var sb strings.Builder
	_, err := f.service().WithProgress(&sb).Run(context.Background(), BuildRequest{Config: f.cfg})
	require.NoError(t, err)
	assert.Contains(t, sb.String(), "generated posts/a.html")
	assert.Contains(t, sb.String(), "Build completed: 1 posts")
}
