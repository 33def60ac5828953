package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/dates"
	"git.home.luguber.info/inful/blogbuilder/internal/editlink"
	"git.home.luguber.info/inful/blogbuilder/internal/forge"
	dberrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/blogbuilder/internal/linkcheck"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/manifest"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/page"
	"git.home.luguber.info/inful/blogbuilder/internal/templates"
)

const (
	stageTemplates = "templates"
	stageOutput    = "output"
	stageLoad      = "load"
	stagePosts     = "render_posts"
	stagePages     = "render_pages"
	stageManifest  = "manifest"
	stageLinks     = "verify_links"

	markdownExt       = ".md"
	descriptionLength = 120
	listingTitle      = "記事一覧"
	aboutTitle        = "About"
)

// IdentityDetector resolves the hosted repository enclosing dir.
type IdentityDetector func(dir, remote string) (forge.Identity, error)

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	now       func() time.Time
	logger    *slog.Logger
	recorder  metrics.Recorder
	templates *templates.Set
	detect    IdentityDetector
	progress  io.Writer
	markdown  *markdown.Renderer
}

// NewBuildService creates a DefaultBuildService with production defaults.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		now:      time.Now,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		detect:   forge.Detect,
		progress: io.Discard,
		markdown: markdown.NewRenderer(markdown.DefaultOptions()),
	}
}

// WithClock sets the clock used for the build date (for testing).
func (s *DefaultBuildService) WithClock(now func() time.Time) *DefaultBuildService {
	s.now = now
	return s
}

// WithLogger sets the structured logger.
func (s *DefaultBuildService) WithLogger(logger *slog.Logger) *DefaultBuildService {
	s.logger = logger
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(recorder metrics.Recorder) *DefaultBuildService {
	s.recorder = recorder
	return s
}

// WithTemplates overrides the template set, bypassing paths.templates_dir.
func (s *DefaultBuildService) WithTemplates(set *templates.Set) *DefaultBuildService {
	s.templates = set
	return s
}

// WithIdentityDetector replaces git remote detection (for testing).
func (s *DefaultBuildService) WithIdentityDetector(detect IdentityDetector) *DefaultBuildService {
	s.detect = detect
	return s
}

// WithProgress sets where human-readable progress lines go.
func (s *DefaultBuildService) WithProgress(w io.Writer) *DefaultBuildService {
	s.progress = w
	return s
}

// candidate is a source document read during the load stage.
type candidate struct {
	name      string
	path      string
	slug      string
	doc       frontmatter.Document
	displaced bool
}

// run holds the state of one build invocation.
type run struct {
	svc       *DefaultBuildService
	ctx       context.Context
	cfg       *config.Config
	strict    bool
	log       *slog.Logger
	result    *BuildResult
	formatter *dates.Formatter
	outputDir string

	assembler  *page.Assembler
	edit       *editlink.Builder
	identity   *forge.Identity
	candidates []candidate
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	start := time.Now()
	result := &BuildResult{StartTime: start, BuildID: uuid.NewString()}

	finish := func(status BuildStatus, err error) (*BuildResult, error) {
		result.Status = status
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(start)
		s.recorder.ObserveBuildDuration(result.Duration)
		s.recorder.IncBuildOutcome(outcomeFor(status))
		return result, err
	}

	if req.Config == nil {
		return finish(BuildStatusFailed, dberrors.ConfigError("config required").Build())
	}
	cfg := req.Config

	r := &run{
		svc:       s,
		ctx:       ctx,
		cfg:       cfg,
		strict:    req.Strict || cfg.Build.StrictPlaceholders,
		log:       s.logger.With(logfields.BuildID(result.BuildID)),
		result:    result,
		formatter: dates.NewFormatter(cfg.Site.TimezoneOffsetHours, s.now),
		outputDir: cfg.Paths.OutputDir,
	}
	if req.OutputDir != "" {
		r.outputDir = req.OutputDir
	}
	result.OutputPath = r.outputDir
	result.BuildDate = r.formatter.CurrentDate()

	_, _ = fmt.Fprintln(s.progress, "Starting blog build")
	r.log.Info("Starting blog build",
		logfields.Source(cfg.Paths.SourceDir),
		logfields.Output(r.outputDir),
		slog.String("build_date", result.BuildDate))

	if err := r.stage(stageTemplates, r.prepare); err != nil {
		return finish(statusFor(err), err)
	}
	if err := r.stage(stageOutput, r.ensureOutput); err != nil {
		return finish(statusFor(err), err)
	}
	if err := r.stage(stageLoad, r.load); err != nil {
		return finish(statusFor(err), err)
	}
	if len(r.candidates) == 0 {
		r.log.Warn("No markdown files found", logfields.Source(cfg.Paths.SourceDir))
		_, _ = fmt.Fprintf(s.progress, "No markdown files in %s\n", cfg.Paths.SourceDir)
		return finish(BuildStatusEmpty, nil)
	}
	if err := r.stage(stagePosts, r.renderPosts); err != nil {
		return finish(statusFor(err), err)
	}
	sortPosts(result.Posts)
	if err := r.stage(stagePages, r.renderPages); err != nil {
		return finish(statusFor(err), err)
	}
	if cfg.Build.Manifest != "" {
		if err := r.stage(stageManifest, r.writeManifest); err != nil {
			return finish(statusFor(err), err)
		}
	}
	if cfg.Build.VerifyLinks {
		if err := r.stage(stageLinks, r.verifyLinks); err != nil {
			return finish(statusFor(err), err)
		}
	}

	_, _ = fmt.Fprintf(s.progress, "Build completed: %d posts\n", len(result.Posts))
	r.log.Info("Build completed",
		logfields.Count(len(result.Posts)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("pages", len(result.Pages)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return finish(BuildStatusSuccess, nil)
}

// stage times fn and records its result.
func (r *run) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.svc.recorder.ObserveStageDuration(name, time.Since(start))
	switch {
	case err == nil:
		r.svc.recorder.IncStageResult(name, metrics.ResultSuccess)
	case isCanceled(err):
		r.svc.recorder.IncStageResult(name, metrics.ResultCanceled)
		r.log.Warn("Build canceled", logfields.Stage(name))
	default:
		r.svc.recorder.IncStageResult(name, metrics.ResultFatal)
		r.log.Error("Build stage failed", logfields.Stage(name), logfields.Error(err))
	}
	return err
}

// prepare loads templates and resolves the repository identity. Nothing is
// written, so a missing template leaves the output tree untouched.
func (r *run) prepare() error {
	set := r.svc.templates
	if set == nil {
		if dir := r.cfg.Paths.TemplatesDir; dir != "" {
			loaded, err := templates.Load(dir)
			if err != nil {
				return dberrors.WrapError(err, dberrors.CategoryTemplate, "failed to load templates").
					WithContext("dir", dir).
					Build()
			}
			set = loaded
		} else {
			set = templates.Default()
		}
	}
	r.log.Debug("Templates loaded", slog.String("source", set.Source()))

	site := r.cfg.Site
	p := r.cfg.Paths
	r.assembler = page.NewAssembler(set, page.Site{
		Title:     site.Title,
		Language:  site.Language,
		Copyright: site.Copyright,
		IndexFile: p.IndexFile,
		PostsPage: p.PostsPage,
		AboutPage: p.AboutPage,
		CSSFile:   p.CSSFile,
	}, r.strict)

	r.resolveRepository()
	return nil
}

// resolveRepository fills owner/name from the git remote when configured to,
// and sets up the edit link builder.
func (r *run) resolveRepository() {
	repo := r.cfg.Repository
	if repo.EditLinks && repo.Detect {
		id, err := r.svc.detect(r.cfg.Paths.SourceDir, repo.Remote)
		if err != nil {
			r.log.Debug("Repository detection skipped", logfields.Reason(err.Error()))
		} else {
			r.identity = &id
			if !repo.Known() {
				repo.Owner, repo.Name = id.Owner, id.Name
				defaults := config.Default().Repository
				if repo.BaseURL == defaults.BaseURL && repo.Forge == defaults.Forge && id.Host != "github.com" {
					repo.BaseURL = "https://" + id.Host
					repo.Forge = forgeForHost(id.Host)
				}
			}
		}
	}
	r.edit = editlink.NewBuilder(repo)
	if r.edit.Enabled() {
		r.log.Debug("Edit links enabled", slog.String("repository", repo.FullName()), slog.String("forge", string(repo.Forge)))
	}
}

// forgeForHost guesses the forge flavour of a self-hosted instance from its host name.
func forgeForHost(host string) config.ForgeType {
	h := strings.ToLower(host)
	switch {
	case strings.Contains(h, "gitlab"):
		return config.ForgeGitLab
	case strings.Contains(h, "codeberg"), strings.Contains(h, "forgejo"), strings.Contains(h, "gitea"):
		return config.ForgeForgejo
	default:
		return config.ForgeGitHub
	}
}

// repoPath returns the repository-relative path of a source file for edit
// links, or "" when it cannot be determined.
func (r *run) repoPath(source string) string {
	if r.identity != nil {
		rel, err := r.identity.RelativePath(source)
		if err != nil {
			return ""
		}
		return rel
	}
	if filepath.IsAbs(source) {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(source))
}

func (r *run) ensureOutput() error {
	dir := filepath.Join(r.outputDir, filepath.FromSlash(r.cfg.Paths.PostsDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to create output directory").
			WithContext("dir", dir).
			Build()
	}
	return nil
}

// load reads every eligible source file in directory-listing order and
// checks slug uniqueness before any page is written.
func (r *run) load() error {
	dir := r.cfg.Paths.SourceDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to read source directory").
			WithContext("dir", dir).
			Build()
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, markdownExt) || name == r.cfg.Paths.ReservedFile {
			continue
		}
		if err := r.ctx.Err(); err != nil {
			return err
		}
		p := filepath.Join(dir, name)
		data, err := os.ReadFile(p)
		if err != nil {
			return dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to read source file").
				WithContext("source", p).
				Build()
		}
		doc := frontmatter.Extract(data)
		if doc.Warning != nil {
			r.log.Warn("Ignoring malformed front matter", logfields.Source(p), logfields.Error(doc.Warning))
		}
		r.candidates = append(r.candidates, candidate{
			name: name,
			path: p,
			slug: strings.TrimSuffix(name, markdownExt),
			doc:  doc,
		})
	}
	r.log.Debug("Source documents loaded", logfields.Count(len(r.candidates)))
	return r.checkSlugs()
}

func (r *run) checkSlugs() error {
	reg := newSlugRegistry()
	var collisions []string
	for i := range r.candidates {
		c := &r.candidates[i]
		if c.slug == "" || !c.doc.Meta.Published() {
			continue
		}
		prev, taken := reg.claim(c.slug, i)
		if !taken {
			continue
		}
		other := &r.candidates[prev]
		if r.cfg.Build.SlugCollision == config.CollisionOverwrite {
			other.displaced = true
			r.log.Warn("Slug collision, later file wins",
				logfields.Slug(c.slug), logfields.Source(c.path), slog.String("overwritten", other.path))
			continue
		}
		collisions = append(collisions, other.name+" and "+c.name)
	}
	if len(collisions) > 0 {
		return dberrors.WrapError(ErrSlugCollision, dberrors.CategoryValidation,
			"source files map to the same page ("+strings.Join(collisions, "; ")+")").
			WithContext("policy", string(config.CollisionFail)).
			Build()
	}
	return nil
}

func (r *run) skip(c *candidate, reason string) {
	r.result.Skipped = append(r.result.Skipped, SkippedDocument{Source: c.path, Reason: reason})
}

func (r *run) renderPosts() error {
	rec := r.svc.recorder
	for i := range r.candidates {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		c := &r.candidates[i]
		switch {
		case !c.doc.Meta.Published():
			r.skip(c, ReasonUnpublished)
			rec.IncPostResult(metrics.PostUnpublished)
			r.log.Info("Skipping unpublished post", logfields.Source(c.path))
			continue
		case c.slug == "":
			r.skip(c, ReasonEmptySlug)
			r.log.Warn("Skipping file without a name", logfields.Source(c.path))
			continue
		case c.displaced:
			r.skip(c, ReasonOverwritten)
			continue
		}

		post, err := r.renderPost(c)
		if err != nil {
			rec.IncPostResult(metrics.PostFailed)
			return err
		}
		r.result.Posts = append(r.result.Posts, post)
		rec.IncPostResult(metrics.PostRendered)
	}
	rec.AddPagesWritten("post", len(r.result.Posts))
	return nil
}

func (r *run) renderPost(c *candidate) (Post, error) {
	meta := c.doc.Meta
	content, err := r.svc.markdown.Render(c.doc.Body)
	if err != nil {
		return Post{}, dberrors.WrapError(err, dberrors.CategoryBuild, "failed to render markdown").
			WithContext("source", c.path).
			Build()
	}

	date := r.formatter.Normalize(meta.Date())
	parsed, perr := dates.Parse(date)
	if perr != nil {
		r.log.Warn("Unrecognized post date, listing it last", logfields.Source(c.path), logfields.Reason(date))
	}

	postsDir := path.Clean(filepath.ToSlash(r.cfg.Paths.PostsDir))
	post := Post{
		Title:       meta.Title(),
		Date:        date,
		UpdateDate:  resolveUpdate(meta.Updated(), date, r.result.BuildDate, r.formatter),
		Excerpt:     meta.Excerpt(),
		Slug:        c.slug,
		ContentHTML: content,
		Source:      c.path,
		Output:      path.Join(postsDir, c.slug+".html"),
		parsed:      parsed,
		dateValid:   perr == nil,
	}
	if r.cfg.Build.Manifest != "" {
		fp, err := manifest.Fingerprint(meta, c.doc.Body)
		if err != nil {
			return Post{}, dberrors.WrapError(err, dberrors.CategoryBuild, "failed to fingerprint source").
				WithContext("source", c.path).
				Build()
		}
		post.Fingerprint = fp
	}

	rootPath := strings.Repeat("../", strings.Count(postsDir, "/")+1)
	body, err := r.assembler.PostContent(page.Post{
		Summary:     post.Summary(),
		Updated:     post.UpdateDate,
		ContentHTML: content,
		EditLink:    r.edit.Markup(r.repoPath(c.path), post.Title),
	}, rootPath)
	if err != nil {
		return Post{}, pageFault(err, post.Output)
	}
	doc, err := r.assembler.Assemble(page.Options{
		Title:        post.Title + " - " + r.cfg.Site.Title,
		Description:  describe(post),
		Page:         page.KindNone,
		Content:      body,
		RootPath:     rootPath,
		HeadExtra:    page.HighlightHead,
		ScriptsExtra: r.edit.Script(),
	})
	if err != nil {
		return Post{}, pageFault(err, post.Output)
	}
	if err := r.write(post.Output, doc); err != nil {
		return Post{}, err
	}
	_, _ = fmt.Fprintf(r.svc.progress, "  generated %s\n", post.Output)
	r.log.Debug("Generated post", logfields.Slug(post.Slug), logfields.Output(post.Output))
	return post, nil
}

// renderPages writes the home, listing and about pages from the sorted posts.
func (r *run) renderPages() error {
	site := r.cfg.Site
	all := summaries(r.result.Posts)
	recent := all
	if n := site.RecentPosts; n > 0 && n < len(all) {
		recent = all[:n]
	}

	pages := []struct {
		file  string
		kind  page.Kind
		title string
		body  func() (string, error)
	}{
		{r.cfg.Paths.IndexFile, page.KindHome, site.Title, func() (string, error) {
			return r.assembler.IndexContent(recent, "")
		}},
		{r.cfg.Paths.PostsPage, page.KindPosts, listingTitle + " - " + site.Title, func() (string, error) {
			return r.assembler.ListingContent(all, "")
		}},
		{r.cfg.Paths.AboutPage, page.KindAbout, aboutTitle + " - " + site.Title, func() (string, error) {
			return r.assembler.AboutContent("")
		}},
	}
	for _, pg := range pages {
		body, err := pg.body()
		if err != nil {
			return pageFault(err, pg.file)
		}
		doc, err := r.assembler.Assemble(page.Options{Title: pg.title, Page: pg.kind, Content: body})
		if err != nil {
			return pageFault(err, pg.file)
		}
		if err := r.write(pg.file, doc); err != nil {
			return err
		}
		r.svc.recorder.AddPagesWritten(string(pg.kind), 1)
		_, _ = fmt.Fprintf(r.svc.progress, "  wrote %s\n", pg.file)
		r.log.Debug("Wrote page", logfields.Page(string(pg.kind)), logfields.Output(pg.file))
	}
	return nil
}

func (r *run) writeManifest() error {
	m := &manifest.Manifest{BuildDate: r.result.BuildDate, Pages: r.result.Pages}
	for _, p := range r.result.Posts {
		m.Posts = append(m.Posts, manifest.Entry{
			Slug:        p.Slug,
			Source:      filepath.ToSlash(p.Source),
			Output:      p.Output,
			Fingerprint: p.Fingerprint,
			Date:        p.Date,
			Updated:     p.UpdateDate,
		})
	}
	for _, s := range r.result.Skipped {
		m.Skipped = append(m.Skipped, manifest.Skip{Source: filepath.ToSlash(s.Source), Reason: s.Reason})
	}
	target := filepath.Join(r.outputDir, r.cfg.Build.Manifest)
	if err := m.Write(target); err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to write manifest").
			WithContext("path", target).
			Build()
	}
	r.log.Info("Manifest written", logfields.Output(target), slog.String("hash", m.Hash))
	return nil
}

func (r *run) verifyLinks() error {
	report, err := linkcheck.Verify(r.outputDir, r.result.Pages)
	if err != nil {
		return err
	}
	r.result.BrokenLinks = report.Broken
	for _, b := range report.Broken {
		r.log.Warn("Broken link", logfields.Page(b.Page), slog.String("link", b.Link), logfields.Reason(b.Reason))
	}
	r.log.Info("Link verification finished",
		logfields.Count(report.Checked), slog.Int("broken", len(report.Broken)))
	return nil
}

// write stores a page under the output root; rel uses forward slashes.
func (r *run) write(rel, content string) error {
	target := filepath.Join(r.outputDir, filepath.FromSlash(rel))
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to write page").
			WithContext("path", target).
			Build()
	}
	r.result.Pages = append(r.result.Pages, rel)
	return nil
}

func describe(p Post) string {
	if p.Excerpt != "" {
		return p.Excerpt
	}
	return markdown.PlainText(p.ContentHTML, descriptionLength)
}

// pageFault classifies an assembly failure: template problems are template
// faults, anything else is a build fault.
func pageFault(err error, output string) error {
	category := dberrors.CategoryBuild
	if errors.Is(err, templates.ErrUnresolvedPlaceholder) || errors.Is(err, templates.ErrMissingTemplate) {
		category = dberrors.CategoryTemplate
	}
	return dberrors.WrapError(err, category, "failed to assemble page").
		WithContext("page", output).
		Build()
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func statusFor(err error) BuildStatus {
	if isCanceled(err) {
		return BuildStatusCanceled
	}
	return BuildStatusFailed
}

func outcomeFor(status BuildStatus) metrics.BuildOutcomeLabel {
	switch status {
	case BuildStatusSuccess:
		return metrics.BuildOutcomeSuccess
	case BuildStatusEmpty:
		return metrics.BuildOutcomeEmpty
	case BuildStatusCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}
