package editlink

import (
	"fmt"
	"html"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

// Builder renders per-post edit controls for one repository.
type Builder struct {
	repo config.RepositoryConfig
}

// NewBuilder returns a builder for repo. It is disabled unless the
// repository identity is known and edit links are switched on.
func NewBuilder(repo config.RepositoryConfig) *Builder {
	return &Builder{repo: repo}
}

// Enabled reports whether Markup produces anything.
func (b *Builder) Enabled() bool {
	return b != nil && b.repo.EditLinks && b.repo.Known()
}

// Markup returns the controls for the post whose source lives at
// sourcePath (repository-relative, forward slashes). The issue button needs
// Script on the same page.
func (b *Builder) Markup(sourcePath, title string) string {
	if !b.Enabled() || sourcePath == "" {
		return ""
	}
	r := b.repo
	edit := GenerateEditURL(r.Forge, r.BaseURL, r.FullName(), r.Branch, sourcePath)
	if edit == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("            <div class=\"mt-4 d-flex gap-2 edit-links\">\n")
	fmt.Fprintf(&sb, "                <a href=\"%s\" class=\"btn btn-sm btn-outline-secondary\" target=\"_blank\" rel=\"noopener\">%s で編集</a>\n",
		html.EscapeString(edit), ForgeLabel(r.Forge))

	if form, ok := GenerateIssueForm(r.Forge, r.BaseURL, r.FullName()); ok {
		raw := GenerateRawURL(r.Forge, r.BaseURL, r.FullName(), r.Branch, sourcePath)
		fmt.Fprintf(&sb, "                <button type=\"button\" class=\"btn btn-sm btn-outline-secondary\" id=\"report-issue\""+
			" data-issue-url=\"%s\" data-title-param=\"%s\" data-body-param=\"%s\" data-raw-url=\"%s\" data-source=\"%s\" data-title=\"%s\">Issue で報告</button>\n",
			html.EscapeString(form.URL), html.EscapeString(form.TitleParam), html.EscapeString(form.BodyParam),
			html.EscapeString(raw), html.EscapeString(sourcePath), html.EscapeString(title))
	}
	sb.WriteString("            </div>\n")
	return sb.String()
}

// Script returns the client-side handler for the issue button, or "" when
// the builder is disabled. The markdown source is fetched when the reader
// clicks, never during the build.
func (b *Builder) Script() string {
	if !b.Enabled() {
		return ""
	}
	return issueScript
}

const issueScript = `    <script>
    document.addEventListener("DOMContentLoaded", function () {
        var btn = document.getElementById("report-issue");
        if (!btn) return;
        btn.addEventListener("click", function () {
            var d = btn.dataset;
            var intro = "記事: " + window.location.href + "\nソース: " + d.source + "\n\n";
            var open = function (body) {
                var u = new URL(d.issueUrl);
                u.searchParams.set(d.titleParam, "[記事] " + d.title);
                u.searchParams.set(d.bodyParam, body);
                window.open(u.toString(), "_blank", "noopener");
            };
            fetch(d.rawUrl).then(function (r) {
                if (!r.ok) throw new Error(String(r.status));
                return r.text();
            }).then(function (md) {
                open(intro + "<details><summary>Markdown</summary>\n\n` + "```" + `markdown\n" + md.slice(0, 6000) + "\n` + "```" + `\n</details>\n");
            }).catch(function () {
                open(intro);
            });
        });
    });
    </script>
`
