// Package editlink builds the "edit on forge" and "report via issue" controls
// shown under each post.
package editlink

import (
	"fmt"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

const githubRawHost = "https://raw.githubusercontent.com"

// GenerateEditURL constructs a web UI edit URL for a repository file given the forge type.
// baseURL should be the canonical web base, fullName is "owner/repo" and
// filePath uses forward slashes. Returns empty string if inputs are
// insufficient or the forge type is unsupported.
func GenerateEditURL(forgeType config.ForgeType, baseURL, fullName, branch, filePath string) string {
	if !complete(forgeType, baseURL, fullName, branch, filePath) {
		return ""
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	p := escapePath(filePath)
	switch forgeType {
	case config.ForgeGitHub:
		return fmt.Sprintf("%s/%s/edit/%s/%s", baseURL, fullName, branch, p)
	case config.ForgeGitLab:
		return fmt.Sprintf("%s/%s/-/edit/%s/%s", baseURL, fullName, branch, p)
	case config.ForgeForgejo:
		return fmt.Sprintf("%s/%s/_edit/%s/%s", baseURL, fullName, branch, p)
	default:
		return ""
	}
}

// GenerateRawURL returns the URL serving the file's raw bytes, suitable for
// a browser fetch.
func GenerateRawURL(forgeType config.ForgeType, baseURL, fullName, branch, filePath string) string {
	if !complete(forgeType, baseURL, fullName, branch, filePath) {
		return ""
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	p := escapePath(filePath)
	switch forgeType {
	case config.ForgeGitHub:
		if baseURL == "https://github.com" {
			return fmt.Sprintf("%s/%s/%s/%s", githubRawHost, fullName, branch, p)
		}
		return fmt.Sprintf("%s/%s/raw/%s/%s", baseURL, fullName, branch, p)
	case config.ForgeGitLab:
		return fmt.Sprintf("%s/%s/-/raw/%s/%s", baseURL, fullName, branch, p)
	case config.ForgeForgejo:
		return fmt.Sprintf("%s/%s/raw/branch/%s/%s", baseURL, fullName, branch, p)
	default:
		return ""
	}
}

// IssueForm describes where new issues are filed and which query parameters
// prefill them.
type IssueForm struct {
	URL        string
	TitleParam string
	BodyParam  string
}

// GenerateIssueForm returns the new-issue form for the repository.
func GenerateIssueForm(forgeType config.ForgeType, baseURL, fullName string) (IssueForm, bool) {
	if baseURL == "" || fullName == "" {
		return IssueForm{}, false
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	switch forgeType {
	case config.ForgeGitHub, config.ForgeForgejo:
		return IssueForm{URL: baseURL + "/" + fullName + "/issues/new", TitleParam: "title", BodyParam: "body"}, true
	case config.ForgeGitLab:
		return IssueForm{URL: baseURL + "/" + fullName + "/-/issues/new", TitleParam: "issue[title]", BodyParam: "issue[description]"}, true
	default:
		return IssueForm{}, false
	}
}

// ForgeLabel is the display name used on the edit button.
func ForgeLabel(forgeType config.ForgeType) string {
	switch forgeType {
	case config.ForgeGitLab:
		return "GitLab"
	case config.ForgeForgejo:
		return "Forgejo"
	default:
		return "GitHub"
	}
}

func complete(forgeType config.ForgeType, parts ...string) bool {
	if forgeType == "" {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

func escapePath(p string) string {
	segs := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
