package linkcheck

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Broken describes a link whose target is missing.
type Broken struct {
	Page   string // output-relative page path
	Link   string
	Tag    string
	Reason string
}

// Report summarizes a verification run.
type Report struct {
	Pages   int
	Checked int
	Broken  []Broken
}

// Verify parses each page (output-relative paths under root) and checks
// every relative link against the file system.
func Verify(root string, pages []string) (*Report, error) {
	report := &Report{}
	for _, page := range pages {
		links, err := ExtractLinks(filepath.Join(root, filepath.FromSlash(page)))
		if err != nil {
			return nil, err
		}
		report.Pages++
		for _, l := range links {
			if !l.Relative {
				continue
			}
			report.Checked++
			if reason := resolve(root, page, l.URL); reason != "" {
				report.Broken = append(report.Broken, Broken{Page: page, Link: l.URL, Tag: l.Tag, Reason: reason})
			}
		}
	}
	return report, nil
}

// resolve returns "" when link (relative to page) names an existing file, or
// a short reason otherwise.
func resolve(root, page, link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return "unparseable link"
	}
	target := u.Path
	if target == "" {
		return ""
	}

	rel := filepath.Clean(filepath.Join(filepath.Dir(filepath.FromSlash(page)), filepath.FromSlash(target)))
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "outside output root"
	}
	info, err := os.Stat(filepath.Join(root, rel))
	if err != nil {
		return "target not found"
	}
	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(root, rel, "index.html")); err != nil {
			return "directory without index.html"
		}
	}
	return ""
}
