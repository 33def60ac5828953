package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// Names of the template resources making up a site.
const (
	Header   = "header.html"
	Footer   = "footer.html"
	Post     = "post.html"
	PostCard = "post-card.html"
	PostItem = "post-item.html"
	Index    = "index.html"
	Posts    = "posts.html"
	About    = "about.html"
)

// Required lists every resource a Set must provide.
var Required = []string{Header, Footer, Post, PostCard, PostItem, Index, Posts, About}

//go:embed defaults/*.html
var defaultFS embed.FS

// ErrMissingTemplate is returned when a required resource cannot be found.
var ErrMissingTemplate = errors.New("template resource not found")

// Set is a read-only collection of named template strings.
type Set struct {
	source string
	byName map[string]string
}

// Default returns the built-in template set.
func Default() *Set {
	s, err := loadFS(defaultFS, "defaults", "embedded")
	if err != nil {
		// The embedded set is compiled in; a failure here is a packaging bug.
		panic(err)
	}
	return s
}

// Load reads every required resource from dir. A missing file is an error.
func Load(dir string) (*Set, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("template directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template directory %s: not a directory", dir)
	}
	return loadFS(os.DirFS(dir), ".", dir)
}

func loadFS(fsys fs.FS, root, source string) (*Set, error) {
	s := &Set{source: source, byName: make(map[string]string, len(Required))}
	for _, name := range Required {
		data, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s in %s", ErrMissingTemplate, name, source)
			}
			return nil, fmt.Errorf("read template %s: %w", name, err)
		}
		s.byName[name] = string(data)
	}
	return s, nil
}

// Source describes where the set was loaded from.
func (s *Set) Source() string { return s.source }

// Get returns the named template.
func (s *Set) Get(name string) (string, error) {
	tpl, ok := s.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingTemplate, name)
	}
	return tpl, nil
}

// WriteDefaults copies the built-in templates into dir. Existing files are
// kept unless force is set. It returns the paths written.
func WriteDefaults(dir string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create template directory: %w", err)
	}
	var written []string
	for _, name := range Required {
		dst := filepath.Join(dir, name)
		if _, err := os.Stat(dst); err == nil && !force {
			continue
		}
		data, err := defaultFS.ReadFile("defaults/" + name)
		if err != nil {
			return written, fmt.Errorf("read embedded template %s: %w", name, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return written, fmt.Errorf("write template %s: %w", dst, err)
		}
		written = append(written, dst)
	}
	return written, nil
}
