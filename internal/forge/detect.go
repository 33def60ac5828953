// Package forge discovers which hosted repository a blog checkout belongs to,
// so generated pages can link back to their markdown sources.
package forge

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// DefaultRemote is the remote consulted when none is named.
const DefaultRemote = "origin"

var (
	// ErrNotRepository is returned when no git repository encloses the directory.
	ErrNotRepository = errors.New("not inside a git repository")
	// ErrNoRemote is returned when the repository has no usable remote URL.
	ErrNoRemote = errors.New("git remote not configured")
)

// Identity is the hosted location of a repository as derived from its remote URL.
type Identity struct {
	Host  string // e.g. github.com
	Owner string // may contain '/' for GitLab subgroups
	Name  string
	Root  string // absolute worktree root on disk
}

// FullName returns "owner/name".
func (id Identity) FullName() string {
	return id.Owner + "/" + id.Name
}

// Detect opens the repository enclosing dir (walking up to the .git
// directory) and derives the identity from the named remote.
func Detect(dir, remoteName string) (Identity, error) {
	if remoteName == "" {
		remoteName = DefaultRemote
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Identity{}, fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		return Identity{}, fmt.Errorf("failed to open repository: %w", err)
	}

	remote, err := repo.Remote(remoteName)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return Identity{}, fmt.Errorf("%w: %s", ErrNoRemote, remoteName)
		}
		return Identity{}, fmt.Errorf("failed to read remote %s: %w", remoteName, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return Identity{}, fmt.Errorf("%w: %s has no URL", ErrNoRemote, remoteName)
	}

	id, err := ParseRemoteURL(urls[0])
	if err != nil {
		return Identity{}, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return Identity{}, fmt.Errorf("failed to get worktree: %w", err)
	}
	id.Root = wt.Filesystem.Root()
	return id, nil
}

// ParseRemoteURL extracts host, owner and name from the clone URL forms git
// accepts: https://host/owner/name(.git), ssh://git@host[:port]/owner/name.git
// and the scp-like git@host:owner/name.git.
func ParseRemoteURL(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	var host, repoPath string

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return Identity{}, fmt.Errorf("parse remote url %q: %w", raw, err)
		}
		host, repoPath = u.Hostname(), u.Path
	} else if at := strings.Index(raw, "@"); at >= 0 && strings.Contains(raw[at:], ":") {
		rest := raw[at+1:]
		colon := strings.Index(rest, ":")
		host, repoPath = rest[:colon], rest[colon+1:]
	} else {
		return Identity{}, fmt.Errorf("unsupported remote url %q", raw)
	}

	repoPath = strings.TrimSuffix(strings.Trim(repoPath, "/"), ".git")
	slash := strings.LastIndex(repoPath, "/")
	if host == "" || slash <= 0 || slash == len(repoPath)-1 {
		return Identity{}, fmt.Errorf("remote url %q does not name owner/repository", raw)
	}
	return Identity{Host: host, Owner: repoPath[:slash], Name: repoPath[slash+1:]}, nil
}

// RelativePath expresses path relative to the worktree root with forward
// slashes, as forge web URLs expect.
func (id Identity) RelativePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	root := id.Root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	if resolved, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(resolved, filepath.Base(abs))
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside repository %s", path, id.Root)
	}
	return filepath.ToSlash(rel), nil
}
