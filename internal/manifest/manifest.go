// Package manifest records what a build produced: one entry per post with a
// content fingerprint of its source, plus the site pages written.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

// Manifest is a complete record of one build's outputs. It carries only
// values derived from the inputs and the build date, so unchanged inputs
// produce an identical manifest.
type Manifest struct {
	BuildDate string   `json:"build_date"`
	Hash      string   `json:"hash"`
	Posts     []Entry  `json:"posts"`
	Skipped   []Skip   `json:"skipped,omitempty"`
	Pages     []string `json:"pages"`
}

// Entry describes one generated post.
type Entry struct {
	Slug        string `json:"slug"`
	Source      string `json:"source"`
	Output      string `json:"output"`
	Fingerprint string `json:"fingerprint"`
	Date        string `json:"date"`
	Updated     string `json:"updated,omitempty"`
}

// Skip records a source file that did not become a post.
type Skip struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Fingerprint computes the mdfp fingerprint of a document from its parsed
// front matter and body. Any fingerprint field already in the front matter is
// ignored, and key order does not matter.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		forHash[k] = v
	}

	fm := ""
	if len(forHash) > 0 {
		serialized, err := frontmatter.SerializeYAML(forHash, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return "", fmt.Errorf("serialize front matter: %w", err)
		}
		fm = strings.TrimSuffix(string(serialized), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}

// Seal computes Hash over the posts, skips and pages.
func (m *Manifest) Seal() error {
	data, err := json.Marshal(struct {
		Posts   []Entry  `json:"posts"`
		Skipped []Skip   `json:"skipped"`
		Pages   []string `json:"pages"`
	}{m.Posts, m.Skipped, m.Pages})
	if err != nil {
		return fmt.Errorf("marshal for hash: %w", err)
	}
	m.Hash = fmt.Sprintf("%x", sha256.Sum256(data))
	return nil
}

// ToJSON serializes the manifest to indented JSON with a trailing newline.
func (m *Manifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Write seals the manifest and writes it to path.
func (m *Manifest) Write(path string) error {
	if err := m.Seal(); err != nil {
		return err
	}
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Read loads a manifest written by Write.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return FromJSON(data)
}
