package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSetProvidesEveryResource(t *testing.T) {
	s := Default()
	assert.Equal(t, "embedded", s.Source())
	for _, name := range Required {
		tpl, err := s.Get(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, tpl, name)
	}

	post, _ := s.Get(Post)
	assert.Contains(t, post, "作成日: {{DATE}}{{UPDATED}}")
	assert.Contains(t, post, "{{CONTENT}}")
}

func TestGetUnknown(t *testing.T) {
	_, err := Default().Get("nope.html")
	assert.True(t, errors.Is(err, ErrMissingTemplate))
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	written, err := WriteDefaults(dir, false)
	require.NoError(t, err)
	assert.Len(t, written, len(Required))

	require.NoError(t, os.WriteFile(filepath.Join(dir, Header), []byte("<custom>{{TITLE}}"), 0o644))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Source())
	hdr, err := s.Get(Header)
	require.NoError(t, err)
	assert.Equal(t, "<custom>{{TITLE}}", hdr)
}

func TestLoadMissingResource(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteDefaults(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, Footer)))

	_, err = Load(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingTemplate))
	assert.Contains(t, err.Error(), Footer)
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestWriteDefaultsKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, About)
	require.NoError(t, os.WriteFile(custom, []byte("mine"), 0o644))

	written, err := WriteDefaults(dir, false)
	require.NoError(t, err)
	assert.Len(t, written, len(Required)-1)
	data, _ := os.ReadFile(custom)
	assert.Equal(t, "mine", string(data))

	written, err = WriteDefaults(dir, true)
	require.NoError(t, err)
	assert.Len(t, written, len(Required))
	data, _ = os.ReadFile(custom)
	assert.NotEqual(t, "mine", string(data))
}
