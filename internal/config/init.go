package config

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

const exampleHeader = `# blogbuilder configuration.
# Every key is optional; omitted keys keep the values shown here.
# ${VAR} references are expanded from the environment (and .env).
`

// Init writes an example configuration file holding the defaults.
func Init(configPath string, force bool) error {
	return WriteExample(configPath, Default(), force)
}

// WriteExample writes cfg as an example configuration file. An existing
// file is kept unless force is set.
func WriteExample(configPath string, cfg *Config, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	} else if err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to stat config file").Build()
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create config directory").Build()
		}
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// Marshal renders cfg as commented YAML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(exampleHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to encode configuration").Build()
	}
	if err := enc.Close(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to encode configuration").Build()
	}
	return buf.Bytes(), nil
}
