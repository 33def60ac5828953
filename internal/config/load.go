package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// envFiles are tried in order; process variables already set are never overridden.
var envFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads the first .env style file found in the working
// directory and returns its name, or "" when none exists.
func LoadEnvFiles() (string, error) {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return "", errors.WrapError(err, errors.CategoryConfig, "failed to load env file").
				WithContext("path", name).
				Build()
		}
		return name, nil
	}
	return "", nil
}

// Load reads and validates the configuration file at path. A missing file
// is a config error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", path).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", path).
			Build()
	}
	cfg, err := Parse(data)
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when path does
// not exist. The boolean reports whether a file was read.
func LoadOrDefault(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); stderrors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := Validate(cfg); err != nil {
			return nil, false, err
		}
		return cfg, false, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// Parse decodes YAML on top of the defaults: keys the document omits keep
// their default values. ${VAR} references are expanded first and unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").Build()
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	normalize(cfg)
	return cfg, nil
}
