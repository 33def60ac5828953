package commands

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/templates"
)

// DefaultTemplatesDir is where 'init --templates' copies the built-in templates.
const DefaultTemplatesDir = "templates"

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force     bool `help:"Overwrite existing files"`
	Templates bool `help:"Also copy the built-in templates into ./templates for customization"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(os.Stdout, root.Config, i.Force, i.Templates)
}

// RunInit writes the example configuration, the source directory with its
// post template and, when asked, an editable copy of the page templates.
func RunInit(out io.Writer, configPath string, force, withTemplates bool) error {
	_, _ = fmt.Fprintln(out, "Initializing blog project")

	cfg := config.Default()
	if withTemplates {
		cfg.Paths.TemplatesDir = DefaultTemplatesDir
	}

	_, _ = fmt.Fprintf(out, "Writing configuration to %s\n", configPath)
	if err := config.WriteExample(configPath, cfg, force); err != nil {
		_, _ = fmt.Fprintln(out, "Initialization failed")
		return err
	}

	// Relative paths in the config are resolved from the working directory.
	if err := os.MkdirAll(cfg.Paths.SourceDir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create source directory").
			WithContext("dir", cfg.Paths.SourceDir).
			Build()
	}
	reserved := filepath.Join(cfg.Paths.SourceDir, cfg.Paths.ReservedFile)
	if err := writeIfAbsent(reserved, []byte(postSkeleton), force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Post template at %s\n", reserved)

	if withTemplates {
		written, err := templates.WriteDefaults(DefaultTemplatesDir, force)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to write templates").
				WithContext("dir", DefaultTemplatesDir).
				Build()
		}
		for _, p := range written {
			_, _ = fmt.Fprintf(out, "  wrote %s\n", p)
		}
	}

	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}

func writeIfAbsent(path string, data []byte, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return nil
	} else if err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to stat file").
			WithContext("path", path).
			Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write file").
			WithContext("path", path).
			Build()
	}
	return nil
}
