package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"blog.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Generate the site from the source directory"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration and post template"`
	New   NewCmd   `cmd:"" help:"Create a new post from the template file"`
	Watch WatchCmd `cmd:"" help:"Rebuild the whole site whenever sources or templates change"`
}

// AfterApply runs after flag parsing; setup logging once. The configured
// level and format replace it once a config file is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	g.Logger = NewLogger(os.Stderr, levelFor(c.Verbose, ""), config.LogFormatText)
	slog.SetDefault(g.Logger)
	return nil
}

// NewLogger returns a slog logger writing text or JSON records to w.
func NewLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// levelFor maps the configured level to slog; --verbose always wins.
func levelFor(verbose bool, level config.LogLevel) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig reads .env files and the configuration. Only the default
// config path may be absent, in which case the defaults apply.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	name, err := config.LoadEnvFiles()
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if root.Config == config.DefaultPath {
		loaded, found, err := config.LoadOrDefault(root.Config)
		if err != nil {
			return nil, err
		}
		if !found {
			g.logger().Info("No configuration file, using defaults", slog.String("path", root.Config))
		}
		cfg = loaded
	} else {
		loaded, err := config.Load(root.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if g != nil {
		g.Logger = NewLogger(os.Stderr, levelFor(root.Verbose, cfg.Logging.Level), cfg.Logging.Format)
		slog.SetDefault(g.Logger)
	}
	if name != "" {
		g.logger().Debug("Loaded environment file", slog.String("path", name))
	}
	return cfg, nil
}
