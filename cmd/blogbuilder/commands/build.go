package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Output directory (overrides paths.output_dir)"`
	Strict      bool   `help:"Fail when a template placeholder has no value"`
	VerifyLinks bool   `name:"verify-links" help:"Check relative links in the generated pages"`
	Manifest    string `help:"Write a build manifest with this name into the output directory"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if b.VerifyLinks {
		cfg.Build.VerifyLinks = true
	}
	if b.Manifest != "" {
		cfg.Build.Manifest = b.Manifest
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, err = RunBuild(ctx, g.logger(), cfg, BuildOptions{Output: b.Output, Strict: b.Strict, Progress: os.Stdout})
	return err
}

// BuildOptions are the per-invocation overrides of a build.
type BuildOptions struct {
	Output   string
	Strict   bool
	Progress io.Writer
}

// RunBuild executes one build invocation and exports the metrics textfile
// when one is configured.
func RunBuild(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts BuildOptions) (*build.BuildResult, error) {
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}
	svc := build.NewBuildService().WithLogger(logger).WithProgress(progress)

	var rec *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		rec = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		svc.WithRecorder(rec)
	}

	result, err := svc.Run(ctx, build.BuildRequest{Config: cfg, OutputDir: opts.Output, Strict: opts.Strict})

	if rec != nil {
		if werr := rec.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			logger.Warn("Failed to write metrics textfile", logfields.Output(cfg.Metrics.Textfile), logfields.Error(werr))
		}
	}
	if err != nil {
		return result, err
	}
	if n := len(result.BrokenLinks); n > 0 {
		_, _ = fmt.Fprintf(progress, "Found %d broken links\n", n)
	}
	return result, nil
}
