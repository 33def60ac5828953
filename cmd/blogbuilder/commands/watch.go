package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/dates"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output   string        `short:"o" help:"Output directory (overrides paths.output_dir)"`
	Strict   bool          `help:"Fail when a template placeholder has no value"`
	Daily    bool          `help:"Also rebuild at midnight in the site timezone so dates stay current"`
	Debounce time.Duration `default:"500ms" help:"Quiet period after the last change before rebuilding"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher := &Watcher{
		Logger:     g.logger(),
		Debounce:   w.Debounce,
		ConfigPath: root.Config,
		Load:       func() (*config.Config, error) { return loadConfig(g, root) },
		Build: func(ctx context.Context, cfg *config.Config) error {
			_, err := RunBuild(ctx, g.logger(), cfg, BuildOptions{Output: w.Output, Strict: w.Strict, Progress: os.Stdout})
			return err
		},
	}
	return watcher.Run(ctx, cfg, w.Daily)
}

// Watcher rebuilds the whole site when a post, template or the config file
// changes. Rebuilds run one at a time on the watch loop.
type Watcher struct {
	Logger     *slog.Logger
	Debounce   time.Duration
	ConfigPath string
	Load       func() (*config.Config, error)
	Build      func(ctx context.Context, cfg *config.Config) error
}

// Run builds once, then watches until ctx is done.
func (w *Watcher) Run(ctx context.Context, cfg *config.Config, daily bool) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to create file watcher").Build()
	}
	defer func() { _ = fsw.Close() }()

	for _, dir := range w.watchDirs(cfg) {
		if err := fsw.Add(dir); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to watch directory").
				WithContext("dir", dir).
				Build()
		}
		w.Logger.Info("Watching directory", slog.String("dir", dir))
	}

	triggers := make(chan string, 1)
	trigger := func(reason string) {
		select {
		case triggers <- reason:
		default:
			// a rebuild is already pending
		}
	}

	if daily {
		sched, err := newDailyScheduler(cfg.Site.TimezoneOffsetHours, func() { trigger("daily") })
		if err != nil {
			return err
		}
		sched.Start()
		defer func() { _ = sched.Shutdown() }()
	}

	cfg = w.rebuild(ctx, cfg, "startup")

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("Watch stopped")
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(cfg, ev) {
				continue
			}
			w.Logger.Debug("Change detected", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.AfterFunc(w.Debounce, func() { trigger("change") })
			} else {
				timer.Reset(w.Debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("File watcher error", logfields.Error(err))
		case reason := <-triggers:
			cfg = w.rebuild(ctx, cfg, reason)
		}
	}
}

// rebuild reloads the configuration (keeping the previous one when the new
// one is invalid) and runs a full build. Failures are logged, never fatal.
func (w *Watcher) rebuild(ctx context.Context, cfg *config.Config, reason string) *config.Config {
	if reason != "startup" && w.Load != nil {
		next, err := w.Load()
		if err != nil {
			w.Logger.Warn("Keeping previous configuration", logfields.Error(err))
		} else {
			cfg = next
		}
	}
	w.Logger.Info("Rebuilding site", logfields.Reason(reason))
	if err := w.Build(ctx, cfg); err != nil {
		w.Logger.Error("Rebuild failed", logfields.Error(err))
	}
	return cfg
}

// watchDirs lists the directories to watch: sources, templates and the
// directory holding the config file.
func (w *Watcher) watchDirs(cfg *config.Config) []string {
	var dirs []string
	seen := map[string]bool{}
	add := func(dir string) {
		abs, err := filepath.Abs(dir)
		if err != nil || seen[abs] {
			return
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return
		}
		seen[abs] = true
		dirs = append(dirs, abs)
	}
	add(cfg.Paths.SourceDir)
	if cfg.Paths.TemplatesDir != "" {
		add(cfg.Paths.TemplatesDir)
	}
	if w.ConfigPath != "" {
		if _, err := os.Stat(w.ConfigPath); err == nil {
			add(filepath.Dir(w.ConfigPath))
		}
	}
	return dirs
}

// relevant reports whether ev can change the generated site.
func (w *Watcher) relevant(cfg *config.Config, ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	if w.ConfigPath != "" && sameFile(name, w.ConfigPath) {
		return true
	}
	dir, base := filepath.Dir(name), filepath.Base(name)
	if sameFile(dir, cfg.Paths.SourceDir) {
		return strings.HasSuffix(base, ".md") && base != cfg.Paths.ReservedFile
	}
	if cfg.Paths.TemplatesDir != "" && sameFile(dir, cfg.Paths.TemplatesDir) {
		return strings.HasSuffix(base, ".html")
	}
	return false
}

func sameFile(abs, other string) bool {
	o, err := filepath.Abs(other)
	return err == nil && abs == o
}

// newDailyScheduler runs task every day at midnight in the site's fixed zone.
func newDailyScheduler(offsetHours int, task func()) (gocron.Scheduler, error) {
	loc := dates.NewFormatter(offsetHours, nil).Location()
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(task),
		gocron.WithName("daily-rebuild"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule daily rebuild: %w", err)
	}
	return s, nil
}
