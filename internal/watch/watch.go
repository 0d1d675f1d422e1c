// Package watch re-runs exports when source files change and, optionally, on a
// fixed interval. Runs never overlap: every run executes on the watcher's own
// goroutine and triggers arriving during a run are coalesced into one follow-up.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
	"git.home.luguber.info/inful/langexport/internal/logfields"
)

// Trigger reasons passed to the RunFunc.
const (
	ReasonStartup  = "startup"
	ReasonChange   = "change"
	ReasonSchedule = "schedule"
)

// RunFunc performs one export. Errors are logged; the watcher keeps running.
type RunFunc func(ctx context.Context, reason string) error

// Options configure a Watcher.
type Options struct {
	// Paths are files or directories to watch. Directories are watched recursively.
	Paths []string
	// Ignore are directories whose events never trigger a run, such as the output directory.
	Ignore   []string
	Debounce time.Duration
	// Interval schedules a periodic run when positive.
	Interval time.Duration
}

// Watcher triggers RunFunc on file changes and on schedule.
type Watcher struct {
	opts    Options
	run     RunFunc
	fsw     *fsnotify.Watcher
	files   map[string]bool
	ignore  []string
	pending chan string
}

// New creates a watcher. Nothing is watched until Run is called.
func New(opts Options, run RunFunc) (*Watcher, error) {
	if run == nil {
		return nil, errors.ValidationError("run function is required").Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create file watcher").Build()
	}
	w := &Watcher{
		opts:    opts,
		run:     run,
		fsw:     fsw,
		files:   make(map[string]bool),
		pending: make(chan string, 1),
	}
	for _, dir := range opts.Ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}
	return w, nil
}

// Run watches until ctx is canceled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	for _, p := range w.opts.Paths {
		if err := w.add(p); err != nil {
			return err
		}
	}

	if w.opts.Interval > 0 {
		sched, err := w.schedule()
		if err != nil {
			return err
		}
		defer func() { _ = sched.Shutdown() }()
	}

	slog.Info("Watching for changes",
		logfields.Count(len(w.fsw.WatchList())),
		slog.Duration("debounce", w.opts.Debounce),
		slog.Duration("interval", w.opts.Interval))

	var debounce *time.Timer
	var debounceC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.addDir(ev.Name)
				}
			}
			slog.Debug("Change detected", logfields.Path(ev.Name), logfields.Event(ev.Op.String()))
			if debounce == nil {
				debounce = time.NewTimer(w.opts.Debounce)
			} else {
				debounce.Reset(w.opts.Debounce)
			}
			debounceC = debounce.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))

		case <-debounceC:
			debounceC = nil
			w.execute(ctx, ReasonChange)

		case reason := <-w.pending:
			w.execute(ctx, reason)
		}
	}
}

// Trigger requests a run. Requests made while one is pending are dropped.
func (w *Watcher) Trigger(reason string) {
	select {
	case w.pending <- reason:
	default:
	}
}

func (w *Watcher) execute(ctx context.Context, reason string) {
	slog.Info("Running export", slog.String("reason", reason))
	if err := w.run(ctx, reason); err != nil {
		slog.Error("Export run failed", slog.String("reason", reason), logfields.Error(err))
	}
}

func (w *Watcher) schedule() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create scheduler").Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(w.Trigger, ReasonSchedule),
		gocron.WithName("periodic-export"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to schedule periodic export").
			WithContext("interval", w.opts.Interval.String()).
			Build()
	}
	s.Start()
	return s, nil
}

func (w *Watcher) add(p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid watch path").WithContext("path", p).Build()
	}
	info, err := os.Stat(abs)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "watch path does not exist").WithContext("path", abs).Build()
	}
	if info.IsDir() {
		return w.addDir(abs)
	}
	// Watch the parent directory; editors replace files instead of writing them.
	w.files[abs] = true
	if err := w.fsw.Add(filepath.Dir(abs)); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to watch directory").WithContext("path", filepath.Dir(abs)).Build()
	}
	return nil
}

func (w *Watcher) addDir(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return errors.WrapError(err, errors.CategoryRuntime, "failed to watch directory").WithContext("path", path).Build()
		}
		return nil
	})
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil || w.ignored(name) {
		return false
	}
	if w.files[name] {
		return true
	}
	// A file watch only adds its parent directory; other entries there do not count
	// unless that directory was also requested.
	dir := filepath.Dir(name)
	for f := range w.files {
		if filepath.Dir(f) == dir && !w.watchedRecursively(dir) {
			return false
		}
	}
	return true
}

func (w *Watcher) watchedRecursively(dir string) bool {
	for _, p := range w.opts.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() && within(abs, dir) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignore {
		if within(dir, path) {
			return true
		}
	}
	return false
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
