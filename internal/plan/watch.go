package plan

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Op is what happened to a watched file between two scans.
type Op int

const (
	Created Op = iota + 1
	Modified
	Removed
)

func (o Op) String() string {
	switch o {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Change is one file event seen by a ConfigWatcher scan.
type Change struct {
	Path string
	Op   Op
}

// ConfigWatcher polls modification times of fixed files plus every *.yaml in
// a set of directories, and reports what changed since the previous scan.
type ConfigWatcher struct {
	files    []string
	dirs     []string
	interval time.Duration
	onChange func([]Change)

	mu     sync.Mutex
	seen   map[string]time.Time
	primed bool

	stop     chan struct{}
	stopOnce sync.Once
}

// NewConfigWatcher watches files and the *.yaml entries of dirs.
// onChange receives every change of one scan in a single call.
func NewConfigWatcher(files, dirs []string, interval time.Duration, onChange func([]Change)) *ConfigWatcher {
	return &ConfigWatcher{
		files:    files,
		dirs:     dirs,
		interval: interval,
		onChange: onChange,
		seen:     make(map[string]time.Time),
		stop:     make(chan struct{}),
	}
}

// WatchLoader invalidates l's cache whenever defaults, banners or any plan file changes.
func WatchLoader(l *Loader, interval time.Duration, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	p := l.Paths()
	files := []string{p.DefaultPath(), p.BannersPath()}
	dirs := []string{filepath.Join(p.BaseDir, "plans")}
	return NewConfigWatcher(files, dirs, interval, func(changes []Change) {
		for _, c := range changes {
			logger.Info("config file changed", "path", c.Path, "op", c.Op.String())
		}
		l.Invalidate()
	})
}

// Start records the current state and polls every interval until Stop.
func (w *ConfigWatcher) Start() {
	w.Poll()
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.Poll()
			case <-w.stop:
				return
			}
		}
	}()
}

// Stop ends polling. Safe to call more than once.
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// Poll scans once and hands any changes to the callback.
func (w *ConfigWatcher) Poll() []Change {
	changes := w.scan()
	if len(changes) > 0 && w.onChange != nil {
		w.onChange(changes)
	}
	return changes
}

// scan compares the watched files against the previous scan.
// The first scan only records state.
func (w *ConfigWatcher) scan() []Change {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := make(map[string]time.Time, len(w.seen))
	for _, path := range w.paths() {
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		now[path] = fi.ModTime()
	}

	var changes []Change
	if w.primed {
		for path, mt := range now {
			prev, ok := w.seen[path]
			switch {
			case !ok:
				changes = append(changes, Change{Path: path, Op: Created})
			case mt.After(prev):
				changes = append(changes, Change{Path: path, Op: Modified})
			}
		}
		for path := range w.seen {
			if _, ok := now[path]; !ok {
				changes = append(changes, Change{Path: path, Op: Removed})
			}
		}
	}
	w.seen = now
	w.primed = true
	return changes
}

func (w *ConfigWatcher) paths() []string {
	out := append([]string(nil), w.files...)
	for _, d := range w.dirs {
		matches, _ := filepath.Glob(filepath.Join(d, "*.yaml"))
		out = append(out, matches...)
	}
	return out
}
