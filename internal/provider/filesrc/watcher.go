package filesrc

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"vtschooldata/internal/core/ports"
)

var _ ports.MirrorWatcher = (*Provider)(nil)

// Both variants of a year's file count as a change to that year.
var anyVariantPattern = regexp.MustCompile(`^enrollment_(?:demo_)?(\d{4})\.csv$`)

type mirrorWatcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	onChange  func(years []int)

	pending   map[int]bool
	pendingMu sync.Mutex
	timer     *time.Timer
	done      chan struct{}
}

// WatchMirror watches the mirror directory and reports which years
// changed, debounced so a bulk sync produces one callback. The
// returned stop function releases the fsnotify watcher.
func (p *Provider) WatchMirror(onChange func(years []int)) (func() error, error) {
	return p.WatchMirrorDebounced(500*time.Millisecond, onChange)
}

func (p *Provider) WatchMirrorDebounced(debounce time.Duration, onChange func(years []int)) (func() error, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(p.dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &mirrorWatcher{
		fsWatcher: fsw,
		debounce:  debounce,
		onChange:  onChange,
		pending:   make(map[int]bool),
		done:      make(chan struct{}),
	}
	go w.run()

	return func() error {
		close(w.done)
		return fsw.Close()
	}, nil
}

func (w *mirrorWatcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			m := anyVariantPattern.FindStringSubmatch(filepath.Base(event.Name))
			if m == nil {
				continue
			}
			year, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			w.mark(year)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Warn("mirror watcher error", "error", err)
		}
	}
}

func (w *mirrorWatcher) mark(year int) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[year] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *mirrorWatcher) flush() {
	w.pendingMu.Lock()
	years := make([]int, 0, len(w.pending))
	for y := range w.pending {
		years = append(years, y)
	}
	w.pending = make(map[int]bool)
	w.pendingMu.Unlock()

	if len(years) == 0 {
		return
	}
	sort.Ints(years)
	w.onChange(years)
}
