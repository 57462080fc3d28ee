// Package configfile loads a profilerconfig.Config from a YAML file on
// disk and optionally watches it for edits, flipping a reconfig-pending
// flag that cmd/beamprofiler polls on its watchdog tick; on a change it
// reloads the file and hands the new Config to Worker.Reconfigure, which
// the capture worker applies at its next STAT_INTERVAL_MS tick (spec.md
// §4.4.3) — the file-driven equivalent of a UI thread writing the Config
// under a mutex.
//
// Grounded on the declarative load/persist shape used across the
// retrieval pack for YAML-backed settings (e.g. cwsl/ka9q_ubersdr), paired
// with fsnotify, a direct dependency of the teacher's go.mod that the
// retrieved subset of ausocean-av source never exercises.
package configfile

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/cignus/beamprofiler/internal/logging"
	"github.com/cignus/beamprofiler/profilerconfig"
)

// document is the on-disk shape; keys match profilerconfig's Variables
// table names so Load can round-trip through Config.Update.
type document map[string]string

// Load reads path as YAML and applies it to a fresh Config via Update and
// Validate.
func Load(path string, logger logging.Logger) (*profilerconfig.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("configfile: read %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("configfile: parse %s: %w", path, err)
	}

	c := profilerconfig.New(logger)
	c.Update(doc)
	if err := c.Validate(); err != nil && logger != nil {
		logger.Warning("config values clamped on load", "path", path, "err", err)
	}
	return c, nil
}

// Save writes c's current field values back to path as YAML, keyed by the
// Variables table's names.
func Save(path string, c *profilerconfig.Config) error {
	doc := document{
		profilerconfig.KeyNormalize:          boolStr(c.Normalize),
		profilerconfig.KeySubtractBackground: boolStr(c.SubtractBackground),
		profilerconfig.KeyMaxIters:           intStr(c.MaxIters),
		profilerconfig.KeyPrecision:          floatStr(c.Precision),
		profilerconfig.KeyCornerFraction:     floatStr(c.CornerFraction),
		profilerconfig.KeyNT:                 floatStr(c.NT),
		profilerconfig.KeyMaskDiameter:       floatStr(c.MaskDiameter),
		profilerconfig.KeyApertureEnabled:    boolStr(c.ApertureEnabled),
		profilerconfig.KeyApertureX1:         intStr(c.ApertureX1),
		profilerconfig.KeyApertureY1:         intStr(c.ApertureY1),
		profilerconfig.KeyApertureX2:         intStr(c.ApertureX2),
		profilerconfig.KeyApertureY2:         intStr(c.ApertureY2),
	}
	b, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("configfile: marshal: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("configfile: write %s: %w", path, err)
	}
	return nil
}

// Watcher watches a config file for edits and sets a pending flag on every
// write or create event, which PendingAndClear reports and clears.
type Watcher struct {
	path    string
	logger  logging.Logger
	fsw     *fsnotify.Watcher
	pending atomic.Bool

	mu     sync.Mutex
	closed bool
}

// NewWatcher starts watching path for writes.
func NewWatcher(path string, logger logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("configfile: new watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("configfile: watch %s: %w", path, err)
	}
	w := &Watcher{path: path, logger: logger, fsw: fsw}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.pending.Store(true)
				if w.logger != nil {
					w.logger.Info("config file changed", "path", w.path)
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warning("config watcher error", "err", err)
			}
		}
	}
}

// PendingAndClear reports whether a change was observed since the last
// call, clearing the flag.
func (w *Watcher) PendingAndClear() bool {
	return w.pending.Swap(false)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func intStr(n int) string    { return fmt.Sprintf("%d", n) }
func floatStr(f float64) string { return fmt.Sprintf("%g", f) }
