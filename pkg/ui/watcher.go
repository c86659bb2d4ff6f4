// This file implements the TableWatcher, which reloads the navigation table
// off the UI thread whenever the file changes on disk.
package ui

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	json "github.com/goccy/go-json"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/loader"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
)

// WorkerState represents the current state of the table watcher.
type WorkerState int

const (
	// WorkerIdle means the watcher is waiting for file changes.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means the watcher is reloading the table.
	WorkerProcessing
	// WorkerStopped means the watcher has been stopped.
	WorkerStopped
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerProcessing:
		return "processing"
	case WorkerStopped:
		return "stopped"
	default:
		return fmt.Sprintf("WorkerState(%d)", int(s))
	}
}

// WorkerError wraps errors with phase and retry context.
type WorkerError struct {
	Phase   string    // "load" or "hash"
	Cause   error     // The underlying error
	Time    time.Time // When the error occurred
	Retries int       // Consecutive failures including this one
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// TableReloadedMsg is sent to the UI when the table file changed and parsed.
type TableReloadedMsg struct {
	Table model.Table
	Hash  string
}

// TableErrorMsg is sent to the UI when reloading the table fails.
type TableErrorMsg struct {
	Err         error
	Recoverable bool // True if we expect to recover on next file change
}

// WatcherConfig configures a TableWatcher.
type WatcherConfig struct {
	TablePath     string
	DebounceDelay time.Duration
	Program       *tea.Program

	// Send overrides Program.Send. Used by tests.
	Send func(tea.Msg)
}

// TableWatcher watches one table file and reloads it in the background.
// Bursts of filesystem events are coalesced, and reloads whose content hash
// matches the last one are dropped.
type TableWatcher struct {
	tablePath     string
	debounceDelay time.Duration

	mu       sync.RWMutex
	state    WorkerState
	dirty    bool // A change arrived while processing
	table    *model.Table
	started  bool
	lastHash string

	lastError  *WorkerError
	errorCount int

	fsw  *fsnotify.Watcher
	send func(tea.Msg)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTableWatcher creates a watcher for cfg.TablePath. An empty path yields a
// watcher that never reloads.
func NewTableWatcher(cfg WatcherConfig) (*TableWatcher, error) {
	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = 200 * time.Millisecond
	}
	send := cfg.Send
	if send == nil && cfg.Program != nil {
		send = cfg.Program.Send
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &TableWatcher{
		tablePath:     cfg.TablePath,
		debounceDelay: cfg.DebounceDelay,
		state:         WorkerIdle,
		send:          send,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}

	if cfg.TablePath != "" {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			cancel()
			return nil, fmt.Errorf("create fsnotify watcher: %w", err)
		}
		w.fsw = fsw
	}
	return w, nil
}

// Start begins watching. Editors often replace files rather than write them,
// so the containing directory is watched and events are filtered by name.
// Start is idempotent.
func (w *TableWatcher) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if w.fsw == nil {
		close(w.done)
		return nil
	}
	if err := w.fsw.Add(filepath.Dir(w.tablePath)); err != nil {
		close(w.done)
		return fmt.Errorf("watch %s: %w", w.tablePath, err)
	}
	go w.processLoop()
	return nil
}

// Stop halts the watcher and releases the fsnotify handle. Stop is idempotent.
func (w *TableWatcher) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	wasStarted := w.started
	w.mu.Unlock()

	w.cancel()
	if w.fsw != nil {
		w.fsw.Close()
	}
	if wasStarted {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
		}
	}
}

// TriggerRefresh reloads the table now. While a reload is running the request
// is folded into a follow-up pass.
func (w *TableWatcher) TriggerRefresh() {
	w.mu.Lock()
	switch w.state {
	case WorkerStopped:
		w.mu.Unlock()
		return
	case WorkerProcessing:
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()
	go w.process()
}

// Table returns the last successfully loaded table, or nil.
func (w *TableWatcher) Table() *model.Table {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.table
}

// State returns the current watcher state.
func (w *TableWatcher) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// LastError returns the most recent error, or nil if the last reload succeeded.
func (w *TableWatcher) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

// ResetHash forces the next reload to be delivered even if unchanged.
func (w *TableWatcher) ResetHash() {
	w.mu.Lock()
	w.lastHash = ""
	w.mu.Unlock()
}

// processLoop coalesces filesystem events for the table file and reloads once
// they go quiet for the debounce delay.
func (w *TableWatcher) processLoop() {
	defer close(w.done)

	name := filepath.Base(w.tablePath)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounceDelay)
			} else {
				timer.Reset(w.debounceDelay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.process()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("table watcher error", "path", w.tablePath, "err", err)
		}
	}
}

// process reloads the table and notifies the UI if it changed.
func (w *TableWatcher) process() {
	w.mu.Lock()
	if w.state != WorkerIdle {
		if w.state == WorkerProcessing {
			w.dirty = true
		}
		w.mu.Unlock()
		return
	}
	w.state = WorkerProcessing
	w.dirty = false
	w.mu.Unlock()

	table, hash := w.reload()

	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if table != nil {
		w.table = table
	}
	wasDirty := w.dirty
	w.state = WorkerIdle
	w.mu.Unlock()

	if table != nil && w.send != nil {
		w.send(TableReloadedMsg{Table: *table, Hash: hash})
	}
	if wasDirty {
		go w.process()
	}
}

// reload loads and hashes the table file. It returns nil when loading failed
// or the content is unchanged.
func (w *TableWatcher) reload() (*model.Table, string) {
	if w.tablePath == "" {
		return nil, ""
	}
	start := time.Now()

	var table model.Table
	if werr := w.safeCompute("load", func() error {
		var err error
		table, err = loader.Load(w.tablePath)
		return err
	}); werr != nil {
		w.fail(werr)
		return nil, ""
	}

	var hash string
	if werr := w.safeCompute("hash", func() error {
		var err error
		hash, err = tableHash(table)
		return err
	}); werr != nil {
		w.fail(werr)
		return nil, ""
	}

	w.mu.RLock()
	lastHash := w.lastHash
	w.mu.RUnlock()
	if hash == lastHash && lastHash != "" {
		slog.Debug("table unchanged, skipping reload", "hash", hashPrefix(hash))
		w.recordError(nil)
		return nil, ""
	}

	w.recordError(nil)
	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()

	slog.Info("table reloaded",
		"path", w.tablePath,
		"entries", table.Count(),
		"took", time.Since(start),
		"hash", hashPrefix(hash))
	return &table, hash
}

func (w *TableWatcher) fail(werr *WorkerError) {
	slog.Warn("table reload failed", "path", w.tablePath, "err", werr)
	w.recordError(werr)
	if w.send != nil {
		w.send(TableErrorMsg{Err: werr, Recoverable: true})
	}
}

// safeCompute executes fn and recovers from any panics.
func (w *TableWatcher) safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{Phase: phase, Cause: err, Time: time.Now()}
		}
	}()
	return result
}

// recordError tracks consecutive failures.
func (w *TableWatcher) recordError(err *WorkerError) {
	w.mu.Lock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
	w.mu.Unlock()
}

// tableHash returns a content hash of the table's entries.
func tableHash(t model.Table) (string, error) {
	data, err := json.Marshal(t.Entries)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// hashPrefix returns up to 16 characters of hash for logging.
func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
