package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventsPath is the SSE endpoint browsers subscribe to for reloads.
const EventsPath = "/__nav__/events"

// LiveReloadHub watches the docs directory and the navigation table and tells
// connected browsers to reload when either changes.
type LiveReloadHub struct {
	paths   []string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu      sync.RWMutex
	clients map[chan struct{}]struct{}

	// onChange runs before clients are notified (table reload, cache reset).
	onChange func(path string)

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	lastEvent time.Time
	debounce  time.Duration
}

// NewLiveReloadHub creates a hub watching paths. Files are watched through
// their parent directory so editors that replace files atomically still
// trigger a reload.
func NewLiveReloadHub(logger *slog.Logger, paths ...string) (*LiveReloadHub, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &LiveReloadHub{
		paths:    paths,
		watcher:  watcher,
		logger:   logger,
		clients:  make(map[chan struct{}]struct{}),
		ctx:      ctx,
		cancel:   cancel,
		debounce: 200 * time.Millisecond,
	}, nil
}

// OnChange registers fn to run for every accepted change, before browsers
// are told to reload.
func (h *LiveReloadHub) OnChange(fn func(path string)) {
	h.onChange = fn
}

// Start begins watching.
func (h *LiveReloadHub) Start() error {
	for _, p := range h.paths {
		if p == "" {
			continue
		}
		target := p
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			target = filepath.Dir(p)
		}
		if err := h.watcher.Add(target); err != nil {
			return fmt.Errorf("watch %s: %w", target, err)
		}

		// Subdirectories one level down, best effort
		entries, err := filepath.Glob(filepath.Join(target, "*"))
		if err == nil {
			for _, entry := range entries {
				if info, err := os.Stat(entry); err == nil && info.IsDir() {
					_ = h.watcher.Add(entry)
				}
			}
		}
	}

	go h.watchLoop()
	return nil
}

// Stop shuts down the hub and disconnects every client. Open event streams
// end, so an http.Server shutdown does not wait on them. Safe to call more
// than once.
func (h *LiveReloadHub) Stop() {
	h.stopOnce.Do(func() {
		h.cancel()
		h.watcher.Close()

		h.mu.Lock()
		defer h.mu.Unlock()
		for ch := range h.clients {
			close(ch)
		}
		h.clients = make(map[chan struct{}]struct{})
	})
}

// ClientCount returns the number of connected clients.
func (h *LiveReloadHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *LiveReloadHub) watchLoop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			now := time.Now()
			if now.Sub(h.lastEvent) < h.debounce {
				continue
			}
			h.lastEvent = now

			h.logger.Debug("docs changed", "path", event.Name, "op", event.Op.String())
			if h.onChange != nil {
				h.onChange(event.Name)
			}
			h.Notify()

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Warn("live reload watcher error", "error", err)
		}
	}
}

// Notify sends a reload signal to every connected client without blocking.
func (h *LiveReloadHub) Notify() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// SSEHandler returns the handler for EventsPath.
func (h *LiveReloadHub) SSEHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		clientCh := make(chan struct{}, 1)
		h.mu.Lock()
		h.clients[clientCh] = struct{}{}
		h.mu.Unlock()

		defer func() {
			h.mu.Lock()
			delete(h.clients, clientCh)
			h.mu.Unlock()
		}()

		fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-h.ctx.Done():
				return
			case _, ok := <-clientCh:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: reload\ndata: {\"action\":\"reload\"}\n\n")
				flusher.Flush()
			}
		}
	}
}

// LiveReloadScript reloads the page when the server reports a change, and
// reconnects with backoff when the stream drops.
const LiveReloadScript = `<script>
(function() {
  if (typeof(EventSource) === 'undefined') return;
  var reconnectDelay = 1000;
  var maxReconnectDelay = 30000;

  function connect() {
    var es = new EventSource('` + EventsPath + `');

    es.addEventListener('connected', function() {
      reconnectDelay = 1000;
    });

    es.addEventListener('reload', function() {
      location.reload();
    });

    es.onerror = function() {
      es.close();
      setTimeout(connect, reconnectDelay);
      reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
    };
  }

  connect();
})();
</script>`

// injectMiddleware injects snippet before </body> in HTML responses.
func injectMiddleware(snippet []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isHTMLPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			irw := &injectingResponseWriter{
				ResponseWriter: w,
				inject:         snippet,
			}
			next.ServeHTTP(irw, r)

			// HTML without </html> is still buffered
			irw.Flush()
		})
	}
}

func isHTMLPath(p string) bool {
	ext := filepath.Ext(p)
	return ext == ".html" || ext == ".htm" || ext == "" || p == "/"
}

// injectingResponseWriter buffers an HTML body until </html> and splices the
// snippet in before </body>.
type injectingResponseWriter struct {
	http.ResponseWriter
	inject    []byte
	injected  bool
	buf       []byte
	committed bool
	status    int
}

// WriteHeader defers the status until the body is known, dropping the
// Content-Length the file server set for the unmodified file.
func (w *injectingResponseWriter) WriteHeader(code int) {
	if w.committed {
		w.ResponseWriter.WriteHeader(code)
		return
	}
	w.status = code
}

func (w *injectingResponseWriter) Write(b []byte) (int, error) {
	if w.committed {
		return w.ResponseWriter.Write(b)
	}
	if !w.isHTML() {
		w.passThrough()
		return w.ResponseWriter.Write(b)
	}

	w.buf = append(w.buf, b...)

	if idx := bytes.LastIndex(w.buf, []byte("</body>")); idx >= 0 && !w.injected {
		spliced := make([]byte, 0, len(w.buf)+len(w.inject))
		spliced = append(spliced, w.buf[:idx]...)
		spliced = append(spliced, w.inject...)
		spliced = append(spliced, w.buf[idx:]...)
		w.buf = spliced
		w.injected = true
	}

	if bytes.Contains(w.buf, []byte("</html>")) {
		return len(b), w.commit()
	}
	return len(b), nil
}

// Flush writes whatever is still buffered, appending the snippet if no
// </body> was seen.
func (w *injectingResponseWriter) Flush() {
	if !w.committed && (len(w.buf) > 0 || w.status != 0) {
		if !w.injected && w.isHTML() {
			w.buf = append(w.buf, w.inject...)
			w.injected = true
		}
		_ = w.commit()
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *injectingResponseWriter) commit() error {
	if w.injected {
		w.Header().Del("Content-Length")
	}
	w.passThrough()
	_, err := w.ResponseWriter.Write(w.buf)
	return err
}

// passThrough sends the deferred status; later writes go straight through.
func (w *injectingResponseWriter) passThrough() {
	w.committed = true
	if w.status != 0 {
		w.ResponseWriter.WriteHeader(w.status)
	}
}

// isHTML reports whether the buffered response is an HTML page; error bodies
// and redirects pass through untouched.
func (w *injectingResponseWriter) isHTML() bool {
	if w.status != 0 && w.status != http.StatusOK {
		return false
	}
	ct := w.Header().Get("Content-Type")
	return ct == "" || len(ct) >= 9 && ct[:9] == "text/html"
}
