package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

// Routes served next to the docs.
const (
	TreePath  = "/__nav__/tree"
	PathPath  = "/__nav__/path"
	TablePath = "/__nav__/table"
)

// ServerConfig holds preview server settings.
type ServerConfig struct {
	Port      int
	DocsDir   string
	AllowAll  bool // allow all CORS origins
	Navtree   navtree.Options
	Summaries bool
}

// Server serves a docs directory and renders the navigation tree for any
// page on request, so every page opens with its own entry selected.
type Server struct {
	cfg    ServerConfig
	logger *slog.Logger

	mu    sync.RWMutex
	table model.Table

	hub        *LiveReloadHub
	router     chi.Router
	httpServer *http.Server
}

// NewServer creates a server for table. hub may be nil to disable live
// reload.
func NewServer(cfg ServerConfig, table model.Table, hub *LiveReloadHub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, table: table, hub: hub, logger: logger}
	s.router = s.buildRouter()
	return s
}

// navLoaderScript fills #nav-tree with the server-rendered tree for the
// current page.
const navLoaderScript = `<script>
(function() {
  var el = document.getElementById('nav-tree');
  if (!el) return;
  var page = location.pathname.replace(/^\//, '') || 'index.html';
  fetch('` + TreePath + `?page=' + encodeURIComponent(page))
    .then(function(r) { return r.ok ? r.text() : ''; })
    .then(function(html) {
      if (!html) return;
      el.innerHTML = html;
      el.querySelectorAll('a.toggle, a.nolink').forEach(function(a) {
        a.addEventListener('click', function(e) {
          e.preventDefault();
          var item = a.closest('.item');
          var ul = item.parentNode.querySelector(':scope > ul');
          var img = item.querySelector('a.toggle img');
          if (!ul || !img) return;
          var open = ul.style.display === 'none';
          ul.style.display = open ? '' : 'none';
          img.src = open ? img.src.replace('ftv2p', 'ftv2m') : img.src.replace('ftv2m', 'ftv2p');
        });
      });
      var sel = document.getElementById('selected');
      if (sel) sel.scrollIntoView({block: 'center'});
    });
})();
</script>`

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// The event stream stays open, so it lives outside the timeout group
	if s.hub != nil {
		r.Get(EventsPath, s.hub.SSEHandler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get(TreePath, s.handleTree)
		r.Get(PathPath, s.handlePath)
		r.Get(TablePath, s.handleTable)

		if s.cfg.DocsDir != "" {
			snippet := navLoaderScript
			if s.hub != nil {
				snippet += LiveReloadScript
			}
			files := http.FileServer(http.Dir(s.cfg.DocsDir))
			r.With(injectMiddleware([]byte(snippet))).Handle("/*", files)
		}
	})
	return r
}

// requestLogger logs each request through slog at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Table returns the table currently served.
func (s *Server) Table() model.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// SetTable swaps in a reloaded table; later requests use it.
func (s *Server) SetTable(t model.Table) {
	s.mu.Lock()
	s.table = t
	s.mu.Unlock()
}

func (s *Server) pageParam(r *http.Request) string {
	page := r.URL.Query().Get("page")
	if page == "" {
		page = s.cfg.Navtree.FallbackPage
	}
	if page == "" {
		page = navtree.DefaultFallbackPage
	}
	return page
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	page := s.pageParam(r)
	tree, _ := BuildTree(page, s.Table(), optionsForPage(s.cfg.Navtree, page))
	opts := HTMLOptions{Summaries: s.cfg.Summaries, Complete: true}

	var buf bytes.Buffer
	if r.URL.Query().Get("format") == "page" {
		if err := WritePage(&buf, tree, opts); err != nil {
			s.fail(w, r, err)
			return
		}
	} else if err := WriteFragment(&buf, tree, opts); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Crumb is one breadcrumb element in the path response.
type Crumb struct {
	Label string `json:"label"`
	Link  string `json:"link,omitempty"`
	Href  string `json:"href,omitempty"`
}

// PathResponse describes where a page sits in the table.
type PathResponse struct {
	Page       string  `json:"page"`
	Resolved   string  `json:"resolved"`
	Found      bool    `json:"found"`
	Fallback   bool    `json:"fallback"`
	Path       []int   `json:"path"`
	Breadcrumb []Crumb `json:"breadcrumb"`
}

// ResolvePath builds the path response for page.
func ResolvePath(page string, table model.Table, opts navtree.Options) PathResponse {
	tree := navtree.Initialize(page, table, navtree.NopHost{}, opts)
	resp := PathResponse{
		Page:       page,
		Resolved:   tree.Page(),
		Found:      tree.Selected() != nil,
		Path:       tree.Path(),
		Breadcrumb: []Crumb{},
	}
	resp.Fallback = resp.Found && resp.Resolved != page
	if resp.Path == nil {
		resp.Path = []int{}
	}
	for _, n := range tree.Breadcrumb() {
		resp.Breadcrumb = append(resp.Breadcrumb, Crumb{Label: n.Label(), Link: n.Link(), Href: tree.Href(n)})
	}
	return resp
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	page := s.pageParam(r)
	writeJSON(w, http.StatusOK, ResolvePath(page, s.Table(), optionsForPage(s.cfg.Navtree, page)))
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	t := s.Table()
	entries := t.Entries
	if entries == nil {
		entries = []model.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Addr returns the listen address for the configured port.
func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.cfg.Port)
}

// Start listens on the configured port until Shutdown. A clean shutdown
// returns nil.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()
	if s.hub != nil {
		// Event streams never go idle; end them as soon as shutdown starts.
		srv.RegisterOnShutdown(s.hub.Stop)
	}

	s.logger.Info("serving docs", "addr", ln.Addr().String(), "docs", s.cfg.DocsDir)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server. Live reload streams are closed
// first so connected browsers do not hold it open until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.httpServer
	s.mu.RUnlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}
