package export

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, docsDir string, hub *LiveReloadHub) *Server {
	t.Helper()
	cfg := ServerConfig{Port: 0, DocsDir: docsDir, Navtree: navtree.DefaultOptions()}
	return NewServer(cfg, sampleTable(), hub, quietLogger())
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	w := get(t, newTestServer(t, "", nil), "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestPathEndpoint(t *testing.T) {
	s := newTestServer(t, "", nil)

	tests := []struct {
		name       string
		page       string
		wantFound  bool
		wantFallbk bool
		wantPath   []int
		wantCrumbs []string
	}{
		{"nested page", "install.html", true, false, []int{1, 1, 0}, []string{"Docs", "Guide", "Install"}},
		{"top level", "about.html", true, false, []int{3}, []string{"About"}},
		{"unknown page", "gone.html", true, true, []int{0}, []string{"Home"}},
		{"no page", "", true, false, []int{0}, []string{"Home"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := get(t, s, PathPath+"?page="+tc.page)
			if w.Code != http.StatusOK {
				t.Fatalf("status %d", w.Code)
			}
			var resp PathResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Found != tc.wantFound || resp.Fallback != tc.wantFallbk {
				t.Errorf("found=%v fallback=%v", resp.Found, resp.Fallback)
			}
			if len(resp.Path) != len(tc.wantPath) {
				t.Fatalf("path = %v, want %v", resp.Path, tc.wantPath)
			}
			for i := range tc.wantPath {
				if resp.Path[i] != tc.wantPath[i] {
					t.Errorf("path = %v, want %v", resp.Path, tc.wantPath)
				}
			}
			var labels []string
			for _, c := range resp.Breadcrumb {
				labels = append(labels, c.Label)
			}
			if strings.Join(labels, ">") != strings.Join(tc.wantCrumbs, ">") {
				t.Errorf("breadcrumb = %v, want %v", labels, tc.wantCrumbs)
			}
		})
	}
}

func TestResolvePathNotFound(t *testing.T) {
	resp := ResolvePath("gone.html", sampleTable(), navtree.Options{FallbackPage: "also-gone.html"})
	if resp.Found || resp.Resolved != "" {
		t.Errorf("found=%v resolved=%q", resp.Found, resp.Resolved)
	}
	if resp.Path == nil || len(resp.Path) != 0 || len(resp.Breadcrumb) != 0 {
		t.Errorf("expected empty path and breadcrumb, got %v %v", resp.Path, resp.Breadcrumb)
	}
}

func TestTreeEndpoint(t *testing.T) {
	s := newTestServer(t, "", nil)
	w := get(t, s, TreePath+"?page=guide.html")

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type %q", ct)
	}
	body := w.Body.String()
	if strings.Count(body, `id="selected"`) != 1 {
		t.Fatalf("expected one selected item:\n%s", body)
	}
	if !strings.Contains(body, ">Install</a>") {
		t.Error("children of the selected page should be shown")
	}

	w = get(t, s, TreePath+"?page=guide.html&format=page")
	if !strings.HasPrefix(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("format=page should return a full document")
	}
}

func TestTreeEndpointPrefixesLinksBySubdirectory(t *testing.T) {
	s := newTestServer(t, "", nil)
	table := sampleTable()
	table.Entries[2].Children = append(table.Entries[2].Children,
		model.Entry{Label: "Deep", Link: "sub/deep.html"})
	s.SetTable(table)

	body := get(t, s, TreePath+"?page=sub/deep.html").Body.String()
	if !strings.Contains(body, `href="../index.html"`) {
		t.Errorf("links from sub/ should climb one level:\n%s", body)
	}
	if !strings.Contains(body, `src="../ftv2node.png"`) {
		t.Error("icons should carry the same prefix")
	}

	var resp PathResponse
	if err := json.Unmarshal(get(t, s, PathPath+"?page=sub/deep.html").Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if n := len(resp.Breadcrumb); n == 0 || resp.Breadcrumb[n-1].Href != "../sub/deep.html" {
		t.Errorf("breadcrumb = %+v", resp.Breadcrumb)
	}

	body = get(t, s, TreePath+"?page=guide.html").Body.String()
	if !strings.Contains(body, `href="index.html"`) {
		t.Errorf("top-level pages need no prefix:\n%s", body)
	}
}

func TestSetTableAffectsLaterRequests(t *testing.T) {
	s := newTestServer(t, "", nil)
	table := sampleTable()
	table.Entries[3].Label = "Colophon"
	s.SetTable(table)

	w := get(t, s, PathPath+"?page=about.html")
	if !strings.Contains(w.Body.String(), "Colophon") {
		t.Errorf("reloaded table not used: %s", w.Body.String())
	}
	w = get(t, s, TablePath)
	if !strings.Contains(w.Body.String(), `"Colophon"`) {
		t.Errorf("table endpoint: %s", w.Body.String())
	}
}

func TestStaticHTMLGetsScriptsInjected(t *testing.T) {
	dir := t.TempDir()
	page := "<html><body><div id=\"nav-tree\"></div><p>Guide</p></body></html>"
	if err := os.WriteFile(filepath.Join(dir, "guide.html"), []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	hub, err := NewLiveReloadHub(quietLogger(), dir)
	if err != nil {
		t.Fatal(err)
	}
	defer hub.Stop()
	s := newTestServer(t, dir, hub)

	w := get(t, s, "/guide.html")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, TreePath) || !strings.Contains(body, EventsPath) {
		t.Errorf("scripts not injected:\n%s", body)
	}
	if strings.Index(body, "<script>") > strings.Index(body, "</body>") {
		t.Error("scripts should go before </body>")
	}
	if cl := w.Header().Get("Content-Length"); cl != "" && cl != "0" {
		t.Errorf("stale Content-Length %s", cl)
	}

	w = get(t, s, "/style.css")
	if w.Body.String() != "body{}" {
		t.Errorf("non-HTML file modified: %q", w.Body.String())
	}
}

func TestStaticHTMLWithoutLiveReload(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html><body></body></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, dir, nil)

	body := get(t, s, "/").Body.String()
	if !strings.Contains(body, TreePath) {
		t.Error("tree loader should be injected")
	}
	if strings.Contains(body, EventsPath) {
		t.Error("no live reload without a hub")
	}
}

func TestCORSHeaders(t *testing.T) {
	s := NewServer(ServerConfig{AllowAll: true}, sampleTable(), nil, quietLogger())

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestSSEStreamDeliversReload(t *testing.T) {
	hub, err := NewLiveReloadHub(quietLogger(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, "", hub)

	ts := httptest.NewServer(s.Router())
	defer ts.Close()
	defer hub.Stop()

	resp, err := http.Get(ts.URL + EventsPath)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	if line, _ := r.ReadString('\n'); !strings.HasPrefix(line, "event: connected") {
		t.Fatalf("first event %q", line)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	hub.Notify()

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("stream ended: %v", err)
		}
		if strings.HasPrefix(line, "event: reload") {
			return
		}
	}
}

func TestShutdownClosesEventStreams(t *testing.T) {
	hub, err := NewLiveReloadHub(quietLogger(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, "", hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + EventsPath)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if line, _ := bufio.NewReader(resp.Body).ReadString('\n'); !strings.HasPrefix(line, "event: connected") {
		t.Fatalf("first event %q", line)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("shutdown took %v with a client connected", elapsed)
	}
	if err := <-served; err != nil {
		t.Errorf("Serve() error = %v", err)
	}
}
