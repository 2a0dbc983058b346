package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"path"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"b24serve/src/internal/domain"
	"b24serve/src/internal/service/reload"
)

// Api serves the base directory with CORS headers on every response.
type Api struct {
	ctx   *domain.Context
	root  http.FileSystem
	files http.Handler
	hub   *reload.Hub // nil unless live reload is on
}

// Create builds the server for ctx.Config.Root. A nil hub disables live
// reload.
func Create(ctx *domain.Context, hub *reload.Hub) *Api {
	registerMimeTypes()

	root := http.Dir(ctx.Config.Root)
	return &Api{
		ctx:   ctx,
		root:  root,
		files: http.FileServer(root),
		hub:   hub,
	}
}

var mimeOnce sync.Once

// Minimal hosts often ship without /etc/mime.types and browsers refuse
// stylesheets or modules served with the wrong Content-Type.
func registerMimeTypes() {
	mimeOnce.Do(func() {
		mime.AddExtensionType(".css", "text/css; charset=utf-8")
		mime.AddExtensionType(".js", "text/javascript; charset=utf-8")
		mime.AddExtensionType(".mjs", "text/javascript; charset=utf-8")
		mime.AddExtensionType(".html", "text/html; charset=utf-8")
		mime.AddExtensionType(".svg", "image/svg+xml")
		mime.AddExtensionType(".json", "application/json")
		mime.AddExtensionType(".wasm", "application/wasm")
	})
}

// Handler is the complete request pipeline: CORS headers first, then the
// verb switch.
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	if a.hub != nil {
		mux.Handle(domain.LiveReloadPath, a.hub)
	}
	mux.HandleFunc("/", a.handleStatic)

	return withCors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		case http.MethodGet, http.MethodHead, http.MethodPost:
			// The Bitrix24 frame opens the app with POST; the body is ignored.
			mux.ServeHTTP(w, r)
		default:
			http.Error(w, fmt.Sprintf("Unsupported method (%q)", r.Method), http.StatusNotImplemented)
		}
	}))
}

func withCors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range domain.CorsHeaders {
			w.Header().Set(h[0], h[1])
		}
		next.ServeHTTP(w, r)
	})
}

// Listen binds the configured address. It is separate from Serve so a
// busy port is reported before anything is printed.
func (a *Api) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", a.ctx.Config.Addr())
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", a.ctx.Config.Addr(), err)
	}
	return ln, nil
}

// Serve answers requests on ln until it is closed, which is not an error.
func (a *Api) Serve(ln net.Listener) error {
	log.Debugf("Serving %s on %s", a.ctx.Config.Root, ln.Addr())
	srv := &http.Server{
		Handler: a.Handler(),
		// "OPTIONS *" must get the CORS headers too.
		DisableGeneralOptionsHandler: true,
	}
	err := srv.Serve(ln)
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (a *Api) handleStatic(w http.ResponseWriter, r *http.Request) {
	if a.hub != nil && a.serveInjected(w, r) {
		return
	}
	a.files.ServeHTTP(w, r)
}

// serveInjected serves HTML pages with the live-reload client added.
// It reports false when the request is left to the plain file server.
func (a *Api) serveInjected(w http.ResponseWriter, r *http.Request) bool {
	upath := r.URL.Path
	if !strings.HasPrefix(upath, "/") {
		upath = "/" + upath
	}
	// The file server redirects these to the directory itself.
	if strings.HasSuffix(upath, "/index.html") {
		return false
	}

	name := path.Clean(upath)
	if strings.HasSuffix(upath, "/") {
		name = path.Join(name, "index.html")
	}
	if ext := strings.ToLower(path.Ext(name)); ext != ".html" && ext != ".htm" {
		return false
	}

	f, err := a.root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil || st.IsDir() {
		return false
	}

	data, err := io.ReadAll(f)
	if err != nil {
		log.Warnf("Could not read %s: %v", name, err)
		return false
	}

	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, st.Name(), st.ModTime(), bytes.NewReader(reload.Inject(data)))
	return true
}
