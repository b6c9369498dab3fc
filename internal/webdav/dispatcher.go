package webdav

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dandidav/dandidav-go/internal/dandi"
	"github.com/dandidav/dandidav-go/internal/httpclient"
	"github.com/dandidav/dandidav-go/internal/paths"
	"github.com/dandidav/dandidav-go/internal/zarrman"
)

// ServerHeader is the value of the Server response header this gateway sets
// on every response that doesn't already carry one.
var ServerHeader = "dandidav/0.1.0"

// propfindFiniteDepthBody is the WebDAV error document returned when Depth
// is missing or "infinity", which this gateway refuses to serve (the tree
// can be unboundedly large).
const propfindFiniteDepthBody = `<?xml version="1.0" encoding="utf-8"?>
<error xmlns="DAV:">
    <propfind-finite-depth/>
</error>
`

// Dispatcher serves HTTP requests against a Resolver's virtual tree.
type Dispatcher struct {
	Resolver *Resolver
	Title    string
	Log      zerolog.Logger
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(r *Resolver, title string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{Resolver: r, Title: title, Log: log}
}

// ServeHTTP implements http.Handler, dispatching on method.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if w.Header().Get("Server") == "" {
		w.Header().Set("Server", ServerHeader)
	}

	// EscapedPath, not Path: net/http has already percent-decoded Path once,
	// and SplitURIPath needs to do its own single decode pass against the
	// original percent-encoding to avoid double-unescaping a literal "%25".
	components, err := SplitURIPath(req.URL.EscapedPath())
	if err != nil {
		d.writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	if ContainsFastNotExist(components) {
		d.writeText(w, http.StatusNotFound, "not found")
		return
	}

	switch req.Method {
	case http.MethodOptions:
		d.doOptions(w)
	case http.MethodGet:
		d.doGet(w, req, components, true)
	case http.MethodHead:
		d.doGet(w, req, components, false)
	case "PROPFIND":
		d.doPropfind(w, req, components)
	default:
		w.Header().Set("Allow", "OPTIONS, GET, HEAD, PROPFIND")
		d.writeText(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (d *Dispatcher) doOptions(w http.ResponseWriter) {
	w.Header().Set("Allow", "OPTIONS, GET, HEAD, PROPFIND")
	w.Header().Set("DAV", "1")
	w.WriteHeader(http.StatusOK)
}

func (d *Dispatcher) doGet(w http.ResponseWriter, req *http.Request, components []paths.Component, withBody bool) {
	dp, err := FromComponents(components)
	if err != nil {
		d.writeResolveError(w, err)
		return
	}
	res, err := d.Resolver.Resolve(req.Context(), dp)
	if err != nil {
		d.writeResolveError(w, err)
		return
	}

	switch {
	case res.IsCollection:
		children, err := d.Resolver.Children(req.Context(), res)
		if err != nil {
			d.writeResolveError(w, err)
			return
		}
		parentDP, hasParent := dp.Parent()
		body := RenderHTML(d.Title, res, children, parentDP.String(), hasParent)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
		w.WriteHeader(http.StatusOK)
		if withBody {
			w.Write(body)
		}

	case res.Kind == ResInline:
		w.Header().Set("Content-Type", res.ContentType)
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(res.Inline)))
		w.WriteHeader(http.StatusOK)
		if withBody {
			w.Write(res.Inline)
		}

	case res.Kind == ResRedirect || res.Kind == ResZarrman:
		if res.DownloadURL == nil {
			d.writeText(w, http.StatusNotFound, "not found")
			return
		}
		w.Header().Set("Location", res.DownloadURL.String())
		w.WriteHeader(http.StatusTemporaryRedirect)

	default:
		d.writeText(w, http.StatusNotFound, "not found")
	}
}

func (d *Dispatcher) doPropfind(w http.ResponseWriter, req *http.Request, components []paths.Component) {
	depth := req.Header.Get("Depth")
	switch depth {
	case "0", "1":
	case "", "infinity":
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(propfindFiniteDepthBody))
		return
	default:
		d.writeText(w, http.StatusBadRequest, "invalid Depth header")
		return
	}

	pf, err := ParsePropFind(req.Body)
	if err != nil {
		d.writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	dp, err := FromComponents(components)
	if err != nil {
		d.writeResolveError(w, err)
		return
	}
	res, err := d.Resolver.Resolve(req.Context(), dp)
	if err != nil {
		d.writeResolveError(w, err)
		return
	}

	resources := []Resource{res}
	if depth == "1" && res.IsCollection {
		children, err := d.Resolver.Children(req.Context(), res)
		if err != nil {
			d.writeResolveError(w, err)
			return
		}
		resources = append(resources, children...)
	}

	body := RenderMultiStatus(resources, pf)
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
	w.WriteHeader(http.StatusMultiStatus)
	w.Write(body)
}

// writeResolveError maps a Resolve/Children error to the response status
// per the error-to-status table: not-found kinds become 404, everything
// else becomes 500 with the originating cause logged.
func (d *Dispatcher) writeResolveError(w http.ResponseWriter, err error) {
	if isNotFound(err) {
		d.writeText(w, http.StatusNotFound, "not found")
		return
	}
	d.Log.Error().Err(err).Msg("webdav: resolve failed")
	d.writeText(w, http.StatusInternalServerError, "internal error")
}

func isNotFound(err error) bool {
	var notFound *dandi.NotFoundError
	var pathUnderBlob *dandi.PathUnderBlobError
	var zarrEntryNotFound *dandi.ZarrEntryNotFoundError
	var noLatest *NoLatestVersionError
	var httpNotFound *httpclient.NotFoundError
	switch {
	case errors.As(err, &notFound),
		errors.As(err, &pathUnderBlob),
		errors.As(err, &zarrEntryNotFound),
		errors.As(err, &noLatest),
		errors.As(err, &httpNotFound),
		errors.Is(err, ErrNotFound),
		errors.Is(err, zarrman.ErrEntryNotFound):
		return true
	default:
		return false
	}
}

func (d *Dispatcher) writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintln(w, msg)
}
