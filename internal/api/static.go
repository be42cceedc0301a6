package api

import (
	"errors"
	"io/fs"
	"net/http"
	"path"

	"go.opentelemetry.io/otel/trace"

	"github.com/iwishiwala/devops-task/internal/api/common"
	"github.com/iwishiwala/devops-task/internal/logger"
	"github.com/iwishiwala/devops-task/internal/otel"
)

const indexFile = "index.html"

// StaticHandler serves files below a root directory. Directories serve
// their index.html; anything else missing answers a JSON 404.
type StaticHandler struct {
	root   http.FileSystem
	tracer trace.Tracer
}

// NewStaticHandler creates a handler serving dir. tracer may be nil.
func NewStaticHandler(dir string, tracer trace.Tracer) *StaticHandler {
	return &StaticHandler{
		root:   http.Dir(dir),
		tracer: tracer,
	}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)

	_, span := otel.StartSpan(r.Context(), h.tracer, "static.serve",
		trace.WithAttributes(otel.AttrStaticPath.String(name)))
	defer span.End()

	if err := h.serve(w, r, name); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			common.WriteNotFound(w)
			return
		}
		otel.RecordError(span, err)
		logger.Errorf("Failed to serve static file %s: %v", name, err)
		common.WriteInternalError(w)
	}
}

func (h *StaticHandler) serve(w http.ResponseWriter, r *http.Request, name string) error {
	f, err := h.root.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	if info.IsDir() {
		name = path.Join(name, indexFile)
		index, err := h.root.Open(name)
		if err != nil {
			return err
		}
		defer index.Close()

		if info, err = index.Stat(); err != nil {
			return err
		}
		if info.IsDir() {
			return fs.ErrNotExist
		}
		f = index
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return nil
}
