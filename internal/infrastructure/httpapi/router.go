// Package httpapi serves the public verification endpoint and signed downloads.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"

	"github.com/vistoria/vistoria-core/internal/domain/errclass"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
	"github.com/vistoria/vistoria-core/internal/domain/services"
	"github.com/vistoria/vistoria-core/internal/infrastructure/blobstore/localfs"
)

// Verifier resolves public tokens.
type Verifier interface {
	Verify(ctx context.Context, token string) (*services.VerificationResult, error)
}

// SignedFiles serves blobs behind signed URLs.
type SignedFiles interface {
	Verify(path, expires, sig string) error
	Get(ctx context.Context, path string) ([]byte, error)
}

// Deps are the collaborators of the router. Files, Metrics and Health are optional.
type Deps struct {
	Verifier Verifier
	Files    SignedFiles
	Metrics  http.Handler
	Health   func(ctx context.Context) error
	Logger   logr.Logger
}

// verifyResponse is the public wire shape. Reasons and record details stay internal.
type verifyResponse struct {
	Status      string `json:"status"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter builds the HTTP handler.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(secureHeaders)

	r.Get("/healthz", healthHandler(deps.Health))
	r.Get("/verify", verifyHandler(deps.Verifier))
	if deps.Files != nil {
		r.Get(localfs.FilesPrefix+"*", filesHandler(deps.Files))
	}
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	return r
}

func verifyHandler(v Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		result, err := v.Verify(r.Context(), r.URL.Query().Get("token"))
		if err != nil {
			if errors.Is(err, errclass.ErrUnavailable) {
				w.Header().Set("Retry-After", "5")
				writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "verification unavailable"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		writeJSON(w, http.StatusOK, verifyResponse{
			Status:      string(result.Verdict),
			DownloadURL: result.DownloadURL,
		})
	}
}

func filesHandler(files SignedFiles) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logr.FromContextOrDiscard(r.Context())
		blobPath := strings.TrimPrefix(r.URL.Path, localfs.FilesPrefix)
		q := r.URL.Query()

		if err := files.Verify(blobPath, q.Get("expires"), q.Get("sig")); err != nil {
			log.V(1).Info("download refused", "reason", err.Error())
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
			return
		}

		data, err := files.Get(r.Context(), blobPath)
		if errors.Is(err, ports.ErrBlobNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
			return
		}
		if err != nil {
			log.Error(err, "reading blob", "path", blobPath)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		name := path.Base(blobPath)
		contentType := mime.TypeByExtension(path.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
		w.Header().Set("Cache-Control", "private, no-store")
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
	}
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				logr.FromContextOrDiscard(r.Context()).Error(err, "health check failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request and puts the logger in the request
// context. The query string is never logged since it carries tokens and signatures.
func requestLogger(base logr.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := base.WithValues("request_id", middleware.GetReqID(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logr.NewContext(r.Context(), log)))

			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
