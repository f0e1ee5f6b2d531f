// Package respond renders RFC 9457 problem details for failures that happen
// outside Huma operations: unknown routes, wrong methods and panics.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
)

const (
	contentTypeProblemJSON = "application/problem+json"
	contentTypeProblemCBOR = "application/problem+cbor"

	msgNotFound         = "resource not found"
	msgMethodNotAllowed = "method not allowed"
	msgInternal         = "internal server error"
)

// NotFoundHandler emits a 404 problem response.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(w, r, http.StatusNotFound, msgNotFound)
	}
}

// MethodNotAllowedHandler emits a 405 problem response with an Allow header.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if allow := allowedMethods(r); len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
		}
		WriteProblem(w, r, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	}
}

// Recoverer converts panics into 500 problem responses. http.ErrAbortHandler
// is re-panicked so the server aborts the connection as intended.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &trackingWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				applog.LogError(r.Context(), "panic recovered", fmt.Errorf("%v", rec),
					zap.ByteString("stack", debug.Stack()))
				if tw.wroteHeader {
					return
				}
				WriteProblem(tw, r, http.StatusInternalServerError, msgInternal)
			}()
			next.ServeHTTP(tw, r)
		})
	}
}

// WriteProblem renders a problem body as CBOR when the client prefers it and JSON otherwise.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	problem := &huma.ErrorModel{
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}

	var (
		body []byte
		err  error
	)
	if acceptsCBOR(r.Header.Get("Accept")) {
		w.Header().Set("Content-Type", contentTypeProblemCBOR)
		body, err = cbor.Marshal(problem)
	} else {
		w.Header().Set("Content-Type", contentTypeProblemJSON)
		body, err = json.Marshal(problem)
	}
	if err != nil {
		applog.LogError(r.Context(), "failed to encode problem", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		applog.LogWarn(r.Context(), "failed to write problem", zap.Error(err))
	}
}

// acceptsCBOR reports whether CBOR is listed ahead of any JSON media type.
// Entries with q=0 are ignored.
func acceptsCBOR(accept string) bool {
	for part := range strings.SplitSeq(accept, ",") {
		fields := strings.Split(part, ";")
		if excluded(fields[1:]) {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(fields[0])) {
		case "application/cbor", "application/problem+cbor":
			return true
		case "application/json", "application/problem+json", "*/*", "application/*":
			return false
		}
	}
	return false
}

func excluded(params []string) bool {
	for _, p := range params {
		key, value, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		return err == nil && q == 0
	}
	return false
}

// allowedMethods inspects chi's routing tree to discover methods served at the request path.
func allowedMethods(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return nil
	}
	path := r.URL.Path
	if path == "" {
		path = "/"
	}
	var allowed []string
	for _, method := range []string{
		http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	} {
		if rctx.Routes.Match(chi.NewRouteContext(), method, path) {
			allowed = append(allowed, method)
		}
	}
	return allowed
}

type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (t *trackingWriter) WriteHeader(status int) {
	t.wroteHeader = true
	t.ResponseWriter.WriteHeader(status)
}

func (t *trackingWriter) Write(b []byte) (int, error) {
	t.wroteHeader = true
	return t.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (t *trackingWriter) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}
