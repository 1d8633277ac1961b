package http

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var rawSpec []byte

// Spec returns the embedded OpenAPI document.
func Spec() []byte {
	return rawSpec
}

var loadSpec = sync.OnceValues(func() (routers.Router, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	// NewRouter validates the document.
	router, err := legacyrouter.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return router, nil
})

// validateRequests rejects requests whose parameters or body do not match
// the embedded document. Paths the document does not describe pass through.
func validateRequests(router routers.Router, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, params, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			var body []byte
			if r.Body != nil {
				body, err = io.ReadAll(r.Body)
				if err != nil {
					writeError(w, http.StatusBadRequest, "Failed to read request body")
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
				writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
