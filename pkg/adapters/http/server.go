package http

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/internal/metrics"
	"github.com/aretw0/easel/internal/presentation/preview"
	"github.com/aretw0/easel/internal/runtime"
	"github.com/aretw0/easel/pkg/adapters/file"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/orchestrator"
	"github.com/aretw0/easel/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SessionHeader selects the session a request works on.
const SessionHeader = "X-Session-ID"

// Editor is the application core the handlers drive.
type Editor interface {
	Apply(ctx context.Context, sessionID string, commands []any) (*easel.ApplyResult, error)
	Context(ctx context.Context, sessionID string) (runtime.CanvasContext, error)
	Save(ctx context.Context, sessionID string, elements []domain.TextElement, meta map[string]any) (*domain.Snapshot, error)
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)
	Clear(ctx context.Context, sessionID string) error
	Chat(ctx context.Context, req easel.ChatRequest) (*easel.ChatResult, error)
	History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)
	ClearHistory(ctx context.Context, sessionID string) error
	TransformSlide(ctx context.Context, req orchestrator.SlideRequest) (*domain.SlideCode, error)
	SetAPIKey(key string)
	Configured() bool
}

// Server holds the handlers' dependencies.
type Server struct {
	editor  Editor
	streams *StreamManager
	metrics *metrics.Metrics
	logger  *slog.Logger
	origin  string
	now     func() time.Time
	started time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics counts requests and serves GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithStreams shares a StreamManager with the editor's change listener.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// WithAllowedOrigin sets the CORS origin. Empty allows any origin.
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) {
		s.origin = origin
	}
}

// WithClock overrides time.Now for the health endpoint.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewHandler creates the HTTP handler for the editor.
func NewHandler(editor Editor, opts ...Option) (http.Handler, error) {
	s := &Server{
		editor: editor,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.streams == nil {
		s.streams = NewStreamManager(s.logger)
	}
	s.started = s.now()

	router, err := loadSpec()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(validateRequests(router, s.logger))

		r.Get("/health", s.health)

		r.Route("/canvas", func(r chi.Router) {
			r.Post("/save", s.saveCanvas)
			r.Get("/load", s.loadCanvas)
			r.Delete("/clear", s.clearCanvas)
			r.Post("/apply", s.applyCommands)
			r.Get("/context", s.canvasContext)
			r.Get("/events", s.subscribeEvents)
			r.Get("/ws", s.canvasSocket)
			r.Get("/preview", s.canvasPreview)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", s.sendMessage)
			r.Get("/history", s.chatHistory)
			r.Post("/clear", s.clearChat)
		})

		r.Post("/config/openai-key", s.setAPIKey)
		r.Get("/config/openai-key/status", s.apiKeyStatus)

		r.Post("/transform-slide", s.transformSlide)
	})

	return s.enableCORS(r), nil
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	origin := s.origin
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Easel API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// health handles GET /api/health.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": now.UTC(),
		"uptime":    now.Sub(s.started).Seconds(),
	})
}

// saveCanvas handles POST /api/canvas/save. The elements key becomes the
// document; every other key is kept as snapshot metadata.
func (s *Server) saveCanvas(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body) == 0 {
		writeError(w, http.StatusBadRequest, "Canvas data is required")
		return
	}

	var elements []domain.TextElement
	if raw, ok := body["elements"]; ok {
		if err := json.Unmarshal(raw, &elements); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid elements: "+err.Error())
			return
		}
	}

	var meta map[string]any
	for k, raw := range body {
		if k == "elements" || k == "updatedAt" {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid canvas data: "+err.Error())
			return
		}
		if meta == nil {
			meta = make(map[string]any)
		}
		meta[k] = v
	}

	snap, err := s.editor.Save(r.Context(), sessionFrom(r), elements, meta)
	if err != nil {
		s.fail(w, r, "Failed to save canvas state", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Canvas saved successfully", "data": snap})
}

// loadCanvas handles GET /api/canvas/load.
func (s *Server) loadCanvas(w http.ResponseWriter, r *http.Request) {
	snap, err := s.editor.Load(r.Context(), sessionFrom(r))
	if err != nil {
		s.fail(w, r, "Failed to load canvas state", err)
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusOK, map[string]any{"message": "No saved canvas state", "data": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Canvas loaded successfully", "data": snap})
}

// clearCanvas handles DELETE /api/canvas/clear.
func (s *Server) clearCanvas(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.Clear(r.Context(), sessionFrom(r)); err != nil {
		s.fail(w, r, "Failed to clear canvas state", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Canvas cleared successfully"})
}

// ApplyResponse is the body of a successful apply.
type ApplyResponse struct {
	Applied  int                  `json:"applied"`
	Outcomes []domain.Outcome     `json:"outcomes"`
	Elements []domain.TextElement `json:"elements"`
}

func newApplyResponse(report domain.Report, elements []domain.TextElement) ApplyResponse {
	res := ApplyResponse{
		Applied:  report.Applied(),
		Outcomes: report.Outcomes,
		Elements: elements,
	}
	if res.Outcomes == nil {
		res.Outcomes = []domain.Outcome{}
	}
	if res.Elements == nil {
		res.Elements = []domain.TextElement{}
	}
	return res
}

// applyCommands handles POST /api/canvas/apply.
func (s *Server) applyCommands(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Commands []any `json:"commands"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.editor.Apply(r.Context(), sessionFrom(r), body.Commands)
	if err != nil {
		s.fail(w, r, "Failed to apply commands", err)
		return
	}
	writeJSON(w, http.StatusOK, newApplyResponse(res.Report, res.Elements))
}

// canvasContext handles GET /api/canvas/context.
func (s *Server) canvasContext(w http.ResponseWriter, r *http.Request) {
	cc, err := s.editor.Context(r.Context(), sessionFrom(r))
	if err != nil {
		s.fail(w, r, "Failed to read canvas", err)
		return
	}
	writeJSON(w, http.StatusOK, cc)
}

// canvasPreview handles GET /api/canvas/preview.
func (s *Server) canvasPreview(w http.ResponseWriter, r *http.Request) {
	cc, err := s.editor.Context(r.Context(), sessionFrom(r))
	if err != nil {
		s.fail(w, r, "Failed to read canvas", err)
		return
	}
	img, err := preview.Image(cc)
	if err != nil {
		s.fail(w, r, "Failed to render preview", err)
		return
	}
	w.Header().Set("Content-Type", preview.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		s.logger.Warn("failed to write preview", "err", err)
	}
}

type chatResponse struct {
	Message  string `json:"message"`
	Commands []any  `json:"commands"`
	*ApplyResponse
}

// sendMessage handles POST /api/chat/message.
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message       string          `json:"message"`
		Model         string          `json:"model"`
		CanvasContext json.RawMessage `json:"canvasContext"`
		Apply         bool            `json:"apply"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := easel.ChatRequest{
		SessionID:   sessionFrom(r),
		Instruction: body.Message,
		Model:       body.Model,
		Apply:       body.Apply,
	}
	if len(body.CanvasContext) > 0 && string(body.CanvasContext) != "null" {
		req.CanvasContext = body.CanvasContext
	}

	res, err := s.editor.Chat(r.Context(), req)
	if err != nil {
		s.fail(w, r, "Failed to process chat message", err)
		return
	}

	resp := chatResponse{Message: res.Message, Commands: res.Commands}
	if resp.Commands == nil {
		resp.Commands = []any{}
	}
	if res.Report != nil {
		applied := newApplyResponse(*res.Report, res.Elements)
		resp.ApplyResponse = &applied
	}
	writeJSON(w, http.StatusOK, resp)
}

// chatHistory handles GET /api/chat/history.
func (s *Server) chatHistory(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.editor.History(r.Context(), sessionFrom(r))
	if err != nil {
		s.fail(w, r, "Failed to read chat history", err)
		return
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// clearChat handles POST /api/chat/clear.
func (s *Server) clearChat(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.ClearHistory(r.Context(), sessionFrom(r)); err != nil {
		s.fail(w, r, "Failed to clear chat history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Chat history cleared"})
}

// setAPIKey handles POST /api/config/openai-key.
func (s *Server) setAPIKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.APIKey) == "" {
		writeError(w, http.StatusBadRequest, "A valid apiKey string is required")
		return
	}
	s.editor.SetAPIKey(strings.TrimSpace(body.APIKey))
	s.logger.Info("API key replaced")
	writeJSON(w, http.StatusOK, map[string]any{"message": "API key configured successfully"})
}

// apiKeyStatus handles GET /api/config/openai-key/status.
func (s *Server) apiKeyStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"configured": s.editor.Configured()})
}

// transformSlide handles POST /api/transform-slide.
func (s *Server) transformSlide(w http.ResponseWriter, r *http.Request) {
	var body struct {
		HTML   string `json:"html"`
		CSS    string `json:"css"`
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body. Expected { html: string, css: string, prompt: string }.")
		return
	}
	if strings.TrimSpace(body.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "Prompt must not be empty.")
		return
	}

	code, err := s.editor.TransformSlide(r.Context(), orchestrator.SlideRequest{
		HTML:   body.HTML,
		CSS:    body.CSS,
		Prompt: body.Prompt,
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("slide transform failed", "err", err)
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, code)
}

// -- Helpers --

func sessionFrom(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	return session.DefaultSessionID
}

// statusFor maps application errors to HTTP statuses. Anything unknown is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrEmptyInstruction),
		errors.Is(err, orchestrator.ErrInstructionTooLong),
		errors.Is(err, orchestrator.ErrInstructionEncoding),
		errors.Is(err, orchestrator.ErrNotConfigured),
		errors.Is(err, domain.ErrDuplicateElement),
		errors.Is(err, file.ErrInvalidSessionID):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err. Client errors carry their own message; server errors are
// prefixed with what was attempted.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, what string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error(what, "path", r.URL.Path, "session_id", sessionFrom(r), "err", err)
		msg = what + ": " + msg
	} else {
		s.logger.Warn("request refused", "path", r.URL.Path, "err", err)
	}
	writeError(w, status, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
