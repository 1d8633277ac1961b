package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/internal/runtime"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CanvasURI is the resource serving the default session's canvas context.
const CanvasURI = "easel://canvas"

// ApplyResponse is the structured result of apply_commands and edit_canvas.
type ApplyResponse struct {
	Message  string               `json:"message,omitempty" jsonschema_description:"The model's explanation (edit_canvas only)"`
	Commands []any                `json:"commands,omitempty" jsonschema_description:"The commands the model produced (edit_canvas only)"`
	Applied  int                  `json:"applied" jsonschema_description:"Number of commands that changed the canvas"`
	Outcomes []domain.Outcome     `json:"outcomes" jsonschema_description:"One outcome per command, in order"`
	Elements []domain.TextElement `json:"elements" jsonschema_description:"The canvas after the batch"`
}

// Editor is the part of the application core the MCP tools drive.
type Editor interface {
	Apply(ctx context.Context, sessionID string, commands []any) (*easel.ApplyResult, error)
	Context(ctx context.Context, sessionID string) (runtime.CanvasContext, error)
	Clear(ctx context.Context, sessionID string) error
	Chat(ctx context.Context, req easel.ChatRequest) (*easel.ChatResult, error)
}

// Server exposes the Editor as an MCP server.
type Server struct {
	editor    Editor
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. A nil logger discards.
func NewServer(editor Editor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		editor:    editor,
		logger:    logger,
		mcpServer: server.NewMCPServer("easel-mcp", strings.TrimSpace(easel.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type sessionArgs struct {
	Session string `json:"session"`
}

type applyArgs struct {
	Session  string `json:"session"`
	Commands string `json:"commands"`
}

type editArgs struct {
	Session     string `json:"session"`
	Instruction string `json:"instruction"`
	Model       string `json:"model"`
}

func sessionOption() mcp.ToolOption {
	return mcp.WithString("session", mcp.Description("Session id (optional, defaults to \"default\")"))
}

func (s *Server) registerTools() {
	// TOOL: get_canvas_context
	s.mcpServer.AddTool(mcp.NewTool("get_canvas_context",
		mcp.WithDescription("Get the canvas dimensions and every text element, as the editing model sees them."),
		sessionOption(),
	), s.handleContext)

	// TOOL: apply_commands
	s.mcpServer.AddTool(mcp.NewTool("apply_commands",
		mcp.WithDescription("Apply edit commands (create, modify, move, delete) to the canvas. Commands that cannot be applied are reported, not fatal."),
		mcp.WithString("commands", mcp.Required(), mcp.Description("JSON array of commands, e.g. [{\"action\":\"create\",\"properties\":{\"content\":\"Hi\"}}]")),
		sessionOption(),
		mcp.WithOutputSchema[ApplyResponse](),
	), mcp.NewStructuredToolHandler(s.handleApply))

	// TOOL: edit_canvas
	s.mcpServer.AddTool(mcp.NewTool("edit_canvas",
		mcp.WithDescription("Describe a change in natural language. The model produces commands which are applied to the canvas."),
		mcp.WithString("instruction", mcp.Required(), mcp.Description("What to change")),
		mcp.WithString("model", mcp.Description("Model override (optional)")),
		sessionOption(),
		mcp.WithOutputSchema[ApplyResponse](),
	), mcp.NewStructuredToolHandler(s.handleEdit))

	// TOOL: clear_canvas
	s.mcpServer.AddTool(mcp.NewTool("clear_canvas",
		mcp.WithDescription("Remove every element and the saved snapshot of the session."),
		sessionOption(),
	), s.handleClear)
}

func (s *Server) handleContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sessionArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	cc, err := s.editor.Context(ctx, args.Session)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read canvas: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(cc)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleApply(ctx context.Context, request mcp.CallToolRequest, args applyArgs) (ApplyResponse, error) {
	var commands []any
	if err := json.Unmarshal([]byte(args.Commands), &commands); err != nil {
		return ApplyResponse{}, fmt.Errorf("commands must be a JSON array: %w", err)
	}

	res, err := s.editor.Apply(ctx, args.Session, commands)
	if err != nil {
		return ApplyResponse{}, fmt.Errorf("apply failed: %w", err)
	}
	s.logger.Info("MCP apply_commands", "session_id", sessionOrDefault(args.Session), "applied", res.Report.Applied())
	return newApplyResponse(res.Report, res.Elements), nil
}

func (s *Server) handleEdit(ctx context.Context, request mcp.CallToolRequest, args editArgs) (ApplyResponse, error) {
	res, err := s.editor.Chat(ctx, easel.ChatRequest{
		SessionID:   args.Session,
		Instruction: args.Instruction,
		Model:       args.Model,
		Apply:       true,
	})
	if err != nil {
		s.logger.Warn("MCP edit_canvas failed", "session_id", sessionOrDefault(args.Session), "err", err)
		return ApplyResponse{}, fmt.Errorf("edit failed: %w", err)
	}

	out := ApplyResponse{Message: res.Message, Commands: res.Commands}
	if res.Report != nil {
		applied := newApplyResponse(*res.Report, res.Elements)
		out.Applied, out.Outcomes, out.Elements = applied.Applied, applied.Outcomes, applied.Elements
	}
	return out, nil
}

func (s *Server) handleClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sessionArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if err := s.editor.Clear(ctx, args.Session); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to clear canvas: %v", err)), nil
	}
	return mcp.NewToolResultText("Canvas cleared successfully"), nil
}

func (s *Server) registerResources() {
	// EXPOSE: easel://canvas
	s.mcpServer.AddResource(mcp.NewResource(CanvasURI, "Current Canvas",
		mcp.WithResourceDescription("Canvas context of the default session"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		cc, err := s.editor.Context(ctx, session.DefaultSessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to read canvas: %w", err)
		}
		jsonBytes, _ := json.Marshal(cc)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      CanvasURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
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

func sessionOrDefault(id string) string {
	if id == "" {
		return session.DefaultSessionID
	}
	return id
}
