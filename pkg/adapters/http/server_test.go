package http

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/metrics"
	"github.com/aretw0/easel/internal/testutils"
	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/orchestrator"
	"github.com/aretw0/easel/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler http.Handler
	gen     *testutils.StubGenerator
	streams *StreamManager
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gen := testutils.NewStubGenerator("")
	streams := NewStreamManager(nil)
	m := metrics.New()

	ed := easel.New(
		session.NewManager(memory.NewStore()),
		orchestrator.New(gen, orchestrator.WithHistory(memory.NewHistory())),
		easel.WithKeyStore(gen),
		easel.WithChangeListener(streams.Notify),
	)
	h, err := NewHandler(ed,
		WithStreams(streams),
		WithMetrics(m),
		WithAllowedOrigin("http://localhost:5173"),
	)
	require.NoError(t, err)
	return &fixture{handler: h, gen: gen, streams: streams, metrics: m}
}

func (f *fixture) do(t *testing.T, method, path, sessionID, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, "GET", "/api/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "timestamp")
	assert.IsType(t, float64(0), body["uptime"])
}

func TestCanvas_SaveLoadClear(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, "GET", "/api/canvas/load", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "No saved canvas state", body["message"])
	assert.Nil(t, body["data"])

	code, body = f.do(t, "POST", "/api/canvas/save", "",
		`{"elements":[{"id":"a","x":10,"y":20,"content":"Hi","fontSize":14}],"title":"deck"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Canvas saved successfully", body["message"])
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["updatedAt"])
	assert.Equal(t, "deck", data["title"])
	assert.NotContains(t, data, "meta")

	code, body = f.do(t, "GET", "/api/canvas/load", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Canvas loaded successfully", body["message"])
	loaded := body["data"].(map[string]any)
	assert.Equal(t, "deck", loaded["title"], "load returns the posted shape")
	elements := loaded["elements"].([]any)
	require.Len(t, elements, 1)
	assert.Equal(t, "Hi", elements[0].(map[string]any)["content"])

	// Sessions are isolated.
	_, body = f.do(t, "GET", "/api/canvas/load", "other", "")
	assert.Nil(t, body["data"])

	code, body = f.do(t, "DELETE", "/api/canvas/clear", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Canvas cleared successfully", body["message"])

	_, body = f.do(t, "GET", "/api/canvas/load", "", "")
	assert.Nil(t, body["data"])
}

func TestCanvas_SaveRejectsBadBodies(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"Empty Object", `{}`},
		{"Missing Body", ``},
		{"Elements Not An Array", `{"elements":"nope"}`},
		{"Duplicate Ids", `{"elements":[{"id":"a"},{"id":"a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := f.do(t, "POST", "/api/canvas/save", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCanvas_ApplyAndContext(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, "POST", "/api/canvas/apply", "s1", `{"commands":[
		{"action":"create","properties":{"content":"Title","position":{"x":700,"y":600}}},
		{"action":"modify","targetId":"missing","properties":{"content":"x"}},
		{"action":"explode"}
	]}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["applied"])

	outcomes := body["outcomes"].([]any)
	require.Len(t, outcomes, 3)
	assert.Equal(t, "applied", outcomes[0].(map[string]any)["status"])
	assert.Equal(t, "not_found", outcomes[1].(map[string]any)["status"])
	assert.Equal(t, "unknown_action", outcomes[2].(map[string]any)["status"])

	el := body["elements"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 640, el["x"])
	assert.EqualValues(t, 510, el["y"])

	code, body = f.do(t, "GET", "/api/canvas/context", "s1", "")
	require.Equal(t, http.StatusOK, code)
	dims := body["canvasDimensions"].(map[string]any)
	assert.EqualValues(t, 720, dims["width"])
	assert.Len(t, body["elements"], 1)

	_, body = f.do(t, "GET", "/api/canvas/context", "s2", "")
	assert.Equal(t, []any{}, body["elements"])
}

func TestCanvas_ApplyRequiresCommands(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(t, "POST", "/api/canvas/apply", "", `{"commands":"create"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestChat_Message(t *testing.T) {
	f := newFixture(t)
	f.gen.SetReply("```json\n" + `{"message":"Added it","commands":[{"action":"create","properties":{"content":"Hello"}}]}` + "\n```")

	code, body := f.do(t, "POST", "/api/chat/message", "", `{"message":"add hello"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Added it", body["message"])
	assert.Len(t, body["commands"], 1)
	assert.NotContains(t, body, "applied")

	// Not applied: the session document is still empty.
	_, ctxBody := f.do(t, "GET", "/api/canvas/context", "", "")
	assert.Equal(t, []any{}, ctxBody["elements"])

	code, body = f.do(t, "POST", "/api/chat/message", "", `{"message":"add hello","apply":true}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["applied"])
	assert.Len(t, body["elements"], 1)

	_, body = f.do(t, "GET", "/api/chat/history", "", "")
	messages := body["messages"].([]any)
	require.Len(t, messages, 4)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", messages[1].(map[string]any)["role"])

	code, body = f.do(t, "POST", "/api/chat/clear", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Chat history cleared", body["message"])

	_, body = f.do(t, "GET", "/api/chat/history", "", "")
	assert.Equal(t, []any{}, body["messages"])
}

func TestChat_Errors(t *testing.T) {
	f := newFixture(t)

	code, _ := f.do(t, "POST", "/api/chat/message", "", `{"message":42}`)
	assert.Equal(t, http.StatusBadRequest, code, "type errors are caught by the schema")

	code, body := f.do(t, "POST", "/api/chat/message", "", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, orchestrator.ErrEmptyInstruction.Error(), body["error"])

	f.gen.Fail(errors.New("rate limited"))
	code, body = f.do(t, "POST", "/api/chat/message", "", `{"message":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, body["error"], "Failed to process chat message")
	assert.Contains(t, body["error"], "rate limited")

	f.gen.SetAPIKey("")
	code, body = f.do(t, "POST", "/api/chat/message", "", `{"message":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, orchestrator.ErrNotConfigured.Error(), body["error"])
}

func TestConfig_APIKey(t *testing.T) {
	f := newFixture(t)
	f.gen.SetAPIKey("")

	_, body := f.do(t, "GET", "/api/config/openai-key/status", "", "")
	assert.Equal(t, false, body["configured"])

	code, body := f.do(t, "POST", "/api/config/openai-key", "", `{"apiKey":"   "}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "A valid apiKey string is required", body["error"])

	code, _ = f.do(t, "POST", "/api/config/openai-key", "", `{"apiKey":123}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = f.do(t, "POST", "/api/config/openai-key", "", `{"apiKey":" sk-abc "}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "API key configured successfully", body["message"])
	assert.Equal(t, "sk-abc", f.gen.APIKey())

	_, body = f.do(t, "GET", "/api/config/openai-key/status", "", "")
	assert.Equal(t, true, body["configured"])
}

func TestTransformSlide(t *testing.T) {
	f := newFixture(t)

	t.Run("Invalid Types", func(t *testing.T) {
		code, _ := f.do(t, "POST", "/api/transform-slide", "", `{"html":"<h1/>","prompt":"x"}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("Blank Prompt", func(t *testing.T) {
		code, body := f.do(t, "POST", "/api/transform-slide", "", `{"html":"","css":"","prompt":" "}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Prompt must not be empty.", body["error"])
	})

	t.Run("Success", func(t *testing.T) {
		f.gen.SetReply(`{"html":"<h1>Big</h1>","css":"h1{font-size:48px}"}`)
		code, body := f.do(t, "POST", "/api/transform-slide", "", `{"html":"<h1>x</h1>","css":"","prompt":"bigger"}`)
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, "<h1>Big</h1>", body["html"])
		assert.Equal(t, "h1{font-size:48px}", body["css"])
	})

	t.Run("Malformed Reply", func(t *testing.T) {
		f.gen.SetReply(`not json`)
		code, body := f.do(t, "POST", "/api/transform-slide", "", `{"html":"","css":"","prompt":"bigger"}`)
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.NotEmpty(t, body["error"])
	})
}

func TestCORS_Preflight(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest("OPTIONS", "/api/canvas/save", nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), SessionHeader)
}

func TestOpenAPIAndMetrics(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest("GET", "/openapi.yaml", nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/canvas/apply")

	f.do(t, "GET", "/api/health", "", "")

	req = httptest.NewRequest("GET", "/metrics", nil)
	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `easel_http_requests_total{code="200",method="GET",route="/api/health"} 1`)
}

func TestCanvasPreview(t *testing.T) {
	f := newFixture(t)
	f.do(t, "POST", "/api/canvas/apply", "p", `{"commands":[{"action":"create","properties":{"content":"Preview me"}}]}`)

	req := httptest.NewRequest("GET", "/api/canvas/preview", nil)
	req.Header.Set(SessionHeader, "p")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 720, img.Bounds().Dx())
	assert.Equal(t, 540, img.Bounds().Dy())
}

func TestSubscribeEvents_Session(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/api/canvas/events?session_id=sess-1", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.handler.ServeHTTP(wSub, reqSub)
	}()

	require.Eventually(t, func() bool { return f.streams.Subscribers("sess-1") == 1 },
		time.Second, 10*time.Millisecond)

	code, _ := f.do(t, "POST", "/api/canvas/apply", "sess-1", `{"commands":[{"action":"create","properties":{"content":"live"}}]}`)
	require.Equal(t, http.StatusOK, code)

	// Other sessions do not reach this subscriber.
	f.do(t, "POST", "/api/canvas/apply", "sess-2", `{"commands":[{"action":"create","properties":{"content":"elsewhere"}}]}`)

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := wSub.Body.String()
	assert.Contains(t, output, "event: ping")
	assert.Contains(t, output, "event: canvas")
	assert.Contains(t, output, `"content":"live"`)
	assert.NotContains(t, output, "elsewhere")
	assert.Equal(t, 0, f.streams.Subscribers("sess-1"))
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, unsubscribe := sm.Subscribe("s")

	for i := 0; i < 20; i++ {
		sm.Broadcast("s", "msg")
	}
	assert.Len(t, ch, cap(ch))

	unsubscribe()
	_, open := <-ch
	for open {
		_, open = <-ch
	}
	assert.Equal(t, 0, sm.Subscribers("s"))
}
