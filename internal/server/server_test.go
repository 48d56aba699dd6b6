package server_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/repurpose/internal/config"
	"github.com/alkime/repurpose/internal/content"
	"github.com/alkime/repurpose/internal/llm"
	"github.com/alkime/repurpose/internal/logger"
	"github.com/alkime/repurpose/internal/server"
)

// fakeModel answers every prompt the server can send.
type fakeModel struct {
	mu       sync.Mutex
	failStep string
	calls    []llm.Request
}

func (f *fakeModel) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)

	step := step(req)
	if step == f.failStep {
		return "", errors.New("model unavailable")
	}

	switch step {
	case "captain":
		return "ORDER BLOCK", nil
	case "sous_chef":
		return "BLUEPRINT", nil
	case "chef":
		return "## LinkedIn\nFinal post", nil
	case "relevance":
		return `{"relevance":"relevant","score":0.9,"notes":"timely"}`, nil
	case "topic_options":
		return `{"options":[
			{"topic":"One","angle":"a","rationale":"r","hashtags":["#one"]},
			{"topic":"Two","angle":"b","rationale":"r","hashtags":["#two"]},
			{"topic":"Three","angle":"c","rationale":"r","hashtags":["#three"]}]}`, nil
	case "execution_docs":
		return `{"calendar":"CAL","checklist":"CHECK","scorecard":"SCORE"}`, nil
	case "writing":
		var sb strings.Builder
		for i := 1; i <= 7; i++ {
			fmt.Fprintf(&sb, "Day %d\nHook: hook %d\nScript:\nscript %d\nCTA: cta\nHashtags: #x\n\n", i, i, i)
		}
		return sb.String(), nil
	default:
		return "STRATEGY", nil
	}
}

func step(req llm.Request) string {
	switch {
	case req.SchemaName != "":
		return req.SchemaName
	case req.System == content.CaptainSystemPrompt:
		return "captain"
	case req.System == content.SousChefSystemPrompt:
		return "sous_chef"
	case req.System == content.ChefSystemPrompt:
		return "chef"
	case strings.Contains(req.System, "Day 1"):
		return "writing"
	default:
		return "strategy"
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Env:        "test",
		Port:       "8080",
		HSTSMaxAge: 31536000,
		CSPMode:    "relaxed",
		LogLevel:   "info",
		SessionTTL: time.Hour,
	}
}

func newTestServer(model *fakeModel) *server.Server {
	return server.New(testConfig(), logger.Discard(), server.Deps{Generator: model})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&fakeModel{})

	w := do(t, srv.Router(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code, "Health endpoint should return 200 OK")
	assert.Contains(t, w.Body.String(), "healthy", "Response should contain 'healthy'")
	assert.Contains(t, w.Body.String(), "repurpose", "Response should contain service name")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestIndexAndAssets(t *testing.T) {
	srv := newTestServer(&fakeModel{})

	w := do(t, srv.Router(), http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="profession"`)
	assert.Contains(t, w.Body.String(), `value="LinkedIn" checked`)
	assert.NotContains(t, w.Body.String(), `value="Blog Post" checked`)

	w = do(t, srv.Router(), http.MethodGet, "/assets/style.css", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "main {")
}

func TestRepurposeForm(t *testing.T) {
	model := &fakeModel{}
	srv := newTestServer(model)

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/repurpose", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		return w
	}

	t.Run("missing fields re-render the form", func(t *testing.T) {
		w := post(url.Values{"name": {"Ada"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "please fill in all mandatory fields: profession, content")
		assert.Contains(t, w.Body.String(), `value="Ada"`)
		assert.Empty(t, model.calls)
	})

	t.Run("success renders result with download link", func(t *testing.T) {
		w := post(url.Values{
			"name":       {"Ada Lovelace"},
			"profession": {"Mathematician"},
			"content":    {"Notes on the engine"},
			"platforms":  {"Blog Post"},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Final post")
		assert.Contains(t, w.Body.String(), `download="ada-lovelace-repurposed.md"`)

		start := strings.Index(w.Body.String(), "/runs/")
		require.Positive(t, start)
		link := w.Body.String()[start:]
		link = link[:strings.Index(link, `"`)]

		dl := do(t, srv.Router(), http.MethodGet, link, nil)
		require.Equal(t, http.StatusOK, dl.Code)
		assert.Contains(t, dl.Header().Get("Content-Disposition"), "ada-lovelace-repurposed.md")
		assert.Contains(t, dl.Body.String(), "## LinkedIn\nFinal post")
	})
}

func TestDownloadUnknownRun(t *testing.T) {
	srv := newTestServer(&fakeModel{})

	assert.Equal(t, http.StatusNotFound, do(t, srv.Router(), http.MethodGet, "/runs/nope/download", nil).Code)
	assert.Equal(t, http.StatusNotFound,
		do(t, srv.Router(), http.MethodGet, "/runs/7c0b6f2e-8d7a-4a52-9a53-0b9a3e1f2c11/download", nil).Code)
}

func TestRepurposeAPI(t *testing.T) {
	body := map[string]any{
		"name":       "Ada",
		"profession": "Mathematician",
		"content":    "Notes",
	}

	t.Run("success", func(t *testing.T) {
		srv := newTestServer(&fakeModel{})

		w := do(t, srv.Router(), http.MethodPost, "/api/v1/repurpose", body)
		require.Equal(t, http.StatusOK, w.Code)

		out := decode(t, w)
		assert.Equal(t, "ORDER BLOCK", out["order_block"])
		assert.Equal(t, "BLUEPRINT", out["blueprint"])
		assert.Equal(t, "## LinkedIn\nFinal post", out["content"])
		assert.Equal(t, "ada-repurposed.md", out["filename"])
		assert.NotEmpty(t, out["id"])
	})

	t.Run("validation", func(t *testing.T) {
		srv := newTestServer(&fakeModel{})

		w := do(t, srv.Router(), http.MethodPost, "/api/v1/repurpose", map[string]any{"content": "x"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []any{"name", "profession"}, decode(t, w)["fields"])
	})

	t.Run("stage failure", func(t *testing.T) {
		srv := newTestServer(&fakeModel{failStep: "chef"})

		w := do(t, srv.Router(), http.MethodPost, "/api/v1/repurpose", body)
		require.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "chef", decode(t, w)["stage"])

		metrics := do(t, srv.Router(), http.MethodGet, "/metrics", nil)
		assert.Contains(t, metrics.Body.String(), `repurpose_stage_failures_total{pipeline="repurpose",stage="chef"} 1`)
	})
}

func TestRepurposeStream(t *testing.T) {
	srv := newTestServer(&fakeModel{})

	w := do(t, srv.Router(), http.MethodPost, "/api/v1/repurpose/stream", map[string]any{
		"name":       "Ada",
		"profession": "Mathematician",
		"content":    "Notes",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	var events []string
	scanner := bufio.NewScanner(strings.NewReader(w.Body.String()))
	for scanner.Scan() {
		if name, ok := strings.CutPrefix(scanner.Text(), "event:"); ok {
			events = append(events, name)
		}
	}

	assert.Equal(t, []string{"stage", "stage", "stage", "stage", "stage", "stage", "result"}, events)
	assert.Contains(t, w.Body.String(), "Final post")
}

func TestLaunchpadAPI(t *testing.T) {
	srv := newTestServer(&fakeModel{})
	h := srv.Router()

	w := do(t, h, http.MethodPost, "/api/v1/launchpad", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	view := decode(t, w)
	assert.Equal(t, "welcome", view["screen"])
	base := "/api/v1/launchpad/" + view["id"].(string)

	// Screens cannot be skipped.
	w = do(t, h, http.MethodPost, base+"/suggest", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/begin", map[string]any{"show_guide": true}).Code)

	w = do(t, h, http.MethodPost, base+"/inputs", map[string]any{"niche": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{"niche"}, decode(t, w)["fields"])

	w = do(t, h, http.MethodPost, base+"/inputs", map[string]any{"niche": "Travel"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "choose_topic", decode(t, w)["screen"])

	w = do(t, h, http.MethodPost, base+"/topic", map[string]any{"topic": "Slow travel"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "relevance", decode(t, w)["screen"])

	w = do(t, h, http.MethodPost, base+"/suggest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["options"], 3)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/regenerate", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, base+"/select", map[string]any{}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, base+"/select", map[string]any{"index": 5}).Code)

	w = do(t, h, http.MethodPost, base+"/select", map[string]any{"index": 0})
	require.Equal(t, http.StatusOK, w.Code)
	view = decode(t, w)
	assert.Equal(t, "days", view["screen"])
	assert.Empty(t, view["days"], "no day is visible before the first reveal")

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, base+"/docs", nil).Code)

	for i := 1; i <= 7; i++ {
		w = do(t, h, http.MethodPost, base+"/reveal", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["days"], i)
	}
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, base+"/reveal", nil).Code)

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodGet, base+"/download", nil).Code)

	w = do(t, h, http.MethodPost, base+"/docs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "execution_docs", decode(t, w)["screen"])

	w = do(t, h, http.MethodGet, base+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Week_1_Content_Pack.txt")
	assert.Contains(t, w.Body.String(), "Topic: One")
	assert.Contains(t, w.Body.String(), "SCORE")

	w = do(t, h, http.MethodPost, base+"/restart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode(t, w)
	assert.Equal(t, "choose_topic", view["screen"])
	assert.Equal(t, "Travel", view["inputs"].(map[string]any)["niche"])

	metrics := do(t, h, http.MethodGet, "/metrics", nil)
	assert.Contains(t, metrics.Body.String(), `repurpose_launchpad_transitions_total{screen="days"} 1`)
}

func TestLaunchpadUnknownSession(t *testing.T) {
	srv := newTestServer(&fakeModel{})

	w := do(t, srv.Router(), http.MethodGet, "/api/v1/launchpad/7c0b6f2e-8d7a-4a52-9a53-0b9a3e1f2c11", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLaunchpadGenerationFailure(t *testing.T) {
	srv := newTestServer(&fakeModel{failStep: "topic_options"})
	h := srv.Router()

	base := "/api/v1/launchpad/" + decode(t, do(t, h, http.MethodPost, "/api/v1/launchpad", nil))["id"].(string)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/begin", nil).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/inputs", map[string]any{"niche": "Travel"}).Code)

	assert.Equal(t, http.StatusBadGateway, do(t, h, http.MethodPost, base+"/suggest", nil).Code)

	w := do(t, h, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "choose_topic", decode(t, w)["screen"])
}
