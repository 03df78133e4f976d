package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"animagen-backend/internal/render"
	"animagen-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	result *render.Result
	code   string
}

func (f *fakeRenderer) Render(ctx context.Context, code, sceneName, quality, format string, assets map[string][]byte) *render.Result {
	f.code = code
	return f.result
}

type fakeVideoService struct {
	result *render.Result
	prompt string
	apiKey string
}

func (f *fakeVideoService) GenerateVideo(ctx context.Context, prompt, quality, format, apiKey string) *render.Result {
	f.prompt = prompt
	f.apiKey = apiKey
	return f.result
}

func successResult(t *testing.T, ext string) *render.Result {
	t.Helper()
	workspace := t.TempDir()
	videoPath := filepath.Join(workspace, "output_abc12345"+ext)
	require.NoError(t, os.WriteFile(videoPath, []byte("video-bytes"), 0644))
	return &render.Result{VideoPath: videoPath, Workspace: workspace, Success: true}
}

func newTestRouter(renderer directRenderer, generator videoGenerator) (*gin.Engine, *render.Registry) {
	gin.SetMode(gin.TestMode)
	registry := render.NewRegistry()
	h := NewRenderHandler(renderer, generator, service.NewGate(1), registry)

	router := gin.New()
	router.GET("/health", Health)
	router.GET("/", ServiceInfo)
	router.POST("/render", h.Render)
	router.POST("/generate", h.Generate)
	return router, registry
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestRenderSuccess(t *testing.T) {
	renderer := &fakeRenderer{result: successResult(t, ".mp4")}
	router, registry := newTestRouter(renderer, &fakeVideoService{})

	w := postJSON(router, "/render", `{"code":"from manimlib import *\n\nclass Demo(Scene):\n    def construct(self):\n        pass"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="animation.mp4"`)
	assert.Equal(t, "video-bytes", w.Body.String())
	// 响应写完后工作区已清理
	assert.Equal(t, 0, registry.Len())
	assert.NoDirExists(t, renderer.result.Workspace)
}

func TestRenderGifContentType(t *testing.T) {
	renderer := &fakeRenderer{result: successResult(t, ".gif")}
	router, _ := newTestRouter(renderer, &fakeVideoService{})

	w := postJSON(router, "/render", `{"code":"x = 1","format":"gif"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
}

func TestRenderMovContentType(t *testing.T) {
	renderer := &fakeRenderer{result: successResult(t, ".mov")}
	router, _ := newTestRouter(renderer, &fakeVideoService{})

	w := postJSON(router, "/render", `{"code":"x = 1","format":"mov"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video/quicktime", w.Header().Get("Content-Type"))
}

func TestRenderFailureReturns400(t *testing.T) {
	workspace := t.TempDir()
	renderer := &fakeRenderer{result: &render.Result{
		Workspace: workspace,
		Success:   false,
		Error:     "rendering process error: NameError: name 'Circl' is not defined",
	}}
	router, _ := newTestRouter(renderer, &fakeVideoService{})

	w := postJSON(router, "/render", `{"code":"bad code"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "NameError")
	// 失败结果的工作区在响应前清理
	assert.NoDirExists(t, workspace)
}

func TestRenderMissingOutputReturns500(t *testing.T) {
	renderer := &fakeRenderer{result: &render.Result{
		Success: false,
		Error:   "video file missing in /tmp/ws/output",
		Err:     render.ErrMissingOutput,
	}}
	router, _ := newTestRouter(renderer, &fakeVideoService{})

	w := postJSON(router, "/render", `{"code":"x = 1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRenderMissingFileReturns500(t *testing.T) {
	renderer := &fakeRenderer{result: &render.Result{
		VideoPath: "/nonexistent/output.mp4",
		Success:   true,
	}}
	router, _ := newTestRouter(renderer, &fakeVideoService{})

	w := postJSON(router, "/render", `{"code":"x = 1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "video file was not generated")
}

func TestRenderMissingCode(t *testing.T) {
	router, _ := newTestRouter(&fakeRenderer{}, &fakeVideoService{})
	w := postJSON(router, "/render", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderRejectsUnknownQuality(t *testing.T) {
	router, _ := newTestRouter(&fakeRenderer{}, &fakeVideoService{})
	w := postJSON(router, "/render", `{"code":"x = 1","quality":"ultra"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	router, _ := newTestRouter(&fakeRenderer{}, &fakeVideoService{})
	w := postJSON(router, "/render", `{"code":"x = 1","format":"webm"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateSuccess(t *testing.T) {
	videoSvc := &fakeVideoService{result: successResult(t, ".mp4")}
	router, _ := newTestRouter(&fakeRenderer{}, videoSvc)

	w := postJSON(router, "/generate", `{"prompt":"explain the pythagorean theorem","api_key":"user-key"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="generated_video.mp4"`)
	assert.Equal(t, "explain the pythagorean theorem", videoSvc.prompt)
	assert.Equal(t, "user-key", videoSvc.apiKey)
}

func TestGenerateFailureReturns400(t *testing.T) {
	videoSvc := &fakeVideoService{result: &render.Result{
		Success: false,
		Error:   "model API key is required: pass api_key in the request or configure one on the server",
	}}
	router, _ := newTestRouter(&fakeRenderer{}, videoSvc)

	w := postJSON(router, "/generate", `{"prompt":"draw a circle"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "API key is required")
}

func TestGenerateMissingPrompt(t *testing.T) {
	router, _ := newTestRouter(&fakeRenderer{}, &fakeVideoService{})
	w := postJSON(router, "/generate", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(&fakeRenderer{}, &fakeVideoService{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestServiceInfo(t *testing.T) {
	router, _ := newTestRouter(&fakeRenderer{}, &fakeVideoService{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "POST /render")
	assert.Contains(t, w.Body.String(), "POST /generate")
}
