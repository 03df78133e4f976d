package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"animagen-backend/internal/model"
	"animagen-backend/internal/render"
	"animagen-backend/internal/service"
	"animagen-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// directRenderer 代码直渲染
type directRenderer interface {
	Render(ctx context.Context, code, sceneName, quality, format string, assets map[string][]byte) *render.Result
}

// videoGenerator 提示词到成片的完整流水线
type videoGenerator interface {
	GenerateVideo(ctx context.Context, prompt, quality, format, apiKey string) *render.Result
}

// mediaTypes 扩展名到 Content-Type 的映射
var mediaTypes = map[string]string{
	".mp4": "video/mp4",
	".gif": "image/gif",
	".mov": "video/quicktime",
}

type RenderHandler struct {
	renderer  directRenderer
	generator videoGenerator
	gate      *service.Gate
	registry  *render.Registry
}

func NewRenderHandler(renderer directRenderer, generator videoGenerator, gate *service.Gate, registry *render.Registry) *RenderHandler {
	return &RenderHandler{
		renderer:  renderer,
		generator: generator,
		gate:      gate,
		registry:  registry,
	}
}

// Render 接收动画代码，返回渲染好的视频文件
func (h *RenderHandler) Render(c *gin.Context) {
	var req model.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ApplyDefaults()

	logger.Infof("收到渲染请求 - scene: %q, quality: %s, format: %s", req.SceneName, req.Quality, req.Format)

	if err := h.gate.Acquire(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server busy, try again later"})
		return
	}
	defer h.gate.Release()

	result := h.renderer.Render(c.Request.Context(), req.Code, req.SceneName, req.Quality, req.Format, nil)
	h.respondWithVideo(c, result, "animation")
}

// Generate 接收提示词，生成带旁白的视频文件
func (h *RenderHandler) Generate(c *gin.Context) {
	var req model.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ApplyDefaults()

	logger.Infof("收到生成请求 - quality: %s, format: %s", req.Quality, req.Format)

	if err := h.gate.Acquire(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server busy, try again later"})
		return
	}
	defer h.gate.Release()

	result := h.generator.GenerateVideo(c.Request.Context(), req.Prompt, req.Quality, req.Format, req.APIKey)
	h.respondWithVideo(c, result, "generated_video")
}

// respondWithVideo 把渲染结果写回响应：失败 400，产物缺失 500，成功流式返回文件
func (h *RenderHandler) respondWithVideo(c *gin.Context, result *render.Result, downloadName string) {
	if !result.Success {
		result.Cleanup()
		// 产物缺失或合并失败说明宿主环境有问题，归为服务端错误
		status := http.StatusBadRequest
		if errors.Is(result.Err, render.ErrMissingOutput) || errors.Is(result.Err, render.ErrConcatenation) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": result.Error})
		return
	}

	if result.VideoPath == "" {
		result.Cleanup()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "video file was not generated"})
		return
	}
	if _, err := os.Stat(result.VideoPath); err != nil {
		result.Cleanup()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "video file was not generated"})
		return
	}

	ext := strings.ToLower(filepath.Ext(result.VideoPath))
	mediaType, ok := mediaTypes[ext]
	if !ok {
		mediaType = "application/octet-stream"
	}

	// 登记到 registry，响应写完即清理；中途断连的由后台清扫兜底
	renderID := strings.TrimSuffix(filepath.Base(result.VideoPath), ext)
	h.registry.Put(renderID, result)

	c.Header("Content-Type", mediaType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, downloadName, ext))
	c.File(result.VideoPath)

	h.registry.Remove(renderID)
}
