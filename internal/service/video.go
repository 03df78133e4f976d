package service

import (
	"context"
	"fmt"
	"os"

	"animagen-backend/internal/render"
	"animagen-backend/pkg/logger"
)

const maxGenerationAttempts = 2

// contentGenerator 提示词到 (代码, 脚本) 的生成器
type contentGenerator interface {
	Generate(ctx context.Context, prompt, apiKey string) (code, script string, err error)
}

// narrationSynthesizer 脚本到音频文件的合成器
type narrationSynthesizer interface {
	Synthesize(ctx context.Context, text, destPath string) error
}

// videoRenderer 代码到视频的渲染器
type videoRenderer interface {
	Render(ctx context.Context, code, sceneName, quality, format string, assets map[string][]byte) *render.Result
}

// VideoService 整条提示词到成片的流水线：生成 -> 配音 -> 渲染
type VideoService struct {
	generator contentGenerator
	tts       narrationSynthesizer
	renderer  videoRenderer
}

func NewVideoService(renderer *render.Renderer) *VideoService {
	return &VideoService{
		generator: NewGenerator(),
		tts:       NewSynthesizer(),
		renderer:  renderer,
	}
}

// GenerateVideo 从提示词生成完整的带旁白视频。
// 任何失败都落在返回的 Result 里；整条流水线最多跑两轮，
// 第二轮的提示词携带第一轮的错误信息。
func (s *VideoService) GenerateVideo(ctx context.Context, prompt, quality, format, apiKey string) *render.Result {
	var lastErr error

	for attempt := 1; attempt <= maxGenerationAttempts; attempt++ {
		result := s.generateOnce(ctx, prompt, quality, format, apiKey, attempt, lastErr)
		if result.Success {
			return result
		}
		lastErr = result.Err
		if lastErr == nil {
			lastErr = fmt.Errorf("%s", result.Error)
		}
		result.Cleanup()
	}

	finalErr := fmt.Errorf("generation failed after %d attempts: %w", maxGenerationAttempts, lastErr)
	return &render.Result{
		Success: false,
		Error:   finalErr.Error(),
		Err:     finalErr,
	}
}

func (s *VideoService) generateOnce(ctx context.Context, prompt, quality, format, apiKey string, attempt int, lastErr error) *render.Result {
	effectivePrompt := prompt
	if attempt > 1 && lastErr != nil {
		logger.Warnf("视频生成重试 %d/%d: %v", attempt, maxGenerationAttempts, lastErr)
		effectivePrompt = fmt.Sprintf("%s\n\nFIX THIS ERROR: %v. Strictly use manimlib.", prompt, lastErr)
	}

	logger.Info("调用内容生成...")
	code, script, err := s.generator.Generate(ctx, effectivePrompt, apiKey)
	if err != nil {
		return failureResult(err)
	}

	logger.Info("合成旁白...")
	audioFile, err := os.CreateTemp("", "narration_*.mp3")
	if err != nil {
		return failureResult(fmt.Errorf("failed to create audio temp file: %v", err))
	}
	audioPath := audioFile.Name()
	audioFile.Close()
	defer os.Remove(audioPath)

	if err := s.tts.Synthesize(ctx, script, audioPath); err != nil {
		return failureResult(err)
	}

	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		return failureResult(fmt.Errorf("failed to read narration audio: %v", err))
	}

	logger.Info("开始渲染...")
	assets := map[string][]byte{"narration.mp3": audioData}
	return s.renderer.Render(ctx, code, "", quality, format, assets)
}

func failureResult(err error) *render.Result {
	return &render.Result{
		Success: false,
		Error:   err.Error(),
		Err:     err,
	}
}
