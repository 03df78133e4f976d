// Package render 在隔离的工作目录和子进程中执行不可信的动画代码，
// 收集渲染产物并在多段输出时做合并。
package render

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"animagen-backend/internal/codecheck"
	"animagen-backend/internal/config"
	"animagen-backend/pkg/logger"

	"github.com/google/uuid"
)

//go:embed runner/scene_runner.py
var sceneRunnerScript []byte

const runnerFileName = "scene_runner.py"

// Renderer 隔离渲染器
type Renderer struct {
	workDir    string
	timeout    time.Duration
	cpuSeconds int
	runner     SceneRunner
	stitcher   Stitcher
	syntax     codecheck.SyntaxChecker
}

func NewRenderer(cfg config.RenderConfig) *Renderer {
	return &Renderer{
		workDir:    cfg.WorkDir,
		timeout:    cfg.Timeout,
		cpuSeconds: int(cfg.Timeout / time.Second),
		runner:     NewPythonSceneRunner(cfg.PythonBin),
		stitcher:   NewFFmpegStitcher(cfg.FFmpegBin),
		syntax:     codecheck.NewPySyntaxChecker(cfg.PythonBin),
	}
}

// Render 渲染一段动画代码。任何失败都落在返回的 Result 里，不向上抛。
func (r *Renderer) Render(ctx context.Context, code, sceneName, quality, format string, assets map[string][]byte) *Result {
	workspace, err := os.MkdirTemp(r.workDir, "animagen_render_")
	if err != nil {
		return failure("", fmt.Errorf("failed to create workspace: %v", err))
	}

	renderID := uuid.New().String()[:8]
	logger.Infof("渲染开始 render_id=%s quality=%s format=%s", renderID, quality, format)

	videoPath, err := r.renderInWorkspace(ctx, workspace, renderID, code, sceneName, quality, format, assets)
	if err != nil {
		// 保留工作目录供调用方排查，由调用方决定何时 Cleanup
		logger.Errorf("渲染失败 render_id=%s: %v", renderID, err)
		result := failure(workspace, err)
		result.Error = fmt.Sprintf("%v (%s)", err, debugSnapshot(workspace))
		return result
	}

	logger.Infof("渲染完成 render_id=%s video=%s", renderID, videoPath)
	return &Result{
		VideoPath: videoPath,
		Workspace: workspace,
		Success:   true,
	}
}

func (r *Renderer) renderInWorkspace(ctx context.Context, workspace, renderID, code, sceneName, quality, format string, assets map[string][]byte) (string, error) {
	// 1. 落盘附件（如旁白音频），文件名与生成代码中引用的保持一致
	for filename, content := range assets {
		if err := os.WriteFile(filepath.Join(workspace, filepath.Base(filename)), content, 0644); err != nil {
			return "", fmt.Errorf("failed to write asset %s: %v", filename, err)
		}
	}

	// 2. 写入代码文件
	codePath := filepath.Join(workspace, fmt.Sprintf("scene_%s.py", renderID))
	if err := os.WriteFile(codePath, []byte(code), 0644); err != nil {
		return "", fmt.Errorf("failed to write code file: %v", err)
	}

	// 3. 先做静态校验，语法错误不起子进程。
	// 黑名单检查在这里重复一次：调用方可能带着从未经过内容生成器的代码直接进来
	if err := r.syntax.Check(ctx, code); err != nil {
		return "", err
	}
	if err := codecheck.CheckIllegalImports(code); err != nil {
		return "", err
	}

	// 4. 解析分辨率与扩展名
	resolution := ResolveQuality(quality)
	fileExt := ResolveFormat(format)

	outputDir := filepath.Join(workspace, "output")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %v", err)
	}

	// 5. 序列化 RunnerConfig
	runnerConfig := RunnerConfig{
		CodePath:  codePath,
		SceneName: sceneName,
		CameraConfig: CameraConfig{
			Resolution:        resolution,
			FPS:               30,
			BackgroundColor:   "#000000",
			BackgroundOpacity: 1.0,
		},
		FileWriterConfig: FileWriterConfig{
			WriteToMovie:       true,
			SaveLastFrame:      false,
			MovieFileExtension: fileExt,
			OutputDirectory:    outputDir,
			FileName:           fmt.Sprintf("output_%s", renderID),
			Quiet:              true,
		},
		Limits: RunnerLimits{CPUSeconds: r.cpuSeconds},
	}
	if format == "mp4" {
		runnerConfig.FileWriterConfig.VideoCodec = "libx264"
		runnerConfig.FileWriterConfig.PixelFormat = "yuv420p"
	}

	configData, err := json.Marshal(runnerConfig)
	if err != nil {
		return "", fmt.Errorf("failed to marshal runner config: %v", err)
	}
	configPath := filepath.Join(workspace, "render_config.json")
	if err := os.WriteFile(configPath, configData, 0644); err != nil {
		return "", fmt.Errorf("failed to write runner config: %v", err)
	}

	// 6. 把嵌入的 runner 脚本放进工作目录
	runnerPath := filepath.Join(workspace, runnerFileName)
	if err := os.WriteFile(runnerPath, sceneRunnerScript, 0644); err != nil {
		return "", fmt.Errorf("failed to write runner script: %v", err)
	}

	// 7. 带墙钟超时地运行子进程
	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	stdout, stderr, err := r.runner.Run(runCtx, workspace, runnerPath, configPath)
	if err != nil {
		return "", fmt.Errorf("%w (%v):\n%s\n%s", ErrChildProcess, err, stderr, stdout)
	}

	// 8. 按文件名前缀发现产物
	found, err := filepath.Glob(filepath.Join(outputDir, fmt.Sprintf("output_%s*%s", renderID, fileExt)))
	if err != nil {
		return "", fmt.Errorf("failed to glob output files: %v", err)
	}
	sort.Strings(found)

	if len(found) == 0 {
		return "", fmt.Errorf("%w in %s. Output:\n%s\n%s", ErrMissingOutput, outputDir, stdout, stderr)
	}
	if len(found) == 1 {
		return found[0], nil
	}

	// 9. 多段输出按发现顺序合并
	mergedPath := filepath.Join(outputDir, fmt.Sprintf("output_merged_%s%s", renderID, fileExt))
	if err := r.stitcher.Stitch(ctx, found, mergedPath); err != nil {
		return "", err
	}
	return mergedPath, nil
}

// debugSnapshot 失败时附带的现场信息：进程工作目录 + 工作区文件列表
func debugSnapshot(workspace string) string {
	cwd, _ := os.Getwd()

	var names []string
	if entries, err := os.ReadDir(workspace); err == nil {
		for i, entry := range entries {
			if i >= 10 {
				break
			}
			names = append(names, entry.Name())
		}
	}
	return fmt.Sprintf("CWD: %s, Files: [%s]", cwd, strings.Join(names, " "))
}
