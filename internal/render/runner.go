package render

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"runtime"
)

// SceneRunner 在隔离环境中执行一次渲染子进程
type SceneRunner interface {
	Run(ctx context.Context, workspace, runnerPath, configPath string) (stdout, stderr string, err error)
}

// PythonSceneRunner 以 python 子进程运行嵌入的 scene_runner 脚本。
// 没有物理显示器时套一层 xvfb-run 虚拟显示。
type PythonSceneRunner struct {
	PythonBin string
}

func NewPythonSceneRunner(pythonBin string) *PythonSceneRunner {
	if pythonBin == "" {
		pythonBin = "python3"
	}
	return &PythonSceneRunner{PythonBin: pythonBin}
}

func (r *PythonSceneRunner) Run(ctx context.Context, workspace, runnerPath, configPath string) (string, string, error) {
	args := []string{runnerPath, configPath}
	bin := r.PythonBin

	if needsVirtualDisplay() {
		// -a 自动选择显示编号，避免并发冲突
		args = append([]string{"-a", "--server-args=-screen 0 1280x720x24 -ac", bin}, args...)
		bin = "xvfb-run"
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = workspace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func needsVirtualDisplay() bool {
	if runtime.GOOS == "darwin" {
		return false
	}
	return os.Getenv("DISPLAY") == ""
}
