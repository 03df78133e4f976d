package render

import (
	"os"
	"sync"
)

// Result 一次渲染的结果。成功时 VideoPath 指向最终视频文件，
// 失败时 Error 携带诊断信息、Workspace 保留现场供排查。
// 在调用 Cleanup 之前，Result 独占工作目录。
type Result struct {
	VideoPath string
	Workspace string
	Success   bool
	Error     string
	Err       error // 原始错误，上层据此区分错误类别

	cleanupOnce sync.Once
}

// Cleanup 删除工作目录。幂等且不可逆。
func (r *Result) Cleanup() {
	r.cleanupOnce.Do(func() {
		if r.Workspace != "" {
			os.RemoveAll(r.Workspace)
		}
	})
}

func failure(workspace string, err error) *Result {
	return &Result{
		Workspace: workspace,
		Success:   false,
		Error:     err.Error(),
		Err:       err,
	}
}
