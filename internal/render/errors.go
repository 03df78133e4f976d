package render

import "errors"

var (
	// ErrChildProcess 渲染子进程非零退出
	ErrChildProcess = errors.New("rendering process error")
	// ErrMissingOutput 子进程正常退出但没有产出视频文件
	ErrMissingOutput = errors.New("video file missing")
	// ErrConcatenation 多段视频合并失败
	ErrConcatenation = errors.New("video concatenation failed")
)
