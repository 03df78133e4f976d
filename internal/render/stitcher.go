package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Stitcher 将多段视频按顺序合并成一个文件
type Stitcher interface {
	Stitch(ctx context.Context, segments []string, output string) error
}

// FFmpegStitcher 用 ffmpeg concat demuxer 做流拷贝合并，不重新编码
type FFmpegStitcher struct {
	FFmpegBin string
}

func NewFFmpegStitcher(ffmpegBin string) *FFmpegStitcher {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &FFmpegStitcher{FFmpegBin: ffmpegBin}
}

func (s *FFmpegStitcher) Stitch(ctx context.Context, segments []string, output string) error {
	manifestPath := filepath.Join(filepath.Dir(output), "concat_list.txt")
	if err := writeConcatManifest(manifestPath, segments); err != nil {
		return fmt.Errorf("%w: %v", ErrConcatenation, err)
	}

	cmd := exec.CommandContext(ctx, s.FFmpegBin,
		"-f", "concat", "-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		"-y",
		output,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrConcatenation, err)
	}
	return nil
}

// writeConcatManifest 按发现顺序写 concat 清单，文件名相对于清单所在目录
func writeConcatManifest(path string, segments []string) error {
	var buf []byte
	for _, segment := range segments {
		buf = append(buf, fmt.Sprintf("file '%s'\n", filepath.Base(segment))...)
	}
	return os.WriteFile(path, buf, 0644)
}
