package render

// RunnerConfig 通过 JSON 文件传给渲染子进程的作业描述。
// 每次渲染写入一次，不跨渲染复用。
type RunnerConfig struct {
	CodePath         string           `json:"code_path"`
	SceneName        string           `json:"scene_name,omitempty"`
	CameraConfig     CameraConfig     `json:"camera_config"`
	FileWriterConfig FileWriterConfig `json:"file_writer_config"`
	Limits           RunnerLimits     `json:"limits"`
}

type CameraConfig struct {
	Resolution        [2]int  `json:"resolution"`
	FPS               int     `json:"fps"`
	BackgroundColor   string  `json:"background_color"`
	BackgroundOpacity float64 `json:"background_opacity"`
}

type FileWriterConfig struct {
	WriteToMovie       bool   `json:"write_to_movie"`
	SaveLastFrame      bool   `json:"save_last_frame"`
	MovieFileExtension string `json:"movie_file_extension"`
	OutputDirectory    string `json:"output_directory"`
	FileName           string `json:"file_name"`
	Quiet              bool   `json:"quiet"`
	VideoCodec         string `json:"video_codec,omitempty"`
	PixelFormat        string `json:"pixel_format,omitempty"`
}

// RunnerLimits 子进程自身施加的资源上限
type RunnerLimits struct {
	CPUSeconds int `json:"cpu_seconds,omitempty"`
}

// qualityResolutions 画质到像素分辨率的固定映射
var qualityResolutions = map[string][2]int{
	"low":    {854, 480},
	"medium": {1280, 720},
	"high":   {1920, 1080},
	"4k":     {3840, 2160},
}

// formatExtensions 输出格式到文件扩展名的固定映射
var formatExtensions = map[string]string{
	"mp4": ".mp4",
	"gif": ".gif",
	"mov": ".mov",
}

// ResolveQuality 返回画质对应的分辨率，未知画质回退到 medium
func ResolveQuality(quality string) [2]int {
	if res, ok := qualityResolutions[quality]; ok {
		return res
	}
	return qualityResolutions["medium"]
}

// ResolveFormat 返回格式对应的扩展名，未知格式回退到 .mp4
func ResolveFormat(format string) string {
	if ext, ok := formatExtensions[format]; ok {
		return ext
	}
	return ".mp4"
}
