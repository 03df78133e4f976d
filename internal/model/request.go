package model

// RenderRequest 直接渲染请求：调用方自带动画代码
type RenderRequest struct {
	Code      string `json:"code" binding:"required"`
	SceneName string `json:"scene_name"`
	Quality   string `json:"quality" binding:"omitempty,oneof=low medium high 4k"`
	Format    string `json:"format" binding:"omitempty,oneof=mp4 gif mov"`
}

// GenerateRequest 从自然语言提示词生成并渲染视频
type GenerateRequest struct {
	Prompt  string `json:"prompt" binding:"required"`
	Quality string `json:"quality" binding:"omitempty,oneof=low medium high 4k"`
	Format  string `json:"format" binding:"omitempty,oneof=mp4 gif mov"`
	APIKey  string `json:"api_key"` // 覆盖服务端默认 key，不落日志
}

// ApplyDefaults 补全缺省的画质与格式
func (r *RenderRequest) ApplyDefaults() {
	if r.Quality == "" {
		r.Quality = "medium"
	}
	if r.Format == "" {
		r.Format = "mp4"
	}
}

func (r *GenerateRequest) ApplyDefaults() {
	if r.Quality == "" {
		r.Quality = "medium"
	}
	if r.Format == "" {
		r.Format = "mp4"
	}
}
