package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Model  ModelConfig  `mapstructure:"model"`
	Groq   GroqConfig   `mapstructure:"groq"`
	Doubao DoubaoConfig `mapstructure:"doubao"`
	Qwen   QwenConfig   `mapstructure:"qwen"`
	TTS    TTSConfig    `mapstructure:"tts"`
	Render RenderConfig `mapstructure:"render"`
	CORS   CORSConfig   `mapstructure:"cors"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type ModelConfig struct {
	Provider string `mapstructure:"provider"` // groq, doubao, qwen
}

type GroqConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	Temperature   float32       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	CodeMaxTokens int           `mapstructure:"code_max_tokens"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type DoubaoConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type QwenConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type TTSConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	DefaultLanguage string        `mapstructure:"default_language"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type RenderConfig struct {
	WorkDir       string        `mapstructure:"work_dir"`       // 为空时使用系统临时目录
	PythonBin     string        `mapstructure:"python_bin"`
	FFmpegBin     string        `mapstructure:"ffmpeg_bin"`
	Timeout       time.Duration `mapstructure:"timeout"`        // 子进程渲染的墙钟超时
	MaxConcurrent int           `mapstructure:"max_concurrent"` // 并发门容量，默认1
	CleanupTTL    time.Duration `mapstructure:"cleanup_ttl"`    // 残留渲染结果的回收周期
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("ANIMAGEN")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// 配置文件优先，配置文件中没有设置时回退到环境变量
	if cfg.Groq.APIKey == "" {
		if apiKey := os.Getenv("GROQ_API_KEY"); apiKey != "" {
			cfg.Groq.APIKey = apiKey
		}
	}
	if cfg.Doubao.APIKey == "" {
		if apiKey := os.Getenv("ARK_API_KEY"); apiKey != "" {
			cfg.Doubao.APIKey = apiKey
		}
	}
	if cfg.Qwen.APIKey == "" {
		if apiKey := os.Getenv("DASHSCOPE_API_KEY"); apiKey != "" {
			cfg.Qwen.APIKey = apiKey
		}
	}

	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.Model.Provider == "" {
		c.Model.Provider = "groq"
	}
	if c.Groq.BaseURL == "" {
		c.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Groq.Model == "" {
		c.Groq.Model = "llama-3.3-70b-versatile"
	}
	if c.Groq.MaxTokens == 0 {
		c.Groq.MaxTokens = 4096
	}
	if c.Groq.CodeMaxTokens == 0 {
		c.Groq.CodeMaxTokens = 8192
	}
	if c.Groq.Timeout == 0 {
		c.Groq.Timeout = 2 * time.Minute
	}
	if c.TTS.Endpoint == "" {
		c.TTS.Endpoint = "https://translate.google.com/translate_tts"
	}
	if c.TTS.DefaultLanguage == "" {
		c.TTS.DefaultLanguage = "en"
	}
	if c.TTS.Timeout == 0 {
		c.TTS.Timeout = 60 * time.Second
	}
	if c.Render.PythonBin == "" {
		c.Render.PythonBin = "python3"
	}
	if c.Render.FFmpegBin == "" {
		c.Render.FFmpegBin = "ffmpeg"
	}
	if c.Render.Timeout == 0 {
		c.Render.Timeout = 10 * time.Minute
	}
	if c.Render.MaxConcurrent == 0 {
		c.Render.MaxConcurrent = 1
	}
	if c.Render.CleanupTTL == 0 {
		c.Render.CleanupTTL = 30 * time.Minute
	}
	if c.Render.SweepInterval == 0 {
		c.Render.SweepInterval = 5 * time.Minute
	}
}

func Get() *Config {
	return cfg
}
