package model

import (
	"context"
	"fmt"

	"animagen-backend/internal/config"
	"animagen-backend/internal/utils"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
)

// NewPlanningModel 创建分镜/脚本阶段使用的模型
func NewPlanningModel(ctx context.Context, apiKey string) (einoModel.BaseChatModel, error) {
	cfg := config.Get()
	return newChatModel(ctx, cfg, apiKey, cfg.Groq.Temperature, cfg.Groq.MaxTokens)
}

// NewCodeModel 创建代码生成阶段使用的模型。
// 代码阶段使用更低的温度和更大的 token 上限。
func NewCodeModel(ctx context.Context, apiKey string) (einoModel.BaseChatModel, error) {
	cfg := config.Get()
	return newChatModel(ctx, cfg, apiKey, 0.5, cfg.Groq.CodeMaxTokens)
}

func newChatModel(ctx context.Context, cfg *config.Config, apiKey string, temperature float32, maxTokens int) (einoModel.BaseChatModel, error) {
	switch cfg.Model.Provider {
	case "groq", "":
		return newOpenAIChatModel(apiKey, cfg.Groq.BaseURL, cfg.Groq.Model, temperature, maxTokens, cfg.Groq.Timeout), nil
	case "doubao":
		return newDoubaoModel(ctx, cfg.Doubao, apiKey)
	case "qwen":
		return newQwenModel(ctx, cfg.Qwen, apiKey, temperature, maxTokens)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Model.Provider)
	}
}

func newDoubaoModel(ctx context.Context, cfg config.DoubaoConfig, apiKey string) (einoModel.BaseChatModel, error) {
	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey: apiKey,
		Model:  cfg.Model,
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create doubao model: %w", err)
	}
	return chatModel, nil
}

func newQwenModel(ctx context.Context, cfg config.QwenConfig, apiKey string, temperature float32, maxTokens int) (einoModel.BaseChatModel, error) {
	chatModel, err := qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      apiKey,
		Model:       cfg.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		Timeout:     cfg.Timeout,
		HTTPClient:  utils.NewHTTPClient(cfg.Timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qwen model: %w", err)
	}
	return chatModel, nil
}
