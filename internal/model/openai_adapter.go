package model

import (
	"context"
	"fmt"
	"io"
	"time"

	"animagen-backend/internal/utils"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

// openaiChatModel 将 go-openai 客户端适配为 eino 的 ChatModel 接口。
// Groq 走 OpenAI 兼容接口，只需替换 BaseURL。
type openaiChatModel struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func newOpenAIChatModel(apiKey, baseURL, model string, temperature float32, maxTokens int, timeout time.Duration) *openaiChatModel {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = utils.NewHTTPClient(timeout)

	return &openaiChatModel{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Generate 实现 eino.BaseChatModel 接口
func (m *openaiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    m.convertMessages(messages),
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model %s", m.model)
	}

	return &schema.Message{
		Role:    schema.Assistant,
		Content: resp.Choices[0].Message.Content,
	}, nil
}

func (m *openaiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	stream, err := m.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    m.convertMessages(messages),
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, err
	}

	reader, writer := schema.Pipe[*schema.Message](16)

	go func() {
		defer stream.Close()
		defer writer.Close()

		for {
			chunk, err := stream.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				writer.Send(nil, err)
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			writer.Send(&schema.Message{
				Role:    schema.Assistant,
				Content: chunk.Choices[0].Delta.Content,
			}, nil)
		}
	}()

	return reader, nil
}

func (m *openaiChatModel) convertMessages(messages []*schema.Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case schema.System:
			role = openai.ChatMessageRoleSystem
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		}
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return converted
}
