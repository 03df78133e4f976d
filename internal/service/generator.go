package service

import (
	"context"
	"errors"
	"fmt"

	"animagen-backend/internal/codecheck"
	"animagen-backend/internal/config"
	"animagen-backend/internal/knowledge"
	"animagen-backend/internal/model"
	"animagen-backend/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrConfiguration 缺少可用的模型 API key
var ErrConfiguration = errors.New("model API key is required: pass api_key in the request or configure one on the server")

const (
	storyboardKnowledgeBound = 6
	codeKnowledgeBound       = 8
	maxCodeAttempts          = 3
)

const storyboardSystemPrompt = `You are an expert director for educational math videos. Create a detailed storyboard.

## RELEVANT KNOWLEDGE:
%s

## OUTPUT FORMAT:
[STORYBOARD]
1. [0:00-0:10] Intro: ... (Visuals: ...)
2. [0:10-0:30] Concept: ... (Visuals: ...)
...
[/STORYBOARD]
`

const scriptSystemPrompt = `You are an expert science communicator. Write a narration script matching the storyboard.

## OUTPUT FORMAT:
[SCRIPT]
(Write the full narration here. Use "..." for pauses. Be engaging and clear.)
[/SCRIPT]
`

const codeSystemPrompt = `You are an expert Manim animation developer. Generate Python code using ` + "`manimlib`" + ` (ManimGL).

## CONTEXT:
STORYBOARD:
%s

SCRIPT:
%s

## RELEVANT DOCUMENTATION:
%s

## OUTPUT FORMAT:
[CODE]
(Python code only)
[/CODE]

## CRITICAL RULES (VIOLATION = SYSTEM CRASH):
1. Use ONLY ` + "`from manimlib import *`" + ` as the FIRST import line.
2. NEVER use ` + "`import manim`" + ` or ` + "`from manim import ...`" + `.
3. Create a SINGLE ` + "`Scene`" + ` class named ` + "`GeneratedScene`" + ` containing the ENTIRE animation.
4. DO NOT create multiple Scene classes. Combine all storyboard parts into one ` + "`construct`" + ` method.
5. Include ` + "`self.add_sound(\"narration.mp3\")`" + ` at the start of ` + "`construct`" + `.
6. Use ` + "`self.wait()`" + ` to sync with the script timing.
7. PREFER ` + "`Text(\"String\")`" + ` over ` + "`Tex(r\"\\text{String}\")`" + `.
8. Use ` + "`self.frame.set_euler_angles()`" + ` for 3D camera.
9. Use ` + "`ShowCreation`" + ` (not Create).
10. For MATH formulas (fractions, limits, integrals, etc.), use ` + "`MathTex(r\"...\")`" + `. For plain TEXT, use ` + "`Text(\"...\")`" + ` or ` + "`Tex(r\"$...$\")`" + `.
`

const retryPromptTemplate = `CRITICAL: Your previous code generation was CORRUPTED and INVALID.

ERROR: %s

You MUST generate VALID Python code that compiles without errors.
Fix the syntax issues and generate working code.

Original request: %s`

// modelFactory 按请求级 API key 创建一个聊天模型
type modelFactory func(ctx context.Context, apiKey string) (einoModel.BaseChatModel, error)

// Generator 三段式内容生成：分镜 -> 旁白脚本 -> 动画代码
type Generator struct {
	newPlanningModel modelFactory
	newCodeModel     modelFactory
	syntax           codecheck.SyntaxChecker
}

func NewGenerator() *Generator {
	cfg := config.Get()
	return &Generator{
		newPlanningModel: model.NewPlanningModel,
		newCodeModel:     model.NewCodeModel,
		syntax:           codecheck.NewPySyntaxChecker(cfg.Render.PythonBin),
	}
}

// Generate 从自然语言提示生成动画代码和旁白脚本。
// 分镜和脚本各生成一次，代码阶段校验失败时最多重试到三次。
func (g *Generator) Generate(ctx context.Context, prompt, apiKey string) (code, script string, err error) {
	apiKey = g.resolveAPIKey(apiKey)
	if apiKey == "" {
		return "", "", ErrConfiguration
	}

	// 0. 检索知识
	retrieved := knowledge.Retrieve(prompt, storyboardKnowledgeBound)

	// 1. 分镜
	logger.Info("生成分镜...")
	storyboard, err := g.generateStoryboard(ctx, prompt, retrieved, apiKey)
	if err != nil {
		return "", "", fmt.Errorf("storyboard generation failed: %w", err)
	}
	logger.Infof("分镜生成完成 (len=%d)", len(storyboard))

	// 2. 旁白脚本
	logger.Info("生成旁白脚本...")
	scriptResp, err := g.generateScript(ctx, storyboard, apiKey)
	if err != nil {
		return "", "", fmt.Errorf("script generation failed: %w", err)
	}
	script = ExtractScript(scriptResp)
	logger.Infof("脚本生成完成 (len=%d)", len(script))

	// 3. 用分镜重新检索后生成代码，带校验重试
	codeKnowledge := knowledge.Retrieve(storyboard+"\n"+prompt, codeKnowledgeBound)
	logger.Infof("代码上下文检索完成 (%d chars)", len(codeKnowledge))

	var lastErr error
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		effectivePrompt := prompt
		if attempt > 1 && lastErr != nil {
			logger.Warnf("代码生成重试 %d/%d: %v", attempt, maxCodeAttempts, lastErr)
			effectivePrompt = fmt.Sprintf(retryPromptTemplate, lastErr, prompt)
		}

		codeResp, genErr := g.generateCode(ctx, effectivePrompt, storyboard, script, codeKnowledge, apiKey)
		if genErr != nil {
			lastErr = genErr
			continue
		}

		code = RepairCode(ExtractCode(codeResp))
		logger.Infof("代码生成完成 (len=%d)", len(code))

		if valErr := codecheck.Validate(ctx, code, g.syntax); valErr != nil {
			lastErr = valErr
			logger.Warnf("代码校验失败 (attempt %d): %v", attempt, valErr)
			continue
		}

		logger.Infof("代码通过校验 (attempt %d)", attempt)
		return code, script, nil
	}

	return "", "", fmt.Errorf("code generation failed after %d attempts: %w", maxCodeAttempts, lastErr)
}

func (g *Generator) resolveAPIKey(requestKey string) string {
	if requestKey != "" {
		return requestKey
	}
	if cfg := config.Get(); cfg != nil {
		return cfg.Groq.APIKey
	}
	return ""
}

func (g *Generator) generateStoryboard(ctx context.Context, prompt, retrieved, apiKey string) (string, error) {
	chatModel, err := g.newPlanningModel(ctx, apiKey)
	if err != nil {
		return "", err
	}
	return g.callModel(ctx, chatModel,
		fmt.Sprintf(storyboardSystemPrompt, retrieved),
		fmt.Sprintf("Create a storyboard for: %s", prompt))
}

func (g *Generator) generateScript(ctx context.Context, storyboard, apiKey string) (string, error) {
	chatModel, err := g.newPlanningModel(ctx, apiKey)
	if err != nil {
		return "", err
	}
	return g.callModel(ctx, chatModel,
		scriptSystemPrompt,
		fmt.Sprintf("Write a script for this storyboard:\n%s", storyboard))
}

func (g *Generator) generateCode(ctx context.Context, prompt, storyboard, script, retrieved, apiKey string) (string, error) {
	chatModel, err := g.newCodeModel(ctx, apiKey)
	if err != nil {
		return "", err
	}
	return g.callModel(ctx, chatModel,
		fmt.Sprintf(codeSystemPrompt, storyboard, script, retrieved),
		fmt.Sprintf("Generate Manim code for: %s", prompt))
}

func (g *Generator) callModel(ctx context.Context, chatModel einoModel.BaseChatModel, systemPrompt, userPrompt string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}
	resp, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
