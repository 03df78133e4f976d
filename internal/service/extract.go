package service

import (
	"regexp"
	"strings"
)

var (
	codeTagPattern     = regexp.MustCompile(`(?is)\[\s*CODE\s*\](.*?)\[\s*/CODE\s*\]`)
	pythonFencePattern = regexp.MustCompile("(?is)```python(.*?)```")
	scriptTagPattern   = regexp.MustCompile(`(?is)\[\s*SCRIPT\s*\](.*?)\[\s*/SCRIPT\s*\]`)
)

// codeStartTokens 按出现位置最早者取胜
var codeStartTokens = []string{"from manimlib import", "import manimlib", "class "}

// ExtractCode 从模型回复中剥出 Python 代码。
// 依次尝试 [CODE] 标签、```python 围栏、启发式起点，全部落空时返回整个回复。
func ExtractCode(response string) string {
	var code string

	if match := codeTagPattern.FindStringSubmatch(response); match != nil {
		code = match[1]
	}

	if code == "" {
		if match := pythonFencePattern.FindStringSubmatch(response); match != nil {
			code = match[1]
		}
	}

	if code == "" {
		startIdx := -1
		for _, token := range codeStartTokens {
			if idx := strings.Index(response, token); idx != -1 {
				if startIdx == -1 || idx < startIdx {
					startIdx = idx
				}
			}
		}
		if startIdx != -1 {
			code = response[startIdx:]
			// 截掉尾部残余的 markdown 围栏
			if idx := strings.Index(code, "```"); idx != -1 {
				code = code[:idx]
			}
		} else {
			code = response
		}
	}

	return dedent(strings.TrimSpace(code))
}

// ExtractScript 从模型回复中剥出 [SCRIPT] 标签内容，没有标签则返回整个回复
func ExtractScript(response string) string {
	if match := scriptTagPattern.FindStringSubmatch(response); match != nil {
		return strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(response)
}

// dedent 去掉所有非空行共有的前导空白。
// 模型偶尔会把整段代码统一缩进一层。
func dedent(text string) string {
	lines := strings.Split(text, "\n")

	margin := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if margin == -1 || indent < margin {
			margin = indent
		}
		if margin == 0 {
			return text
		}
	}
	if margin <= 0 {
		return text
	}

	for i, line := range lines {
		if len(line) >= margin {
			lines[i] = line[margin:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
