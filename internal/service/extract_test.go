package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCodeFromTags(t *testing.T) {
	response := "Here is the animation:\n[CODE]\nfrom manimlib import *\n\nclass Demo(Scene):\n    pass\n[/CODE]\nHope this helps!"
	code := ExtractCode(response)
	assert.Equal(t, "from manimlib import *\n\nclass Demo(Scene):\n    pass", code)
}

func TestExtractCodeTagsCaseInsensitive(t *testing.T) {
	response := "[code]\nx = 1\n[/code]"
	assert.Equal(t, "x = 1", ExtractCode(response))
}

func TestExtractCodeTagsWithSpaces(t *testing.T) {
	response := "[ CODE ]\nx = 1\n[ /CODE ]"
	assert.Equal(t, "x = 1", ExtractCode(response))
}

func TestExtractCodeFromMarkdownFence(t *testing.T) {
	response := "Sure:\n```python\nfrom manimlib import *\nprint(1)\n```\nDone."
	code := ExtractCode(response)
	assert.Equal(t, "from manimlib import *\nprint(1)", code)
}

func TestExtractCodeHeuristicStart(t *testing.T) {
	response := "Let me explain the approach first.\n\nfrom manimlib import *\n\nclass Demo(Scene):\n    pass"
	code := ExtractCode(response)
	assert.True(t, len(code) > 0)
	assert.Equal(t, 0, strings.Index(code, "from manimlib import"))
}

func TestExtractCodeHeuristicEarliestToken(t *testing.T) {
	// class 出现在 import 之前时取更早的位置
	response := "prose\nclass Demo(Scene):\n    pass\nfrom manimlib import *"
	code := ExtractCode(response)
	assert.Equal(t, 0, strings.Index(code, "class Demo"))
}

func TestExtractCodeHeuristicStripsTrailingFence(t *testing.T) {
	response := "from manimlib import *\nx = 1\n```\ntrailing prose"
	code := ExtractCode(response)
	assert.NotContains(t, code, "```")
	assert.NotContains(t, code, "trailing prose")
}

func TestExtractCodeTagsWinOverFence(t *testing.T) {
	// 同一回复里同时有 [CODE] 标签和围栏时，标签内容优先
	response := "[CODE]\ntagged = True\n[/CODE]\n\n```python\nfenced = True\n```"
	code := ExtractCode(response)
	assert.Equal(t, "tagged = True", code)
	assert.NotContains(t, code, "fenced")
}

func TestExtractCodeFenceWinsOverHeuristic(t *testing.T) {
	// 没有标签时围栏优先于启发式起点，即使起点 token 出现得更早
	response := "from manimlib import * is what you need:\n```python\nfenced = True\n```"
	code := ExtractCode(response)
	assert.Equal(t, "fenced = True", code)
	assert.NotContains(t, code, "what you need")
}

func TestExtractCodeWholeResponseFallback(t *testing.T) {
	response := "x = 1\ny = 2"
	assert.Equal(t, "x = 1\ny = 2", ExtractCode(response))
}

func TestExtractCodeDedents(t *testing.T) {
	response := "[CODE]\n    from manimlib import *\n\n    class Demo(Scene):\n        pass\n[/CODE]"
	code := ExtractCode(response)
	assert.Equal(t, "from manimlib import *\n\nclass Demo(Scene):\n    pass", code)
}

func TestExtractScript(t *testing.T) {
	response := "[SCRIPT]\nWelcome to this video... Today we explore circles.\n[/SCRIPT]"
	assert.Equal(t, "Welcome to this video... Today we explore circles.", ExtractScript(response))
}

func TestExtractScriptWithoutTags(t *testing.T) {
	response := "  Welcome to this video.  "
	assert.Equal(t, "Welcome to this video.", ExtractScript(response))
}

