package service

import (
	"regexp"
	"strings"
)

// repairRule 一条修复规则：命名 + 纯函数变换。
// 规则按声明顺序执行，每条都必须幂等。
type repairRule struct {
	name  string
	apply func(code string) string
}

var repairRules = []repairRule{
	{"ensure_import", ensureManimlibImport},
	{"always_redraw", rewriteAlwaysRedraw},
	{"create_alias", replaceCreateAlias},
	{"unicode_dashes", normalizeDashes},
	{"color_aliases", replaceColorAliases},
	{"latex_text", rewriteLatexText},
	{"ensure_scene_class", ensureSceneClass},
}

// RepairCode 对提取出的代码执行全部修复规则
func RepairCode(code string) string {
	for _, rule := range repairRules {
		code = rule.apply(code)
	}
	return code
}

func ensureManimlibImport(code string) string {
	if strings.Contains(code, "from manimlib import") {
		return code
	}
	return "from manimlib import *\n\n" + code
}

var alwaysRedrawPattern = regexp.MustCompile(`(\w+)\s*=\s*always_redraw\s*\(\s*(\w+)\s*\)`)

// rewriteAlwaysRedraw 把 always_redraw(fn) 改写成 fn() + add_updater，
// manimlib 的 always_redraw 和社区版行为不一致
func rewriteAlwaysRedraw(code string) string {
	return alwaysRedrawPattern.ReplaceAllStringFunc(code, func(match string) string {
		groups := alwaysRedrawPattern.FindStringSubmatch(match)
		varName, funcName := groups[1], groups[2]
		return varName + " = " + funcName + "()\n        " +
			varName + ".add_updater(lambda m: m.become(" + funcName + "()))"
	})
}

var createAliasPattern = regexp.MustCompile(`\bCreate\b`)

func replaceCreateAlias(code string) string {
	return createAliasPattern.ReplaceAllString(code, "ShowCreation")
}

func normalizeDashes(code string) string {
	code = strings.ReplaceAll(code, "–", "-")
	code = strings.ReplaceAll(code, "—", "-")
	return code
}

// colorAliases 模型常臆造的颜色常量到 manimlib 实际常量的映射
var colorAliases = map[string]string{
	"LIGHT_GRAY":   "GREY_B",
	"LIGHT_GREY":   "GREY_B",
	"DARK_GRAY":    "GREY_D",
	"DARK_GREY":    "GREY_D",
	"LIGHT_BROWN":  "GOLD_E",
	"DARK_BROWN":   "GOLD_E",
	"LIGHT_PINK":   "PINK",
	"DARK_PINK":    "MAROON_C",
	"LIGHT_BLUE":   "BLUE_B",
	"DARK_BLUE":    "BLUE_E",
	"LIGHT_GREEN":  "GREEN_B",
	"DARK_GREEN":   "GREEN_E",
	"LIGHT_RED":    "RED_B",
	"DARK_RED":     "RED_E",
	"LIGHT_YELLOW": "YELLOW_B",
	"DARK_YELLOW":  "YELLOW_E",
	"LIGHT_PURPLE": "PURPLE_B",
	"DARK_PURPLE":  "PURPLE_E",
	"LIGHT_ORANGE": "ORANGE",
	"DARK_ORANGE":  "GOLD_E",
	"CYAN":         "TEAL",
	"MAGENTA":      "PINK",
}

var colorAliasPatterns = func() map[*regexp.Regexp]string {
	patterns := make(map[*regexp.Regexp]string, len(colorAliases))
	for alias, actual := range colorAliases {
		patterns[regexp.MustCompile(`\b`+alias+`\b`)] = actual
	}
	return patterns
}()

func replaceColorAliases(code string) string {
	for pattern, actual := range colorAliasPatterns {
		code = pattern.ReplaceAllString(code, actual)
	}
	return code
}

var latexTextPattern = regexp.MustCompile(`\\text\{([^}]+)\}`)

func rewriteLatexText(code string) string {
	return latexTextPattern.ReplaceAllString(code, `\mathrm{$1}`)
}

var sceneClassPattern = regexp.MustCompile(`class\s+\w+\(Scene\):`)

// ensureSceneClass 把裸片段包进完整的 Scene 类
func ensureSceneClass(code string) string {
	if sceneClassPattern.MatchString(code) {
		return code
	}
	var b strings.Builder
	b.WriteString("\nfrom manimlib import *\n\nclass GeneratedScene(Scene):\n    def construct(self):\n")
	for _, line := range strings.Split(code, "\n") {
		b.WriteString("    " + line + "\n")
	}
	return b.String()
}
