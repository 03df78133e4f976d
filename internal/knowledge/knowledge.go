// Package knowledge 提供 manimlib 文档片段的关键词检索，
// 用于在代码生成前增强提示词（RAG）。
package knowledge

import (
	"embed"
	"sort"
	"strings"

	"animagen-backend/pkg/logger"
)

//go:embed sections/*.md
var sectionFS embed.FS

// sectionKeys 按定义顺序排列，得分相同时按该顺序稳定排序
var sectionKeys = []string{
	"geometry_basic",
	"geometry_lines",
	"geometry_polygons",
	"text_latex",
	"coordinate_systems",
	"3d_objects",
	"animations_creation",
	"animations_fading",
	"animations_transform",
	"animations_indication",
	"animations_composition",
	"scene_methods",
	"mobject_methods",
	"constants_colors",
	"vgroup",
	"rate_functions",
	"multi_scene_pattern",
}

// 无论查询内容如何都会获得小幅加分的基线片段
var baselineSections = []string{"scene_methods", "constants_colors", "mobject_methods"}

// 一个关键词都没有命中时使用的兜底片段列表
var fallbackSections = []string{
	"geometry_basic",
	"text_latex",
	"animations_creation",
	"animations_transform",
	"scene_methods",
	"multi_scene_pattern",
}

var keywordSections = map[string][]string{
	// 几何
	"circle":    {"geometry_basic", "mobject_methods"},
	"dot":       {"geometry_basic"},
	"arc":       {"geometry_basic"},
	"ellipse":   {"geometry_basic"},
	"line":      {"geometry_lines"},
	"arrow":     {"geometry_lines"},
	"vector":    {"geometry_lines"},
	"rectangle": {"geometry_polygons"},
	"square":    {"geometry_polygons"},
	"polygon":   {"geometry_polygons"},
	"triangle":  {"geometry_polygons"},
	"star":      {"geometry_polygons"},
	"sector":    {"geometry_polygons"},
	"annulus":   {"geometry_polygons"},
	"shape":     {"geometry_basic", "geometry_polygons"},

	// 文本
	"text":     {"text_latex"},
	"tex":      {"text_latex"},
	"latex":    {"text_latex"},
	"math":     {"text_latex", "coordinate_systems"},
	"equation": {"text_latex"},
	"formula":  {"text_latex"},
	"label":    {"text_latex"},

	// 坐标系与图像
	"graph":       {"coordinate_systems"},
	"plot":        {"coordinate_systems"},
	"function":    {"coordinate_systems"},
	"axes":        {"coordinate_systems"},
	"axis":        {"coordinate_systems"},
	"coordinate":  {"coordinate_systems"},
	"plane":       {"coordinate_systems"},
	"number line": {"coordinate_systems"},
	"x-axis":      {"coordinate_systems"},
	"y-axis":      {"coordinate_systems"},
	"sine":        {"coordinate_systems"},
	"cosine":      {"coordinate_systems"},
	"parabola":    {"coordinate_systems"},

	// 3D
	"3d":            {"3d_objects", "scene_methods"},
	"sphere":        {"3d_objects"},
	"cylinder":      {"3d_objects"},
	"cone":          {"3d_objects"},
	"torus":         {"3d_objects"},
	"surface":       {"3d_objects"},
	"camera":        {"scene_methods"},
	"rotate camera": {"scene_methods"},

	// 动画
	"animate":   {"animations_creation", "animations_transform"},
	"animation": {"animations_creation", "animations_transform", "animations_composition"},
	"create":    {"animations_creation"},
	"write":     {"animations_creation"},
	"draw":      {"animations_creation"},
	"fade":      {"animations_fading"},
	"appear":    {"animations_fading"},
	"disappear": {"animations_fading"},
	"transform": {"animations_transform"},
	"morph":     {"animations_transform"},
	"move":      {"animations_transform", "mobject_methods"},
	"indicate":  {"animations_indication"},
	"flash":     {"animations_indication"},
	"highlight": {"animations_indication"},
	"wiggle":    {"animations_indication"},
	"group":     {"animations_composition", "vgroup"},
	"sequence":  {"animations_composition"},
	"together":  {"animations_composition"},

	// 通用
	"color":    {"constants_colors", "mobject_methods"},
	"position": {"mobject_methods", "constants_colors"},
	"scale":    {"mobject_methods"},
	"rotate":   {"mobject_methods", "animations_transform"},
	"vgroup":   {"vgroup"},
	"arrange":  {"vgroup"},
	"easing":   {"rate_functions"},
	"smooth":   {"rate_functions"},

	// 复合主题
	"explain":       {"multi_scene_pattern", "text_latex"},
	"theorem":       {"multi_scene_pattern", "text_latex", "geometry_basic"},
	"proof":         {"multi_scene_pattern", "text_latex"},
	"step by step":  {"multi_scene_pattern"},
	"tutorial":      {"multi_scene_pattern"},
	"demonstration": {"multi_scene_pattern"},
	"fourier":       {"coordinate_systems", "multi_scene_pattern"},
	"calculus":      {"coordinate_systems", "text_latex"},
	"derivative":    {"coordinate_systems", "text_latex"},
	"integral":      {"coordinate_systems", "text_latex"},
	"pythagorean":   {"geometry_polygons", "text_latex", "multi_scene_pattern"},
	"pythagoras":    {"geometry_polygons", "text_latex", "multi_scene_pattern"},
}

// sectionBodies 进程启动时加载一次，之后只读
var sectionBodies = loadSections()

// sectionOrder 片段key到定义顺序的映射，用于稳定排序
var sectionOrder = func() map[string]int {
	order := make(map[string]int, len(sectionKeys))
	for i, key := range sectionKeys {
		order[key] = i
	}
	return order
}()

func loadSections() map[string]string {
	bodies := make(map[string]string, len(sectionKeys))
	for _, key := range sectionKeys {
		data, err := sectionFS.ReadFile("sections/" + key + ".md")
		if err != nil {
			// 嵌入文件缺失属于构建错误，启动时直接暴露
			logger.Fatalf("knowledge section %s missing: %v", key, err)
		}
		bodies[key] = string(data)
	}
	return bodies
}

// Retrieve 根据查询文本检索相关的 manimlib 文档片段。
// 纯函数，无副作用，可并发调用。
func Retrieve(query string, maxSections int) string {
	queryLower := strings.ToLower(query)

	scores := make(map[string]float64)
	matched := false
	for keyword, sections := range keywordSections {
		if strings.Contains(queryLower, keyword) {
			matched = true
			for _, section := range sections {
				scores[section]++
			}
		}
	}

	var top []string
	if !matched {
		// 没有任何关键词命中时使用兜底列表，而不是基线加分的结果
		top = fallbackSections
	} else {
		// 基线片段无条件获得小幅加分
		for _, section := range baselineSections {
			scores[section] += 0.5
		}

		sorted := make([]string, 0, len(scores))
		for section := range scores {
			sorted = append(sorted, section)
		}
		sort.SliceStable(sorted, func(i, j int) bool {
			if scores[sorted[i]] != scores[sorted[j]] {
				return scores[sorted[i]] > scores[sorted[j]]
			}
			return sectionOrder[sorted[i]] < sectionOrder[sorted[j]]
		})

		if len(sorted) > maxSections {
			sorted = sorted[:maxSections]
		}
		top = sorted
	}

	parts := make([]string, 0, len(top))
	for _, section := range top {
		if body, ok := sectionBodies[section]; ok {
			parts = append(parts, body)
		}
	}

	return strings.Join(parts, "\n")
}

// AllSections 返回全部片段拼接后的文本
func AllSections() string {
	parts := make([]string, 0, len(sectionKeys))
	for _, key := range sectionKeys {
		parts = append(parts, sectionBodies[key])
	}
	return strings.Join(parts, "\n\n")
}
