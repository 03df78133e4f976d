// Package codecheck 集中校验生成的动画代码：
// 非法 import 黑名单、乱序输出检测、Python 语法检查。
// 内容生成侧与隔离渲染侧共用同一套规则。
package codecheck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	ErrSyntax        = errors.New("code has syntax errors")
	ErrIllegalImport = errors.New("code contains illegal import")
	ErrScrambled     = errors.New("code appears to be scrambled")
)

// illegalImports 生成器幻觉出的错误包名。
// "manim" 是社区分支的包名，本服务只支持 manimlib（ManimGL）。
var illegalImports = []string{
	"from manim import",
	"import manim ",
	"import manim\n",
	"import manim.",
	"from manif",
	"import manif",
}

const requiredImport = "from manimlib import"

// CheckIllegalImports 在整段代码中查找黑名单 import，命中即拒绝
func CheckIllegalImports(code string) error {
	// 行尾的 "import manim" 不带后缀字符，补一个换行统一匹配
	probe := code + "\n"
	for _, bad := range illegalImports {
		if strings.Contains(probe, bad) {
			return fmt.Errorf("%w %q, must use 'from manimlib import *'", ErrIllegalImport, strings.TrimSpace(bad))
		}
	}
	return nil
}

// CheckScrambled 检测被模型打乱/交错的输出。
// 特征一：必需的 import 出现在前几行之后；
// 特征二：self 引用出现在其所属的 Scene 类定义之前。
func CheckScrambled(code string) error {
	lines := strings.Split(strings.TrimSpace(code), "\n")

	for i := 5; i < len(lines); i++ {
		if strings.Contains(lines[i], requiredImport) {
			return fmt.Errorf("%w: import on line %d", ErrScrambled, i+1)
		}
	}

	classLine := -1
	firstSelfLine := -1
	for i, line := range lines {
		if strings.Contains(line, "class ") && strings.Contains(line, "Scene") {
			classLine = i
		}
		if firstSelfLine == -1 && strings.Contains(line, "self.") {
			firstSelfLine = i
		}
	}
	if firstSelfLine != -1 && classLine != -1 && firstSelfLine < classLine {
		return fmt.Errorf("%w: self reference on line %d before class on line %d",
			ErrScrambled, firstSelfLine+1, classLine+1)
	}

	return nil
}

// SyntaxChecker 校验代码在目标脚本语言下是否可解析
type SyntaxChecker interface {
	Check(ctx context.Context, code string) error
}

// PySyntaxChecker 通过子进程调用 CPython 的 ast.parse 做语法检查
type PySyntaxChecker struct {
	PythonBin string
}

func NewPySyntaxChecker(pythonBin string) *PySyntaxChecker {
	if pythonBin == "" {
		pythonBin = "python3"
	}
	return &PySyntaxChecker{PythonBin: pythonBin}
}

func (c *PySyntaxChecker) Check(ctx context.Context, code string) error {
	cmd := exec.CommandContext(ctx, c.PythonBin, "-c",
		"import ast, sys; ast.parse(sys.stdin.read())")
	cmd.Stdin = strings.NewReader(code)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := lastLine(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("%w: %s", ErrSyntax, detail)
	}
	return nil
}

// lastLine 取 traceback 的最后一行，形如 "SyntaxError: ..."
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

// Validate 按固定顺序执行全部校验：乱序检测、黑名单、语法
func Validate(ctx context.Context, code string, syntax SyntaxChecker) error {
	if err := CheckScrambled(code); err != nil {
		return err
	}
	if err := CheckIllegalImports(code); err != nil {
		return err
	}
	if syntax != nil {
		if err := syntax.Check(ctx, code); err != nil {
			return err
		}
	}
	return nil
}
