package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairInsertsImport(t *testing.T) {
	code := "class Demo(Scene):\n    def construct(self):\n        pass"
	repaired := RepairCode(code)
	assert.True(t, strings.HasPrefix(repaired, "from manimlib import *"))
}

func TestRepairKeepsExistingImport(t *testing.T) {
	code := "from manimlib import *\n\nclass Demo(Scene):\n    def construct(self):\n        pass"
	repaired := RepairCode(code)
	assert.Equal(t, 1, strings.Count(repaired, "from manimlib import *"))
}

func TestRepairAlwaysRedraw(t *testing.T) {
	code := "from manimlib import *\n\nclass Demo(Scene):\n    def construct(self):\n        dot = always_redraw(make_dot)"
	repaired := RepairCode(code)
	assert.NotContains(t, repaired, "always_redraw")
	assert.Contains(t, repaired, "dot = make_dot()")
	assert.Contains(t, repaired, "dot.add_updater(lambda m: m.become(make_dot()))")
}

func TestRepairCreateAlias(t *testing.T) {
	code := "from manimlib import *\n\nclass Demo(Scene):\n    def construct(self):\n        self.play(Create(circle))"
	repaired := RepairCode(code)
	assert.Contains(t, repaired, "ShowCreation(circle)")
	assert.NotContains(t, repaired, "Create(circle)")
}

func TestRepairCreateAliasWordBoundary(t *testing.T) {
	// ShowCreation 和 CreateX 之类的标识符不能被误改
	code := "from manimlib import *\n\nclass Demo(Scene):\n    def construct(self):\n        self.play(ShowCreation(c))\n        CreateHelper()"
	repaired := RepairCode(code)
	assert.Contains(t, repaired, "ShowCreation(c)")
	assert.NotContains(t, repaired, "ShowCreationCreation")
	assert.Contains(t, repaired, "CreateHelper()")
}

func TestRepairColorAliases(t *testing.T) {
	code := "from manimlib import *\n\nclass Demo(Scene):\n    def construct(self):\n        c = Circle(color=LIGHT_BLUE)\n        d = Dot(color=CYAN)\n        e = Dot(color=DARK_RED)"
	repaired := RepairCode(code)
	assert.Contains(t, repaired, "color=BLUE_B")
	assert.Contains(t, repaired, "color=TEAL")
	assert.Contains(t, repaired, "color=RED_E")
	assert.NotContains(t, repaired, "LIGHT_BLUE")
	assert.NotContains(t, repaired, "CYAN")
}

func TestRepairDashes(t *testing.T) {
	code := "from manimlib import *\n\nclass Demo(Scene):\n    def construct(self):\n        t = Text(\"0–10 — intro\")"
	repaired := RepairCode(code)
	assert.Contains(t, repaired, `Text("0-10 - intro")`)
}

func TestRepairLatexText(t *testing.T) {
	code := `from manimlib import *

class Demo(Scene):
    def construct(self):
        t = Tex(r"\text{speed} = 5")`
	repaired := RepairCode(code)
	assert.Contains(t, repaired, `\mathrm{speed}`)
	assert.NotContains(t, repaired, `\text{`)
}

func TestRepairWrapsNakedFragment(t *testing.T) {
	code := "circle = Circle()\nself.play(ShowCreation(circle))"
	repaired := RepairCode(code)
	assert.Contains(t, repaired, "class GeneratedScene(Scene):")
	assert.Contains(t, repaired, "def construct(self):")
	assert.Contains(t, repaired, "    circle = Circle()")
}

func TestRepairDoesNotWrapExistingScene(t *testing.T) {
	code := "from manimlib import *\n\nclass MyScene(Scene):\n    def construct(self):\n        pass"
	repaired := RepairCode(code)
	assert.NotContains(t, repaired, "GeneratedScene")
}

func TestRepairIdempotent(t *testing.T) {
	inputs := []string{
		"circle = Circle()\nself.play(Create(circle))",
		"from manimlib import *\n\nclass Demo(Scene):\n    def construct(self):\n        self.play(Create(Circle(color=LIGHT_BLUE)))",
		"dot = always_redraw(make_dot)",
	}
	for _, code := range inputs {
		once := RepairCode(code)
		twice := RepairCode(once)
		assert.Equal(t, once, twice)
	}
}
