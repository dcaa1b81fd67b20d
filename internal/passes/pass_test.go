package passes

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

func testModule() *ir.Module {
	m := ir.NewModule()
	f := m.NewFunc("f", types.Void)
	f.NewBlock("").NewRet(nil)
	return m
}

func TestRunEmpty(t *testing.T) {
	changed, err := Run(testModule(), nil, Config{})
	if err != nil {
		t.Fatalf("Run with no passes: %v", err)
	}
	if changed {
		t.Error("Run with no passes reported a change")
	}
}

func TestRunOrderAndChanged(t *testing.T) {
	var order []string
	pipeline := []Pass{
		{Name: "first", Fn: func(m *ir.Module) bool {
			order = append(order, "first")
			return false
		}},
		{Name: "second", Fn: func(m *ir.Module) bool {
			order = append(order, "second")
			return true
		}},
	}

	changed, err := Run(testModule(), pipeline, Config{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !changed {
		t.Error("change made by second pass was not reported")
	}
	if got := strings.Join(order, ","); got != "first,second" {
		t.Errorf("pass order = %q, want %q", got, "first,second")
	}
}

func TestRunWithVerify(t *testing.T) {
	m := testModule()
	pipeline := []Pass{
		{Name: "break", Fn: func(m *ir.Module) bool {
			// Dropping the terminator leaves the module invalid.
			m.Funcs[0].Blocks[0].Term = nil
			return true
		}},
	}

	if _, err := Run(m, pipeline, Config{}); err != nil {
		t.Fatalf("Run without verify: %v", err)
	}

	m = testModule()
	_, err := Run(m, pipeline, Config{Verify: true})
	if err == nil {
		t.Fatal("Run with verify accepted an invalid module")
	}
	if !strings.Contains(err.Error(), "verify after break") {
		t.Errorf("error = %q, want it to name the failing pass", err)
	}
}

func TestShouldDump(t *testing.T) {
	tests := []struct {
		pattern, name string
		want          bool
	}{
		{"*", "anything", true},
		{"lower", "lower", true},
		{"lower", "other", false},
		{"", "lower", false},
	}
	for _, tt := range tests {
		if got := shouldDump(tt.pattern, tt.name); got != tt.want {
			t.Errorf("shouldDump(%q, %q) = %v, want %v", tt.pattern, tt.name, got, tt.want)
		}
	}
}
