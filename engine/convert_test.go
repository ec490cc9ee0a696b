package engine

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"
	"unsafe"

	"github.com/dop251/goja"

	"github.com/wippyai/script-runtime/errors"
)

func TestToValue_Accepts(t *testing.T) {
	type inner struct {
		Tags []string
	}
	type outer struct {
		Inner   *inner
		Scores  map[string]float64
		private chan int
	}
	self := &struct{ Next any }{}
	self.Next = self
	cyclicMap := map[string]any{}
	cyclicMap["a"], cyclicMap["b"], cyclicMap["c"] = cyclicMap, cyclicMap, cyclicMap
	cyclicSlice := make([]any, 3)
	cyclicSlice[0], cyclicSlice[1], cyclicSlice[2] = cyclicSlice, cyclicSlice, cyclicMap

	tests := []struct {
		name  string
		value any
	}{
		{"nil", nil},
		{"int", 42},
		{"string", "hi"},
		{"bool", true},
		{"float", 1.5},
		{"slice", []any{1, "two", 3.0}},
		{"map", map[string]any{"a": 1, "b": []int{1, 2}}},
		{"int keyed map", map[int]string{1: "one"}},
		{"nested struct", outer{Inner: &inner{Tags: []string{"x"}}, Scores: map[string]float64{"a": 1}}},
		{"unexported chan field ignored", outer{private: make(chan int)}},
		{"nil pointer", (*inner)(nil)},
		{"func", func(a, b int) int { return a + b }},
		{"cycle", self},
		{"cyclic map", cyclicMap},
		{"cyclic slice", cyclicSlice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := goja.New()
			v, err := ToValue(vm, "arg", tt.value)
			if err != nil {
				t.Fatalf("ToValue: %v", err)
			}
			if v == nil {
				t.Fatal("ToValue returned nil value")
			}
		})
	}
}

func TestToValue_Rejects(t *testing.T) {
	var x int
	tests := []struct {
		name   string
		value  any
		path   string
		goType string
	}{
		{"chan", make(chan int), "arg", "chan int"},
		{"complex", complex(1, 2), "arg", "complex128"},
		{"unsafe pointer", unsafe.Pointer(&x), "arg", "unsafe.Pointer"},
		{"chan in slice", []any{1, make(chan bool)}, "arg.[1]", "chan bool"},
		{"chan in map", map[string]any{"ok": 1, "bad": make(chan int)}, "arg.bad", "chan int"},
		{"complex in struct", struct{ Z complex64 }{}, "arg.Z", "complex64"},
		{"struct keyed map", map[struct{ K int }]int{{1}: 1}, "arg", "map[struct { K int }]int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToValue(goja.New(), "arg", tt.value)
			if !stderrors.Is(err, errors.ErrBindingConversion) {
				t.Fatalf("err = %v, want binding conversion error", err)
			}
			var rtErr *errors.Error
			if !stderrors.As(err, &rtErr) {
				t.Fatalf("err %T is not *errors.Error", err)
			}
			if got := strings.Join(rtErr.Path, "."); got != tt.path {
				t.Errorf("Path = %q, want %q", got, tt.path)
			}
			if rtErr.GoType != tt.goType {
				t.Errorf("GoType = %q, want %q", rtErr.GoType, tt.goType)
			}
		})
	}
}

func TestToValue_CyclicMapFinishes(t *testing.T) {
	m := map[string]any{}
	for _, k := range []string{"a", "b", "c", "d"} {
		m[k] = m
	}

	done := make(chan error, 1)
	go func() {
		_, err := ToValue(goja.New(), "m", m)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ToValue: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ToValue did not return for a self-referential map")
	}
}

func TestToValue_CyclicMapStillRejectsBadLeaf(t *testing.T) {
	m := map[string]any{}
	m["self"] = m
	m["z"] = make(chan int)

	_, err := ToValue(goja.New(), "m", m)
	if !stderrors.Is(err, errors.ErrBindingConversion) {
		t.Fatalf("err = %v, want binding conversion error", err)
	}
}

func TestToValue_InvalidName(t *testing.T) {
	for _, name := range []string{"", "1x", "a-b", "has space"} {
		t.Run(name, func(t *testing.T) {
			_, err := ToValue(goja.New(), name, 1)
			if !stderrors.Is(err, errors.ErrBindingConversion) {
				t.Errorf("err = %v, want binding conversion error", err)
			}
		})
	}
}

func TestToValue_PassesGojaValues(t *testing.T) {
	vm := goja.New()
	in := vm.ToValue("already converted")

	out, err := ToValue(vm, "v", in)
	if err != nil {
		t.Fatalf("ToValue: %v", err)
	}
	if out != in {
		t.Error("goja.Value should be passed through unchanged")
	}
}
