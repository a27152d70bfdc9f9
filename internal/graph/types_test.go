package graph

import "testing"

func TestClassNameSimple(t *testing.T) {
	cases := []struct {
		in   ClassName
		want string
	}{
		{"com.example.app.MainActivity", "MainActivity"},
		{"com.example.app.Outer$Inner", "Outer$Inner"},
		{"TopLevel", "TopLevel"},
	}
	for _, c := range cases {
		if got := c.in.Simple(); got != c.want {
			t.Errorf("Simple(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestClassNamePackage(t *testing.T) {
	if got := ClassName("com.example.Foo").Package(); got != "com.example" {
		t.Errorf("unexpected package: %q", got)
	}
	if got := ClassName("Foo").Package(); got != "" {
		t.Errorf("expected empty package for default-package class, got %q", got)
	}
}

func TestAccessFlags(t *testing.T) {
	f := FlagPublic | FlagAbstract | FlagInterface
	if !f.IsPublic() || !f.IsAbstract() || !f.IsInterface() {
		t.Error("expected public abstract interface flags to be set")
	}
	if f.IsStatic() {
		t.Error("static flag should not be set")
	}
}

func TestQueryDefaults(t *testing.T) {
	q := CallersQuery{Name: "query"}.WithDefaults()
	if q.Depth != DefaultDepth {
		t.Errorf("expected default depth %d, got %d", DefaultDepth, q.Depth)
	}

	explicit := CallersQuery{Name: "query", Depth: 2}.WithDefaults()
	if explicit.Depth != 2 {
		t.Errorf("explicit depth must be preserved, got %d", explicit.Depth)
	}

	o := OutgoingQuery{Class: "com.example.Foo"}.WithDefaults()
	if o.Depth != DefaultDepth {
		t.Errorf("expected default depth %d, got %d", DefaultDepth, o.Depth)
	}
}
