package cache

import (
	"regexp"
	"testing"
)

var hexKey = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestKeyShape(t *testing.T) {
	key := Key("get_all_sources", nil, nil)
	if !hexKey.MatchString(key) {
		t.Fatalf("expected 32 lowercase hex chars, got %q", key)
	}
}

func TestKeyDeterministic(t *testing.T) {
	a := Key("get_classes_for", []string{"Foo.java"}, nil)
	b := Key("get_classes_for", []string{"Foo.java"}, nil)
	if a != b {
		t.Fatalf("identical calls must share a key: %q vs %q", a, b)
	}
}

func TestKeyNamedOrderStable(t *testing.T) {
	a := Key("find_callers", nil, []KV{{"name", "query"}, {"depth", "5"}})
	b := Key("find_callers", nil, []KV{{"depth", "5"}, {"name", "query"}})
	if a != b {
		t.Fatalf("named-argument insertion order must not change the key: %q vs %q", a, b)
	}
}

func TestKeyArgumentSensitive(t *testing.T) {
	bare := Key("find_classes_with_method", []string{"run"}, nil)
	filtered := Key("find_classes_with_method", []string{"run"}, []KV{{"args", "[int]"}})
	if bare == filtered {
		t.Fatal("an optional filter value must produce a distinct key")
	}
}

func TestKeyMethodSensitive(t *testing.T) {
	a := Key("get_classes_for", []string{"Foo.java"}, nil)
	b := Key("get_methods_for", []string{"Foo.java"}, nil)
	if a == b {
		t.Fatal("different operations sharing argument values must not collide")
	}
}

func TestKeyNameSensitive(t *testing.T) {
	a := Key("find_callers", nil, []KV{{"method_source", "app.apk"}})
	b := Key("find_callers", nil, []KV{{"call_source", "app.apk"}})
	if a == b {
		t.Fatal("the same value under different argument names must not collide")
	}
}
