package main

import (
	"reflect"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"()", []string{}},
		{"int", []string{"int"}},
		{"int, java.lang.String", []string{"int", "java.lang.String"}},
		{"int,,long", []string{"int", "long"}},
	}
	for _, tc := range cases {
		got := splitArgs(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitArgs(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}
