package graph

import "strings"

// AccessFlags carries the JVM access modifier bits of a class or method.
type AccessFlags uint32

const (
	FlagPublic    AccessFlags = 0x0001
	FlagPrivate   AccessFlags = 0x0002
	FlagProtected AccessFlags = 0x0004
	FlagStatic    AccessFlags = 0x0008
	FlagFinal     AccessFlags = 0x0010
	FlagInterface AccessFlags = 0x0200
	FlagAbstract  AccessFlags = 0x0400
)

func (f AccessFlags) IsPublic() bool    { return f&FlagPublic != 0 }
func (f AccessFlags) IsStatic() bool    { return f&FlagStatic != 0 }
func (f AccessFlags) IsInterface() bool { return f&FlagInterface != 0 }
func (f AccessFlags) IsAbstract() bool  { return f&FlagAbstract != 0 }

// ClassName is a fully qualified dotted Java class name,
// e.g. "com.example.app.MainActivity".
type ClassName string

// Simple returns the class name without its package,
// keeping any "$Inner" suffix.
func (c ClassName) Simple() string {
	s := string(c)
	if idx := strings.LastIndex(s, "."); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// Package returns the package portion of the name, or "" for the
// default package.
func (c ClassName) Package() string {
	s := string(c)
	if idx := strings.LastIndex(s, "."); idx >= 0 {
		return s[:idx]
	}
	return ""
}

func (c ClassName) String() string { return string(c) }

// ClassSpec identifies one class together with the source that defines it.
type ClassSpec struct {
	Name        ClassName   `json:"name"`
	Source      string      `json:"source"`
	AccessFlags AccessFlags `json:"access_flags"`
}

// MethodSpec identifies one method. Signature is the argument list portion
// of the descriptor; Ret is the return type.
type MethodSpec struct {
	Class       ClassName   `json:"class"`
	Name        string      `json:"name"`
	Signature   string      `json:"signature"`
	Ret         string      `json:"ret"`
	Source      string      `json:"source"`
	AccessFlags AccessFlags `json:"access_flags"`
}

// MethodCallPath is one call chain discovered by a traversal. Path is ordered
// from the nearest call toward the traversal boundary; Class and Source
// identify the endpoint the chain was anchored on.
type MethodCallPath struct {
	Class  ClassName    `json:"class"`
	Source string       `json:"source"`
	Path   []MethodSpec `json:"path"`
}
