package graph

import "context"

// DefaultDepth bounds call traversals when a query does not set one.
// High depth values amplify noise as much as coverage.
const DefaultDepth = 5

// CallersQuery selects the methods whose callers are searched.
// At least one of Class or Name must be set; the GraphSource enforces this.
type CallersQuery struct {
	Class        ClassName
	Name         string
	Signature    string
	MethodSource string
	CallSource   string
	Depth        int
}

func (q CallersQuery) WithDefaults() CallersQuery {
	if q.Depth <= 0 {
		q.Depth = DefaultDepth
	}
	return q
}

// OutgoingQuery selects the methods whose outgoing calls are walked.
// At least one of Class or Name must be set.
type OutgoingQuery struct {
	Class     ClassName
	Name      string
	Signature string
	Source    string
	Depth     int
}

func (q OutgoingQuery) WithDefaults() OutgoingQuery {
	if q.Depth <= 0 {
		q.Depth = DefaultDepth
	}
	return q
}

// ImplementorsQuery finds the classes implementing Interface, directly or
// through a superclass. Both source filters are optional.
type ImplementorsQuery struct {
	Interface       ClassName
	InterfaceSource string
	ImplSource      string
}

// MethodQuery finds the classes defining a method called Name.
// Args, when non-nil, filters on the exact argument type list.
type MethodQuery struct {
	Name   string
	Args   []string
	Source string
}

// GraphSource is the read-only query surface of the call-graph database.
// Implementations must be deterministic and side-effect free: results for
// fixed inputs are replayed verbatim by the caching layer.
type GraphSource interface {
	FindCallers(ctx context.Context, q CallersQuery) ([]MethodCallPath, error)
	FindClassesImplementing(ctx context.Context, q ImplementorsQuery) ([]ClassSpec, error)
	FindOutgoingCalls(ctx context.Context, q OutgoingQuery) ([]MethodCallPath, error)
	FindClassesWithMethod(ctx context.Context, q MethodQuery) ([]ClassSpec, error)
	GetAllSources(ctx context.Context) ([]string, error)
	GetClassesFor(ctx context.Context, source string) ([]ClassName, error)
	GetMethodsFor(ctx context.Context, source string) ([]MethodSpec, error)
}
