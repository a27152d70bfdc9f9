// Package cached wraps any graph.GraphSource with transparent disk-backed
// memoization. Every query result is stored under a key derived from the
// operation and its arguments; a later identical call is served from the
// store without touching the database. Hit and miss are indistinguishable
// to callers.
package cached

import (
	"context"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"dexgraph/internal/cache"
	"dexgraph/internal/graph"
	"dexgraph/internal/observability"
)

// Operation identifiers mixed into every cache key. Renaming one orphans its
// existing entries, so these are fixed independently of the Go method names.
const (
	methodFindCallers             = "find_callers"
	methodFindClassesImplementing = "find_classes_implementing"
	methodFindOutgoingCalls       = "find_outgoing_calls"
	methodFindClassesWithMethod   = "find_classes_with_method"
	methodGetAllSources           = "get_all_sources"
	methodGetClassesFor           = "get_classes_for"
	methodGetMethodsFor           = "get_methods_for"
)

// Graph memoizes a GraphSource through a cache.Store.
type Graph struct {
	source graph.GraphSource
	store  cache.Store
}

var _ graph.GraphSource = (*Graph)(nil)

func New(source graph.GraphSource, store cache.Store) *Graph {
	return &Graph{source: source, store: store}
}

// memoized is the single caching primitive shared by every operation.
// Failed upstream calls are never stored; storage and decode errors
// propagate unchanged with no fallback to a direct call.
func memoized[T any](ctx context.Context, g *Graph, method string, positional []string, named []cache.KV, call func(context.Context) (T, error)) (T, error) {
	var zero T

	ctx, span := observability.Tracer.Start(ctx, "cached."+method)
	defer span.End()

	key := cache.Key(method, positional, named)
	span.SetAttributes(attribute.String("cache.key", key))

	blob, ok, err := g.store.Get(key)
	if err != nil {
		return zero, err
	}
	if ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		observability.CacheHitsTotal.WithLabelValues(method).Inc()
		return decodeEntry[T](method, key, blob)
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))
	observability.CacheMissesTotal.WithLabelValues(method).Inc()

	res, err := call(ctx)
	if err != nil {
		return zero, err
	}

	entry, err := encodeEntry(method, key, res)
	if err != nil {
		return zero, err
	}
	observability.CacheEntryBytes.Observe(float64(len(entry)))
	if err := g.store.Put(key, entry); err != nil {
		return zero, err
	}
	return res, nil
}

func (g *Graph) FindCallers(ctx context.Context, q graph.CallersQuery) ([]graph.MethodCallPath, error) {
	q = q.WithDefaults()
	named := []cache.KV{
		{Name: "class", Value: q.Class.String()},
		{Name: "name", Value: q.Name},
		{Name: "signature", Value: q.Signature},
		{Name: "method_source", Value: q.MethodSource},
		{Name: "call_source", Value: q.CallSource},
		{Name: "depth", Value: strconv.Itoa(q.Depth)},
	}
	return memoized(ctx, g, methodFindCallers, nil, named, func(ctx context.Context) ([]graph.MethodCallPath, error) {
		return g.source.FindCallers(ctx, q)
	})
}

func (g *Graph) FindClassesImplementing(ctx context.Context, q graph.ImplementorsQuery) ([]graph.ClassSpec, error) {
	named := []cache.KV{
		{Name: "iface_source", Value: q.InterfaceSource},
		{Name: "impl_source", Value: q.ImplSource},
	}
	return memoized(ctx, g, methodFindClassesImplementing, []string{q.Interface.String()}, named, func(ctx context.Context) ([]graph.ClassSpec, error) {
		return g.source.FindClassesImplementing(ctx, q)
	})
}

func (g *Graph) FindOutgoingCalls(ctx context.Context, q graph.OutgoingQuery) ([]graph.MethodCallPath, error) {
	q = q.WithDefaults()
	named := []cache.KV{
		{Name: "class", Value: q.Class.String()},
		{Name: "name", Value: q.Name},
		{Name: "signature", Value: q.Signature},
		{Name: "source", Value: q.Source},
		{Name: "depth", Value: strconv.Itoa(q.Depth)},
	}
	return memoized(ctx, g, methodFindOutgoingCalls, nil, named, func(ctx context.Context) ([]graph.MethodCallPath, error) {
		return g.source.FindOutgoingCalls(ctx, q)
	})
}

func (g *Graph) FindClassesWithMethod(ctx context.Context, q graph.MethodQuery) ([]graph.ClassSpec, error) {
	named := []cache.KV{
		{Name: "args", Value: argsValue(q.Args)},
		{Name: "source", Value: q.Source},
	}
	return memoized(ctx, g, methodFindClassesWithMethod, []string{q.Name}, named, func(ctx context.Context) ([]graph.ClassSpec, error) {
		return g.source.FindClassesWithMethod(ctx, q)
	})
}

func (g *Graph) GetAllSources(ctx context.Context) ([]string, error) {
	// No arguments: every call shares one cache slot.
	return memoized(ctx, g, methodGetAllSources, nil, nil, func(ctx context.Context) ([]string, error) {
		return g.source.GetAllSources(ctx)
	})
}

func (g *Graph) GetClassesFor(ctx context.Context, source string) ([]graph.ClassName, error) {
	return memoized(ctx, g, methodGetClassesFor, []string{source}, nil, func(ctx context.Context) ([]graph.ClassName, error) {
		return g.source.GetClassesFor(ctx, source)
	})
}

func (g *Graph) GetMethodsFor(ctx context.Context, source string) ([]graph.MethodSpec, error) {
	return memoized(ctx, g, methodGetMethodsFor, []string{source}, nil, func(ctx context.Context) ([]graph.MethodSpec, error) {
		return g.source.GetMethodsFor(ctx, source)
	})
}

// argsValue renders an optional argument-type filter for keying. A nil
// filter and an empty filter are distinct values.
func argsValue(args []string) string {
	if args == nil {
		return ""
	}
	return "[" + strings.Join(args, ",") + "]"
}
