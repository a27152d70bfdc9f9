package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"dexgraph/internal/errors"
	"dexgraph/internal/graph"
	"dexgraph/internal/observability"
)

type callDirection int

const (
	callsInto callDirection = iota
	callsFrom
)

func (s *Store) FindCallers(ctx context.Context, q graph.CallersQuery) ([]graph.MethodCallPath, error) {
	q = q.WithDefaults()
	if q.Class == "" && q.Name == "" {
		return nil, errors.New(errors.CodeValidationError, "find_callers requires at least one of class or name")
	}

	ctx, span := observability.Tracer.Start(ctx, "sqlite.find_callers")
	defer span.End()
	timer := prometheus.NewTimer(observability.QueryDuration.WithLabelValues("find_callers"))
	defer timer.ObserveDuration()

	paths, err := s.callPaths(ctx, callsInto, q.Class, q.Name, q.Signature, q.MethodSource, q.Depth)
	if err != nil {
		return nil, err
	}
	if q.CallSource == "" {
		return paths, nil
	}

	// The call-site filter applies to the outermost caller of each chain.
	filtered := make([]graph.MethodCallPath, 0, len(paths))
	for _, p := range paths {
		if len(p.Path) > 0 && p.Path[0].Source == q.CallSource {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *Store) FindOutgoingCalls(ctx context.Context, q graph.OutgoingQuery) ([]graph.MethodCallPath, error) {
	q = q.WithDefaults()
	if q.Class == "" && q.Name == "" {
		return nil, errors.New(errors.CodeValidationError, "find_outgoing_calls requires at least one of class or name")
	}

	ctx, span := observability.Tracer.Start(ctx, "sqlite.find_outgoing_calls")
	defer span.End()
	timer := prometheus.NewTimer(observability.QueryDuration.WithLabelValues("find_outgoing_calls"))
	defer timer.ObserveDuration()

	return s.callPaths(ctx, callsFrom, q.Class, q.Name, q.Signature, q.Source, q.Depth)
}

func (s *Store) FindClassesImplementing(ctx context.Context, q graph.ImplementorsQuery) ([]graph.ClassSpec, error) {
	if q.Interface == "" {
		return nil, errors.New(errors.CodeValidationError, "find_classes_implementing requires an interface name")
	}

	ctx, span := observability.Tracer.Start(ctx, "sqlite.find_classes_implementing")
	defer span.End()
	timer := prometheus.NewTimer(observability.QueryDuration.WithLabelValues("find_classes_implementing"))
	defer timer.ObserveDuration()

	seedSQL := `SELECT c.id FROM classes AS c JOIN sources AS s ON s.id = c.source_id WHERE c.name = ?`
	args := []any{string(q.Interface)}
	if q.InterfaceSource != "" {
		seedSQL += ` AND s.name = ?`
		args = append(args, q.InterfaceSource)
	}

	implWhere := ""
	if q.ImplSource != "" {
		implWhere = `WHERE s.name = ?`
		args = append(args, q.ImplSource)
	}

	// Interface edges may point at other interfaces (interface extension),
	// and every implementor's subclasses implement it too. Inheritance
	// graphs are acyclic in well-formed input, so UNION ALL is safe inside
	// the walks.
	query := fmt.Sprintf(`WITH RECURSIVE
  search_classes(id) AS (%s),
  impl_classes(class_id, distance) AS (
    SELECT id, 0 FROM search_classes
    UNION ALL
    SELECT i.class, ic.distance + 1
    FROM interfaces AS i
    JOIN impl_classes AS ic ON ic.class_id = i.iface
  ),
  child_classes(class_id, distance) AS (
    SELECT class_id, 0 FROM impl_classes WHERE distance > 0
    UNION ALL
    SELECT sp.child, cc.distance + 1
    FROM supers AS sp
    JOIN child_classes AS cc ON cc.class_id = sp.parent
  ),
  all_classes(class_id) AS (
    SELECT class_id FROM impl_classes WHERE distance > 0
    UNION
    SELECT class_id FROM child_classes WHERE distance > 0
  )
SELECT DISTINCT s.name, c.name, c.access_flags
FROM all_classes AS ac
JOIN classes AS c ON c.id = ac.class_id
JOIN sources AS s ON s.id = c.source_id
%s
ORDER BY s.name, c.name`, seedSQL, implWhere)

	return s.classSpecRows(ctx, query, args...)
}

func (s *Store) FindClassesWithMethod(ctx context.Context, q graph.MethodQuery) ([]graph.ClassSpec, error) {
	if q.Name == "" {
		return nil, errors.New(errors.CodeValidationError, "find_classes_with_method requires a method name")
	}

	ctx, span := observability.Tracer.Start(ctx, "sqlite.find_classes_with_method")
	defer span.End()
	timer := prometheus.NewTimer(observability.QueryDuration.WithLabelValues("find_classes_with_method"))
	defer timer.ObserveDuration()

	query := `SELECT DISTINCT s.name, c.name, c.access_flags
FROM methods AS m
JOIN classes AS c ON c.id = m.class_id
JOIN sources AS s ON s.id = m.source_id
WHERE m.name = ?`
	args := []any{q.Name}
	if q.Args != nil {
		query += ` AND m.args = ?`
		args = append(args, strings.Join(q.Args, ","))
	}
	if q.Source != "" {
		query += ` AND s.name = ?`
		args = append(args, q.Source)
	}
	query += ` ORDER BY s.name, c.name`

	return s.classSpecRows(ctx, query, args...)
}

func (s *Store) GetAllSources(ctx context.Context) ([]string, error) {
	timer := prometheus.NewTimer(observability.QueryDuration.WithLabelValues("get_all_sources"))
	defer timer.ObserveDuration()

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sources ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeQueryError, "list sources")
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, errors.CodeQueryError, "scan source name")
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *Store) GetClassesFor(ctx context.Context, source string) ([]graph.ClassName, error) {
	timer := prometheus.NewTimer(observability.QueryDuration.WithLabelValues("get_classes_for"))
	defer timer.ObserveDuration()

	rows, err := s.db.QueryContext(ctx, `SELECT c.name
FROM classes AS c
JOIN sources AS s ON s.id = c.source_id
WHERE s.name = ?
ORDER BY c.name`, source)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeQueryError, "list classes for source"),
			errors.CtxSource, source)
	}
	defer rows.Close()

	out := make([]graph.ClassName, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, errors.CodeQueryError, "scan class name")
		}
		out = append(out, graph.ClassName(name))
	}
	return out, rows.Err()
}

func (s *Store) GetMethodsFor(ctx context.Context, source string) ([]graph.MethodSpec, error) {
	timer := prometheus.NewTimer(observability.QueryDuration.WithLabelValues("get_methods_for"))
	defer timer.ObserveDuration()

	rows, err := s.db.QueryContext(ctx, `SELECT c.name, m.name, m.args, m.ret, m.access_flags, s.name
FROM methods AS m
JOIN classes AS c ON c.id = m.class_id
JOIN sources AS s ON s.id = m.source_id
WHERE s.name = ?
ORDER BY c.name, m.name, m.args`, source)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeQueryError, "list methods for source"),
			errors.CtxSource, source)
	}
	defer rows.Close()

	out := make([]graph.MethodSpec, 0)
	for rows.Next() {
		var (
			spec  graph.MethodSpec
			class string
			flags uint32
		)
		if err := rows.Scan(&class, &spec.Name, &spec.Signature, &spec.Ret, &flags, &spec.Source); err != nil {
			return nil, errors.Wrap(err, errors.CodeQueryError, "scan method spec")
		}
		spec.Class = graph.ClassName(class)
		spec.AccessFlags = graph.AccessFlags(flags)
		out = append(out, spec)
	}
	return out, rows.Err()
}

// callPaths walks the calls table up to depth edges away from the seed
// methods. The walk uses UNION, not UNION ALL: call graphs are cyclic and
// the set semantics are what terminate the recursion.
func (s *Store) callPaths(ctx context.Context, dir callDirection, class graph.ClassName, name, signature, methodSource string, depth int) ([]graph.MethodCallPath, error) {
	seedSQL, seedArgs := methodSeedSQL(class, name, signature, methodSource)

	next, anchor := "c.caller", "c.callee"
	if dir == callsFrom {
		next, anchor = "c.callee", "c.caller"
	}

	query := fmt.Sprintf(`WITH RECURSIVE
  seeds(id) AS (%s),
  walk(method_id, distance, path) AS (
    SELECT id, 0, json_array(id) FROM seeds
    UNION
    SELECT %s, w.distance + 1, json_insert(w.path, '$[#]', %s)
    FROM calls AS c
    JOIN walk AS w ON w.method_id = %s
    WHERE w.distance < ?
  )
SELECT w.path, CAST(p.key AS INTEGER) AS idx, s.name, cl.name, m.name, m.args, m.ret, m.access_flags
FROM walk AS w
JOIN json_each(w.path) AS p
JOIN methods AS m ON m.id = CAST(p.value AS INTEGER)
JOIN sources AS s ON s.id = m.source_id
JOIN classes AS cl ON cl.id = m.class_id
WHERE w.distance > 0
ORDER BY w.path, idx`, seedSQL, next, next, anchor)

	args := append(seedArgs, depth)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeQueryError, "walk call graph")
	}
	defer rows.Close()

	paths, err := collectCallPaths(rows, dir == callsInto)
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func methodSeedSQL(class graph.ClassName, name, signature, source string) (string, []any) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 4)
	if class != "" {
		conds = append(conds, "c.name = ?")
		args = append(args, string(class))
	}
	if name != "" {
		conds = append(conds, "m.name = ?")
		args = append(args, name)
	}
	if signature != "" {
		conds = append(conds, "m.args = ?")
		args = append(args, signature)
	}
	if source != "" {
		conds = append(conds, "s.name = ?")
		args = append(args, source)
	}

	query := `SELECT m.id FROM methods AS m
JOIN classes AS c ON c.id = m.class_id
JOIN sources AS s ON s.id = m.source_id
WHERE ` + strings.Join(conds, " AND ")
	return query, args
}

// collectCallPaths groups traversal rows by their path column. Each path row
// arrives once per element, ordered by position; reverse flips caller walks
// so chains read outermost caller first.
func collectCallPaths(rows *sql.Rows, reverse bool) ([]graph.MethodCallPath, error) {
	var (
		out     []graph.MethodCallPath
		current string
		specs   []graph.MethodSpec
	)

	flush := func() {
		if len(specs) == 0 {
			return
		}
		if reverse {
			for i, j := 0, len(specs)-1; i < j; i, j = i+1, j-1 {
				specs[i], specs[j] = specs[j], specs[i]
			}
		}
		out = append(out, graph.MethodCallPath{
			Class:  specs[0].Class,
			Source: specs[0].Source,
			Path:   specs,
		})
		specs = nil
	}

	for rows.Next() {
		var (
			pathKey string
			idx     int
			spec    graph.MethodSpec
			class   string
			flags   uint32
		)
		if err := rows.Scan(&pathKey, &idx, &spec.Source, &class, &spec.Name, &spec.Signature, &spec.Ret, &flags); err != nil {
			return nil, errors.Wrap(err, errors.CodeQueryError, "scan call path row")
		}
		spec.Class = graph.ClassName(class)
		spec.AccessFlags = graph.AccessFlags(flags)

		if pathKey != current {
			flush()
			current = pathKey
		}
		specs = append(specs, spec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeQueryError, "iterate call path rows")
	}
	flush()

	if out == nil {
		out = make([]graph.MethodCallPath, 0)
	}
	return out, nil
}

func (s *Store) classSpecRows(ctx context.Context, query string, args ...any) ([]graph.ClassSpec, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeQueryError, "query class specs")
	}
	defer rows.Close()

	out := make([]graph.ClassSpec, 0)
	for rows.Next() {
		var (
			spec  graph.ClassSpec
			name  string
			flags uint32
		)
		if err := rows.Scan(&spec.Source, &name, &flags); err != nil {
			return nil, errors.Wrap(err, errors.CodeQueryError, "scan class spec")
		}
		spec.Name = graph.ClassName(name)
		spec.AccessFlags = graph.AccessFlags(flags)
		out = append(out, spec)
	}
	return out, rows.Err()
}
