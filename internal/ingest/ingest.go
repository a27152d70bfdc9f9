// Package ingest walks a Java source tree and loads its classes, methods,
// call edges and inheritance edges into the graph database.
package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"dexgraph/internal/errors"
	"dexgraph/internal/graph"
	"dexgraph/internal/graph/sqlite"
	"dexgraph/internal/observability"
)

type Options struct {
	// Excludes are glob patterns matched against the path relative to the
	// ingest root, with / as separator.
	Excludes []string
	// FilesPerSecond throttles file reads. Zero disables throttling.
	FilesPerSecond float64
	Burst          int
}

type Stats struct {
	RunID   string
	Source  string
	Files   int
	Classes int
	Methods int
	Calls   int
	Skipped int
}

type Ingestor struct {
	store     *sqlite.Store
	extractor *JavaExtractor
	excludes  []glob.Glob
	limiter   *rate.Limiter
}

func New(store *sqlite.Store, opts Options) (*Ingestor, error) {
	in := &Ingestor{
		store:     store,
		extractor: NewJavaExtractor(),
	}
	for _, pattern := range opts.Excludes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "invalid exclude pattern "+pattern)
		}
		in.excludes = append(in.excludes, g)
	}
	if opts.FilesPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		in.limiter = rate.NewLimiter(rate.Limit(opts.FilesPerSecond), burst)
	}
	return in, nil
}

// Run ingests every Java file under root and stores the result under the
// given source name. The whole run commits as one transaction.
func (in *Ingestor) Run(ctx context.Context, source, root string) (Stats, error) {
	ctx, span := observability.Tracer.Start(ctx, "ingest.run",
		trace.WithAttributes(
			attribute.String("ingest.source", source),
			attribute.String("ingest.root", root),
		))
	defer span.End()

	timer := prometheus.NewTimer(observability.IngestDuration)
	defer timer.ObserveDuration()

	stats := Stats{
		RunID:  uuid.NewString(),
		Source: source,
	}
	startedAt := time.Now()

	paths, err := in.collectFiles(root)
	if err != nil {
		return stats, err
	}

	var parsed []*FileFacts
	for _, path := range paths {
		if in.limiter != nil {
			if err := in.limiter.Wait(ctx); err != nil {
				return stats, errors.Wrap(err, errors.CodeInternal, "ingest throttle wait")
			}
		}
		content, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("skipping unreadable file", "path", path, "error", err)
			observability.IngestErrorsTotal.Inc()
			stats.Skipped++
			continue
		}
		facts, err := in.extractor.Extract(path, content)
		if err != nil {
			slog.Warn("skipping unparseable file", "path", path, "error", err)
			observability.IngestErrorsTotal.Inc()
			stats.Skipped++
			continue
		}
		observability.IngestFilesTotal.Inc()
		stats.Files++
		parsed = append(parsed, facts)
	}

	if err := in.link(ctx, source, parsed, &stats, startedAt); err != nil {
		return stats, err
	}

	span.SetAttributes(
		attribute.Int("ingest.files", stats.Files),
		attribute.Int("ingest.classes", stats.Classes),
	)
	slog.Info("ingest complete",
		"run_id", stats.RunID,
		"source", source,
		"files", stats.Files,
		"classes", stats.Classes,
		"methods", stats.Methods,
		"calls", stats.Calls,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

func (in *Ingestor) collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			for _, g := range in.excludes {
				if rel != "." && g.Match(rel) {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !strings.HasSuffix(path, ".java") {
			return nil
		}
		for _, g := range in.excludes {
			if g.Match(rel) {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeStorageError, "walk ingest root"),
			errors.CtxPath, root)
	}
	return files, nil
}

// link writes all parsed facts in one transaction: classes and methods
// first, then inheritance and call edges once every target id is known.
func (in *Ingestor) link(ctx context.Context, source string, parsed []*FileFacts, stats *Stats, startedAt time.Time) error {
	batch, err := in.store.BeginBatch(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = batch.Rollback()
		}
	}()

	srcID, err := batch.EnsureSource(source)
	if err != nil {
		return err
	}
	if err := batch.ClearSource(srcID); err != nil {
		return err
	}

	classIDs := make(map[graph.ClassName]int64)
	methodIDs := make(map[string][]int64)
	type pendingCalls struct {
		callerID int64
		callees  []string
	}
	var pending []pendingCalls

	for _, facts := range parsed {
		for _, class := range facts.Classes {
			classID, err := batch.EnsureClass(srcID, class.Name, class.Flags)
			if err != nil {
				return err
			}
			classIDs[class.Name] = classID
			stats.Classes++

			for _, m := range class.Methods {
				id, err := batch.AddMethod(srcID, classID, m.Name, strings.Join(m.Args, ","), m.Ret, m.Flags)
				if err != nil {
					return err
				}
				methodIDs[m.Name] = append(methodIDs[m.Name], id)
				stats.Methods++
				if len(m.Calls) > 0 {
					pending = append(pending, pendingCalls{callerID: id, callees: m.Calls})
				}
			}
		}
	}

	resolveClass := func(pkg, name string) (int64, error) {
		candidate := graph.ClassName(name)
		if !strings.Contains(name, ".") && pkg != "" {
			qualified := graph.ClassName(pkg + "." + name)
			if id, ok := classIDs[qualified]; ok {
				return id, nil
			}
		}
		if id, ok := classIDs[candidate]; ok {
			return id, nil
		}
		// Referenced but not defined in this tree. Record a placeholder so
		// the edge survives; a later ingest of the defining source fills in
		// the flags.
		id, err := batch.EnsureClass(srcID, candidate, 0)
		if err != nil {
			return 0, err
		}
		classIDs[candidate] = id
		return id, nil
	}

	for _, facts := range parsed {
		for _, class := range facts.Classes {
			classID := classIDs[class.Name]
			if class.Super != "" {
				parentID, err := resolveClass(facts.Package, class.Super)
				if err != nil {
					return err
				}
				if err := batch.AddSuper(parentID, classID); err != nil {
					return err
				}
			}
			for _, iface := range class.Interfaces {
				ifaceID, err := resolveClass(facts.Package, iface)
				if err != nil {
					return err
				}
				if err := batch.AddInterface(ifaceID, classID); err != nil {
					return err
				}
			}
		}
	}

	// Call edges resolve by callee name within the source. Same-named
	// methods on other classes all become candidate targets, matching how
	// an unresolved invocation reads in the dex.
	for _, pc := range pending {
		for _, callee := range pc.callees {
			for _, calleeID := range methodIDs[callee] {
				if err := batch.AddCall(pc.callerID, calleeID); err != nil {
					return err
				}
				stats.Calls++
			}
		}
	}

	if err := batch.RecordRun(sqlite.RunStats{
		ID:        stats.RunID,
		Source:    source,
		StartedAt: startedAt,
		Files:     stats.Files,
		Classes:   stats.Classes,
		Methods:   stats.Methods,
		Calls:     stats.Calls,
	}); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
