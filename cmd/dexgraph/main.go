package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dexgraph/internal/config"
	"dexgraph/internal/graph"
)

var (
	configPath = flag.String("config", "", "Path to config file (default: dexgraph.toml in the project root)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
	noCache    = flag.Bool("no-cache", false, "Bypass the on-disk query cache")

	ingestSource = flag.String("ingest", "", "Ingest a source tree: dexgraph -ingest <source-name> <root-dir>")
	removeSource = flag.String("remove-source", "", "Remove one source and everything it owns from the graph")
	wipe         = flag.Bool("wipe", false, "Remove every row from the graph database")

	callers      = flag.String("callers", "", "Find call chains leading into a method")
	outgoing     = flag.String("outgoing", "", "Find call chains leading out of a method")
	implementing = flag.String("implementing", "", "Find classes implementing an interface")
	withMethod   = flag.String("with-method", "", "Find classes defining a method")
	sources      = flag.Bool("sources", false, "List every ingested source")
	classes      = flag.String("classes", "", "List the classes of one source")
	methods      = flag.String("methods", "", "List the methods of one source")

	class        = flag.String("class", "", "Class filter for -callers / -outgoing")
	signature    = flag.String("signature", "", "Argument-list filter for -callers / -outgoing")
	methodSource = flag.String("method-source", "", "Source owning the target method (-callers)")
	callSource   = flag.String("call-source", "", "Source the outermost caller must live in (-callers)")
	source       = flag.String("source", "", "Source filter for -outgoing / -with-method")
	depth        = flag.Int("depth", 0, "Traversal depth (default 5)")
	argsFilter   = flag.String("args", "", "Comma-separated argument type filter for -with-method")
	ifaceSource  = flag.String("iface-source", "", "Source owning the interface (-implementing)")
	implSource   = flag.String("impl-source", "", "Source the implementors must live in (-implementing)")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("dexgraph v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to resolve working directory", "error", err)
		os.Exit(1)
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve paths", "error", err)
		os.Exit(1)
	}

	app, err := NewApp(cfg, paths, *noCache)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	ctx := context.Background()
	if err := run(ctx, app); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.Load(*configPath)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := config.DetectProjectRoot([]string{cwd})
	if err != nil {
		return nil, err
	}
	candidate := filepath.Join(root, config.DefaultConfigFile)
	if _, err := os.Stat(candidate); err == nil {
		return config.Load(candidate)
	}
	return config.Default(), nil
}

func run(ctx context.Context, app *App) error {
	switch {
	case *ingestSource != "":
		if flag.NArg() != 1 {
			return fmt.Errorf("ingest mode requires one root directory: dexgraph -ingest <source-name> <root-dir>")
		}
		return app.Ingest(ctx, *ingestSource, flag.Arg(0))

	case *removeSource != "":
		return app.RemoveSource(ctx, *removeSource)

	case *wipe:
		return app.Wipe(ctx)

	case *callers != "":
		return app.Print(app.Graph.FindCallers(ctx, graph.CallersQuery{
			Class:        graph.ClassName(*class),
			Name:         *callers,
			Signature:    *signature,
			MethodSource: *methodSource,
			CallSource:   *callSource,
			Depth:        *depth,
		}))

	case *outgoing != "":
		return app.Print(app.Graph.FindOutgoingCalls(ctx, graph.OutgoingQuery{
			Class:     graph.ClassName(*class),
			Name:      *outgoing,
			Signature: *signature,
			Source:    *source,
			Depth:     *depth,
		}))

	case *implementing != "":
		return app.Print(app.Graph.FindClassesImplementing(ctx, graph.ImplementorsQuery{
			Interface:       graph.ClassName(*implementing),
			InterfaceSource: *ifaceSource,
			ImplSource:      *implSource,
		}))

	case *withMethod != "":
		return app.Print(app.Graph.FindClassesWithMethod(ctx, graph.MethodQuery{
			Name:   *withMethod,
			Args:   splitArgs(*argsFilter),
			Source: *source,
		}))

	case *sources:
		return app.Print(app.Graph.GetAllSources(ctx))

	case *classes != "":
		return app.Print(app.Graph.GetClassesFor(ctx, *classes))

	case *methods != "":
		return app.Print(app.Graph.GetMethodsFor(ctx, *methods))
	}

	flag.Usage()
	return fmt.Errorf("no mode selected")
}

// splitArgs keeps nil for an unset filter and returns an empty slice for
// "()", which matches methods taking no arguments.
func splitArgs(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if raw == "()" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
