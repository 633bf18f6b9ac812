package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"quill/internal/ast"
	"quill/internal/canon"
	"quill/internal/diag"
	"quill/internal/observ"
	"quill/internal/parser"
	"quill/internal/project"
	"quill/internal/resolver"
	"quill/internal/safety"
	"quill/internal/sema"
	"quill/internal/source"
)

// Options configures one pipeline run.
type Options struct {
	// MaxDiagnostics caps the merged bag; zero means unlimited.
	MaxDiagnostics int
	// Jobs bounds the parallel parse workers; zero uses GOMAXPROCS.
	Jobs int
	// Manifest, when present, supplies dependency roots, the language
	// constraint and the strict flag.
	Manifest *project.Manifest
	// Strict enables the architectural checks even without a manifest.
	Strict bool
	// Timings appends an info diagnostic with per-stage durations.
	Timings bool
	// Cache, when non-nil, records per-module payloads after the run.
	Cache *DiskCache
}

// CheckResult is the output of the full front-end pipeline. On a disk
// cache hit the diagnostics are replayed from the previous run and Res,
// Sem and Program are nil; ModuleCount is set either way.
type CheckResult struct {
	FileSet     *source.FileSet
	Strings     *source.Interner
	Bag         *diag.Bag
	Res         *resolver.Result
	Sem         *sema.Result
	Program     *canon.Program
	ModuleCount int
	Timing      observ.Report
}

type parsedRoot struct {
	file    *source.File
	builder *ast.Builder
	ast     ast.FileID
	bag     *diag.Bag
}

// Check runs the whole pipeline over the root files: parallel lex/parse,
// then serialized resolution, type checking, safety checking and
// canonical assembly. Imports discovered during resolution are parsed
// serially by the resolver itself.
func Check(ctx context.Context, paths []string, opts Options) (*CheckResult, error) {
	timer := observ.NewTimer()
	baseDir := baseDirFor(paths, opts.Manifest)
	runKey := runCacheKey(paths, opts)
	if opts.Cache != nil {
		if result, ok := replayRun(opts.Cache, runKey, baseDir, opts, timer); ok {
			result.Timing = timer.Report()
			if opts.Timings {
				appendTimingDiagnostic(result.Bag, timingPayload{
					Kind:    "pipeline",
					TotalMS: result.Timing.TotalMS,
					Phases:  result.Timing.Phases,
				})
			}
			return result, nil
		}
	}

	fileSet := source.NewFileSetWithBase(baseDir)
	interner := source.NewInterner()
	bag := diag.NewBag(opts.MaxDiagnostics)

	if opts.Manifest != nil {
		if err := opts.Manifest.CheckLanguage(); err != nil {
			bag.Add(diag.NewError(diag.PrjLanguageVersion, source.Span{}, err.Error()))
		}
	}

	phase := timer.Begin("parse")
	roots, err := parseRoots(ctx, fileSet, interner, paths, opts)
	timer.End(phase, pluralFiles(len(roots)))
	if err != nil {
		return nil, err
	}
	for _, root := range roots {
		bag.Merge(root.bag)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	phase = timer.Begin("resolve")
	r := resolver.New(fileSet, interner, resolver.Options{
		Reporter:  diag.BagReporter{Bag: bag},
		Manifest:  opts.Manifest,
		MaxErrors: opts.MaxDiagnostics,
	})
	for _, root := range roots {
		r.AddParsed(root.file, root.builder, root.ast)
	}
	res := r.Finish()
	timer.End(phase, pluralModules(len(res.Modules)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	phase = timer.Begin("typecheck")
	sem := sema.Check(res, interner, sema.Options{Reporter: diag.BagReporter{Bag: bag}})
	timer.End(phase, "")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	strict := opts.Strict
	if opts.Manifest != nil && opts.Manifest.Package.Strict {
		strict = true
	}
	phase = timer.Begin("safety")
	safety.Check(res, sem, interner, safety.Options{
		Reporter: diag.BagReporter{Bag: bag},
		Strict:   strict,
	})
	timer.End(phase, "")

	phase = timer.Begin("canon")
	program := canon.Build(res, sem, interner)
	timer.End(phase, "")

	bag.Sort()
	if opts.Cache != nil {
		storeModules(opts.Cache, res, interner, bag.HasErrors())
		storeRun(opts.Cache, runKey, fileSet, opts.Manifest, len(res.Modules), bag)
	}

	report := timer.Report()
	if opts.Timings {
		appendTimingDiagnostic(bag, timingPayload{
			Kind:    "pipeline",
			TotalMS: report.TotalMS,
			Phases:  report.Phases,
		})
	}

	return &CheckResult{
		FileSet:     fileSet,
		Strings:     interner,
		Bag:         bag,
		Res:         res,
		Sem:         sem,
		Program:     program,
		ModuleCount: len(res.Modules),
		Timing:      report,
	}, nil
}

// parseRoots loads the root files serially, then parses them in parallel
// against the shared interner. Each worker owns its builder and bag.
func parseRoots(ctx context.Context, fileSet *source.FileSet, interner *source.Interner,
	paths []string, opts Options) ([]parsedRoot, error) {
	roots := make([]parsedRoot, len(paths))
	for i, path := range paths {
		// Absolute paths keep the resolver's import deduplication exact.
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		roots[i].bag = diag.NewBag(opts.MaxDiagnostics)
		fileID, err := fileSet.Load(path)
		if err != nil {
			roots[i].bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{},
				"cannot read "+path+": "+err.Error()))
			continue
		}
		roots[i].file = fileSet.Get(fileID)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i := range roots {
		root := &roots[i]
		if root.file == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			root.builder = ast.NewBuilder(interner, ast.DefaultHints())
			p := parser.New(root.file, root.builder, parser.Options{
				Reporter:  diag.BagReporter{Bag: root.bag},
				MaxErrors: opts.MaxDiagnostics,
			})
			root.ast = p.ParseFile()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return roots, err
	}

	out := roots[:0]
	for _, root := range roots {
		if root.file != nil || root.bag.Len() > 0 {
			out = append(out, root)
		}
	}
	return out, nil
}

// ListSourceFiles returns every .ql file under dir, sorted for
// deterministic pipeline order.
func ListSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".ql") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func baseDirFor(paths []string, manifest *project.Manifest) string {
	if manifest != nil && manifest.Root != "" {
		return manifest.Root
	}
	if len(paths) > 0 {
		if abs, err := filepath.Abs(filepath.Dir(paths[0])); err == nil {
			return abs
		}
	}
	return ""
}

func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}

func pluralModules(n int) string {
	if n == 1 {
		return "1 module"
	}
	return fmt.Sprintf("%d modules", n)
}
