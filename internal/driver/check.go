// Package driver orchestrates the per-file analysis pipeline: load, parse,
// bind, check. Files are independent units; a directory run fans them out
// over a worker pool and each file carries its own diagnostic bag.
package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"typefence/internal/diag"
	"typefence/internal/observ"
	"typefence/internal/pycat"
	"typefence/internal/pyparse"
	"typefence/internal/semantic"
	"typefence/internal/source"
	"typefence/internal/typingonly"
)

// Options configures a check run.
type Options struct {
	Settings   typingonly.Settings
	Categorize pycat.Options

	MaxDiagnostics   int
	Jobs             int
	IgnoreWarnings   bool
	WarningsAsErrors bool
	EnableTimings    bool

	// Include and Exclude are slash-style glob patterns matched against
	// paths relative to the checked directory. Empty Include means all.
	Include []string
	Exclude []string

	// Cache, when set, skips rebinding files whose content and settings
	// hashes match a stored entry. Cached results carry no fixes.
	Cache *DiskCache

	Observer PhaseObserver
	Events   chan<- Event

	// Computed once per run when Cache is set.
	settingsHash Digest
}

// FileResult holds the outcome of checking one file.
type FileResult struct {
	Path      string
	FileID    source.FileID
	Model     *semantic.Model
	Bag       *diag.Bag
	FromCache bool
	Timing    *observ.Report
}

// CheckFile loads and checks a single file with its own FileSet.
func CheckFile(ctx context.Context, path string, opts Options) (*source.FileSet, *FileResult, error) {
	fileSet := source.NewFileSet()
	cls, err := pycat.NewClassifier(opts.Categorize)
	if err != nil {
		return nil, nil, err
	}

	fileID, err := fileSet.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if opts.Cache != nil {
		opts.settingsHash = hashSettings(&opts.Settings, &opts.Categorize)
	}
	res := checkLoaded(ctx, fileSet, fileID, path, source.NewInterner(), cls, &opts)
	finishBag(res.Bag, &opts, res)
	return fileSet, res, nil
}

// CheckDir checks every matching *.py file under dir in parallel. Results
// come back in sorted path order regardless of completion order.
func CheckDir(ctx context.Context, dir string, opts Options) (*source.FileSet, []FileResult, error) {
	files, err := listPyFiles(dir, opts.Include, opts.Exclude)
	if err != nil {
		return nil, nil, err
	}

	fileSet := source.NewFileSetWithBase(dir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	cls, err := pycat.NewClassifier(opts.Categorize)
	if err != nil {
		return nil, nil, err
	}

	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		id, loadErr := fileSet.Load(path)
		if loadErr != nil {
			loadErrors[path] = loadErr
			continue
		}
		fileIDs[path] = id
	}

	interner := source.NewInterner()
	if opts.Cache != nil {
		opts.settingsHash = hashSettings(&opts.Settings, &opts.Categorize)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Indices are unique per goroutine, no mutex needed.
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			if loadErr, hadError := loadErrors[path]; hadError {
				bag := diag.NewBag(maxDiags(&opts))
				bag.Add(diag.Diagnostic{
					Severity: diag.SevError,
					Code:     diag.IOLoadFileError,
					Message:  "failed to load file: " + loadErr.Error(),
					Primary:  source.Span{},
				})
				results[i] = FileResult{Path: path, Bag: bag}
				emit(opts.Events, Event{File: path, Stage: StageParse, Status: StatusError})
				return nil
			}

			res := checkLoaded(gctx, fileSet, fileIDs[path], path, interner, cls, &opts)
			finishBag(res.Bag, &opts, res)
			results[i] = *res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}

// checkLoaded runs the parse, bind, and check stages for one loaded file.
func checkLoaded(
	ctx context.Context,
	fileSet *source.FileSet,
	fileID source.FileID,
	path string,
	interner *source.Interner,
	cls *pycat.Classifier,
	opts *Options,
) *FileResult {
	file := fileSet.Get(fileID)
	bag := diag.NewBag(maxDiags(opts))
	res := &FileResult{Path: path, FileID: fileID, Bag: bag}

	select {
	case <-ctx.Done():
		return res
	default:
	}

	if opts.Cache != nil {
		if diags, ok := opts.Cache.Get(file.Hash, opts.settingsHash); ok {
			for _, d := range diags {
				bag.Add(restoreDiagnostic(d, fileID))
			}
			res.FromCache = true
			emit(opts.Events, Event{File: path, Stage: StageCheck, Status: StatusDone})
			return res
		}
	}

	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}

	emit(opts.Events, Event{File: path, Stage: StageParse, Status: StatusWorking})
	bindIdx := beginPhase(timer, opts.Observer, "parse_bind")
	model, err := pyparse.Bind(fileSet, fileID, interner, pyparse.Options{
		RuntimeRequiredBaseClasses: opts.Settings.RuntimeRequiredBaseClasses,
		RuntimeRequiredDecorators:  opts.Settings.RuntimeRequiredDecorators,
	}, diag.BagReporter{Bag: bag})
	endPhase(timer, opts.Observer, bindIdx, "parse_bind", "")
	if err != nil {
		bag.Add(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.PrsSyntaxError,
			Message:  "failed to parse file: " + err.Error(),
			Primary:  source.Span{File: fileID},
		})
		emit(opts.Events, Event{File: path, Stage: StageParse, Status: StatusError})
		return res
	}
	res.Model = model

	emit(opts.Events, Event{File: path, Stage: StageCheck, Status: StatusWorking})
	checkIdx := beginPhase(timer, opts.Observer, "check")
	typingonly.Check(model, fileSet, cls, &opts.Settings, diag.BagReporter{Bag: bag})
	endPhase(timer, opts.Observer, checkIdx, "check", fmt.Sprintf("diags=%d", bag.Len()))

	if timer != nil {
		report := timer.Report()
		res.Timing = &report
	}

	if opts.Cache != nil {
		// Best effort; a failed cache write never fails the run.
		_ = opts.Cache.Put(file.Hash, opts.settingsHash, storeDiagnostics(bag.Items()))
	}

	status := StatusDone
	if bag.HasErrors() {
		status = StatusError
	}
	emit(opts.Events, Event{File: path, Stage: StageCheck, Status: status})
	return res
}

// finishBag applies severity filters and appends the timing record.
func finishBag(bag *diag.Bag, opts *Options, res *FileResult) {
	if bag == nil {
		return
	}
	if opts.IgnoreWarnings {
		bag.Filter(func(d *diag.Diagnostic) bool {
			return d.Severity >= diag.SevError
		})
	}
	if opts.WarningsAsErrors {
		bag.Transform(func(d *diag.Diagnostic) *diag.Diagnostic {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
			return d
		})
		bag.Sort()
	}
	if opts.EnableTimings && res.Timing != nil {
		appendTimingDiagnostic(bag, timingPayload{
			Kind:    "file",
			Path:    res.Path,
			TotalMS: res.Timing.TotalMS,
			Phases:  res.Timing.Phases,
		})
	}
}

// ListFiles returns the files a directory run would visit, in run order.
func ListFiles(dir string, include, exclude []string) ([]string, error) {
	return listPyFiles(dir, include, exclude)
}

// listPyFiles returns the sorted *.py files under dir, filtered by
// include/exclude globs over slash-style relative paths.
func listPyFiles(dir string, include, exclude []string) ([]string, error) {
	includes, err := compileGlobs(include)
	if err != nil {
		return nil, err
	}
	excludes, err := compileGlobs(exclude)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".py") {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if len(includes) > 0 && !matchAny(includes, rel) {
			return nil
		}
		if matchAny(excludes, rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("bad file pattern %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

func maxDiags(opts *Options) int {
	if opts.MaxDiagnostics <= 0 {
		return 1000
	}
	return opts.MaxDiagnostics
}

func emit(ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	ch <- ev
}

func beginPhase(timer *observ.Timer, obs PhaseObserver, name string) int {
	if obs != nil {
		obs(PhaseEvent{Name: name, Status: PhaseStart})
	}
	if timer == nil {
		return -1
	}
	return timer.Begin(name)
}

func endPhase(timer *observ.Timer, obs PhaseObserver, idx int, name, note string) {
	if timer != nil && idx >= 0 {
		timer.End(idx, note)
	}
	if obs != nil {
		obs(PhaseEvent{Name: name, Status: PhaseEnd})
	}
}
