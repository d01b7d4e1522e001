package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"undertow/internal/source"
)

// UnitExt is the declaration-script file extension.
const UnitExt = ".uw"

// ListUnits returns the sorted unit script paths under dir.
func ListUnits(dir string) ([]string, error) {
	return listUnitFiles(dir)
}

// listUnitFiles returns the sorted list of unit scripts under dir.
func listUnitFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, UnitExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Deterministic unit order regardless of walk order.
	sort.Strings(files)
	return files, nil
}

// LowerDir lowers every unit script under dir, jobs units at a time.
// Each result slot matches the sorted file list; a unit that failed to
// load still yields a result carrying the error in its bag. The
// returned error covers infrastructure failures and cancellation only.
func LowerDir(ctx context.Context, dir string, jobs int, opts Options) (*source.FileSet, []*UnitResult, error) {
	files, err := listUnitFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	fileSet := source.NewFileSet()
	fileSet.SetBaseDir(dir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	ids := make(map[string]source.FileID, len(files))
	loadErrs := make(map[string]error, len(files))
	for _, path := range files {
		id, err := fileSet.Load(path)
		if err != nil {
			loadErrs[path] = err
			continue
		}
		ids[path] = id
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	for _, path := range files {
		notify(opts.Sink, Event{Unit: filepath.Base(path), Status: StatusQueued})
	}

	// Result slots are per-goroutine unique, no mutex needed.
	results := make([]*UnitResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if loadErr, bad := loadErrs[path]; bad {
				res := &UnitResult{Path: path, Err: loadErr}
				notify(opts.Sink, Event{Unit: filepath.Base(path), Stage: StageRead, Status: StatusError, Err: loadErr})
				results[i] = res
				return nil
			}
			results[i] = LowerUnit(gctx, fileSet.Get(ids[path]), opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}
