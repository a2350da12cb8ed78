// Package build assembles many source files concurrently.
package build

import (
	"context"
	"fmt"
	"runtime"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"vmasm/pkg/asm"
	"vmasm/pkg/utils"
)

// Options controls a batch run.
type Options struct {
	// Whitelist is applied to every source. Nil allows everything.
	Whitelist *asm.Whitelist
	// Jobs bounds the number of files processed at once. Zero or less
	// means GOMAXPROCS.
	Jobs int
}

// Result describes one source file. Err holds the compile error, if any;
// I/O failures abort the whole run instead.
type Result struct {
	Source  string
	Binary  string // path of the written binary
	Symbols string // path of the written symbol file
	Size    int
	NumSyms int
	Err     error
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("FAIL %s: %v", r.Source, r.Err)
	}
	return fmt.Sprintf("ok   %s -> %s (%d bytes, %d symbols)", r.Source, r.Binary, r.Size, r.NumSyms)
}

// Run compiles each X.asm in sources to X.bin and X.sym. Results are in
// the order of sources. The first read or write failure cancels the
// files not yet started and is returned.
func Run(ctx context.Context, sources []string, opts Options) ([]Result, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := compileFile(src, opts.Whitelist)
			if err != nil {
				glog.Errorf("%s: %v", src, err)
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func compileFile(src string, wl *asm.Whitelist) (Result, error) {
	r := Result{
		Source:  src,
		Binary:  utils.ReplaceExt(src, ".bin"),
		Symbols: utils.ReplaceExt(src, ".sym"),
	}
	data, err := utils.ReadSource(src, nil)
	if err != nil {
		return r, fmt.Errorf("read %s: %w", src, err)
	}

	out, err := asm.Compile(string(data), wl)
	if err != nil {
		glog.V(1).Infof("%s: %v", src, err)
		r.Err = err
		return r, nil
	}
	if err := utils.WriteFile(r.Binary, out.Binary); err != nil {
		return r, fmt.Errorf("write %s: %w", r.Binary, err)
	}
	if err := utils.WriteFile(r.Symbols, []byte(out.Symbols)); err != nil {
		return r, fmt.Errorf("write %s: %w", r.Symbols, err)
	}
	r.Size, r.NumSyms = len(out.Binary), out.Table.Len()
	glog.V(1).Infof("%s: %d bytes", src, r.Size)
	return r, nil
}
