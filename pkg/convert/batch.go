package convert

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ssargent/rawbin/pkg/fileparts"
	"github.com/ssargent/rawbin/pkg/stopwatch"
)

// Status is the outcome of one file in a conversion run.
type Status string

const (
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome records what happened to one input file.
type Outcome struct {
	Input   string
	Output  string
	Status  Status
	Reason  string  // Why the file was skipped
	Result  *Result // Set when Status is StatusConverted
	Err     error   // Set when Status is StatusFailed
	Elapsed time.Duration
}

// Report summarizes a batch run.
type Report struct {
	Succeeded int
	Skipped   int
	Failed    int
	Truncated int // Converted files whose sample count was corrected
	Outcomes  []Outcome
	Elapsed   time.Duration

	mu sync.Mutex
}

// Total returns the number of files the run looked at.
func (r *Report) Total() int {
	return r.Succeeded + r.Skipped + r.Failed
}

func (r *Report) add(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch o.Status {
	case StatusConverted:
		r.Succeeded++
		if o.Result != nil && o.Result.Warning != nil {
			r.Truncated++
		}
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}

type job struct {
	in, out string
}

// Batch converts every input file in dir. Outputs go to outDir, mirroring
// subdirectories when recursive, or next to each input when outDir is empty.
// Hidden files, files without a base name, and files whose output path would
// collide with another output or with the input are skipped. A failed file
// never stops the run; only context cancellation does, in which case the
// partial report is returned with the context error.
func (c *Converter) Batch(ctx context.Context, dir, outDir string) (*Report, error) {
	sw := stopwatch.Start()
	report := &Report{}

	jobs, err := c.plan(dir, outDir, report)
	if err != nil {
		return nil, err
	}
	c.logger.Printf("planning to convert %d file(s) in %s", len(jobs), dir)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.options.Workers)

	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome := c.convertFile(gctx, j.in, j.out)
			c.notify(outcome)
			report.add(outcome)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Outcomes, func(a, b int) bool {
		return report.Outcomes[a].Input < report.Outcomes[b].Input
	})
	report.Elapsed = sw.Elapsed()
	c.logger.Printf("converted %d/%d file(s), %d skipped, %d failed. %s",
		report.Succeeded, report.Total(), report.Skipped, report.Failed, sw)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// plan walks dir, records skipped entries in report and returns the files to
// convert with their output paths fixed up front.
func (c *Converter) plan(dir, outDir string, report *Report) ([]job, error) {
	var inputs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (!c.options.Recursive || fileparts.Hidden(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !fileparts.HasExt(path, c.options.InputExt) {
			return nil
		}
		inputs = append(inputs, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning directory: %w", err)
	}
	sort.Strings(inputs)

	claimed := make(map[string]string, len(inputs))
	inputSet := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		inputSet[filepath.Clean(in)] = true
	}

	var jobs []job
	for _, in := range inputs {
		skip := func(out, reason string) {
			o := Outcome{Input: in, Output: out, Status: StatusSkipped, Reason: reason}
			c.logger.Printf("skipping %s: %s", in, reason)
			c.notify(o)
			report.add(o)
		}

		parts := fileparts.Split(in)
		switch {
		case fileparts.Hidden(in) && parts.Base == "":
			skip("", "empty base name")
			continue
		case fileparts.Hidden(in):
			skip("", "hidden file")
			continue
		}

		target := outDir
		if outDir != "" {
			rel, err := filepath.Rel(dir, parts.Dir)
			if err != nil {
				return nil, fmt.Errorf("error calculating relative path: %w", err)
			}
			target = filepath.Join(outDir, rel)
		}
		out := fileparts.OutputPath(in, target, c.options.OutputExt)

		if inputSet[filepath.Clean(out)] {
			skip(out, "output path is an input file")
			continue
		}
		if other, ok := claimed[out]; ok {
			skip(out, fmt.Sprintf("output collides with %s", other))
			continue
		}
		claimed[out] = in
		jobs = append(jobs, job{in: in, out: out})
	}
	return jobs, nil
}
