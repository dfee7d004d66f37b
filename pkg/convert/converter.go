// Package convert turns raw accelerometer CSV exports into binary artifacts,
// one file at a time or a directory at a time.
package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ssargent/rawbin/pkg/codec"
	"github.com/ssargent/rawbin/pkg/fileparts"
	"github.com/ssargent/rawbin/pkg/rawcsv"
	"github.com/ssargent/rawbin/pkg/reconcile"
	"github.com/ssargent/rawbin/pkg/stopwatch"
	"github.com/ssargent/rawbin/pkg/store"
)

// Options represents the conversion options
type Options struct {
	Logger            *log.Logger    // Defaults to discarding output
	Debug             bool           // Log per-stage details
	Timestamps        bool           // Keep per-record timestamps when decoding
	Location          *time.Location // Time zone of header and body timestamps, defaults to time.Local
	DefaultSampleRate uint16         // Used when the banner carries no "<n> Hz" token
	InputExt          string         // Extension of inputs picked up by Batch
	OutputExt         string         // Extension of derived output paths
	Recursive         bool           // Batch descends into subdirectories
	Workers           int            // Batch worker count
	Verify            bool           // Read every artifact back after writing it
	Writer            store.WriterConfig
	Observers         []Observer // Notified of every conversion outcome
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Location:  time.Local,
		InputExt:  ".csv",
		OutputExt: ".bin",
		Workers:   4,
		Writer:    store.DefaultWriterConfig(),
	}
}

// Observer receives conversion outcomes. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveConversion(Outcome)
}

// Decoded is a parsed and reconciled export, ready to be written.
type Decoded struct {
	Source        *rawcsv.Header // Header as parsed, duration corrected on truncation
	Header        *codec.Header  // Binary header to persist
	Body          *rawcsv.Body   // Truncated to Reconcile.Final records
	ObservedLines uint64
	Reconcile     reconcile.Result
	Warning       error // Non-nil when the sample count was corrected
}

// Result describes one completed file conversion.
type Result struct {
	Input         string
	Output        string
	Header        *codec.Header
	Reconcile     reconcile.Result
	ObservedLines uint64
	StopReason    rawcsv.StopReason
	Bytes         int64
	Elapsed       time.Duration
	Warning       error // *Error of kind BodyTruncated, or nil
}

// Converter handles the conversion process
type Converter struct {
	options Options
	logger  *log.Logger
	parser  *rawcsv.HeaderParser
	writer  *store.ArtifactWriter
	reader  *store.ArtifactReader
}

// NewConverter creates a new converter
func NewConverter(options Options) *Converter {
	defaults := DefaultOptions()
	if options.Location == nil {
		options.Location = defaults.Location
	}
	if options.InputExt == "" {
		options.InputExt = defaults.InputExt
	}
	if options.OutputExt == "" {
		options.OutputExt = defaults.OutputExt
	}
	if options.Workers <= 0 {
		options.Workers = defaults.Workers
	}

	logger := options.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Converter{
		options: options,
		logger:  logger,
		parser:  rawcsv.NewHeaderParser(options.Location, options.DefaultSampleRate),
		writer:  store.NewArtifactWriter(options.Writer),
		reader:  store.NewArtifactReader(store.ReaderConfig{}),
	}
}

// Options returns the effective options.
func (c *Converter) Options() Options {
	return c.options
}

// Decode parses and reconciles the export read from r. The header is parsed
// once, the body lines are counted to size the sample buffer, and the body is
// then parsed from the first line after the header.
func (c *Converter) Decode(ctx context.Context, r io.ReadSeeker) (*Decoded, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, newError(InputUnreadable, "", err)
	}

	src, consumed, err := c.parser.Parse(bufio.NewReader(r))
	if err != nil {
		var perr *rawcsv.ParseError
		if errors.As(err, &perr) {
			return nil, newError(HeaderParseError, "", err)
		}
		return nil, newError(InputUnreadable, "", err)
	}
	c.debugf("header: %s %s at %d Hz, %ds declared (%d bytes)",
		src.Firmware, src.SerialID, src.SampleRateHz, src.DurationSeconds, consumed)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := r.Seek(consumed, io.SeekStart); err != nil {
		return nil, newError(InputUnreadable, "", err)
	}
	lines, err := rawcsv.CountLines(r)
	if err != nil {
		return nil, newError(InputUnreadable, "", err)
	}

	plan, err := reconcile.NewPlan(src, uint64(lines))
	if err != nil {
		return nil, newError(HeaderParseError, "", err)
	}
	c.debugf("plan: expected %d, observed %d lines, capacity %d, buffer %d",
		plan.Expected, plan.Observed, plan.Capacity, plan.BufferSize())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := r.Seek(consumed, io.SeekStart); err != nil {
		return nil, newError(InputUnreadable, "", err)
	}
	body, err := rawcsv.ParseBody(r, plan.BufferSize(), rawcsv.BodyOptions{
		Timestamps: c.options.Timestamps,
		Location:   c.options.Location,
	})
	if err != nil {
		return nil, newError(InputUnreadable, "", err)
	}
	if body.Reason == rawcsv.StopMalformed {
		c.debugf("body: stopped at line %d: %q", body.StopLine, body.StopText)
	}

	res, warn := reconcile.Finalize(src, uint64(body.Records()))
	if warn != nil && !reconcile.IsWarning(warn) {
		return nil, newError(HeaderParseError, "", warn)
	}
	body.Truncate(int(res.Final))

	d := &Decoded{
		Source:        src,
		Header:        codec.NewHeader(src.SampleRateHz, src.Start, src.Stop, src.Firmware, src.SerialID, src.DurationSeconds),
		Body:          body,
		ObservedLines: uint64(lines),
		Reconcile:     res,
	}
	if warn != nil {
		d.Warning = newError(BodyTruncated, "", warn)
	}
	return d, nil
}

// ConvertFile converts the export at in and writes the artifact to out. An
// empty out derives the output path from in and the output extension. A body
// that disagrees with its header is not an error: the artifact is written and
// Result.Warning is set.
func (c *Converter) ConvertFile(ctx context.Context, in, out string) (*Result, error) {
	outcome := c.convertFile(ctx, in, out)
	c.notify(outcome)
	return outcome.Result, outcome.Err
}

// Convert runs one conversion like ConvertFile but leaves notifying observers
// to the caller, which may relabel the outcome first.
func (c *Converter) Convert(ctx context.Context, in, out string) Outcome {
	return c.convertFile(ctx, in, out)
}

func (c *Converter) convertFile(ctx context.Context, in, out string) Outcome {
	sw := stopwatch.Start()
	if out == "" {
		out = fileparts.OutputPath(in, "", c.options.OutputExt)
	}
	outcome := Outcome{Input: in, Output: out, Status: StatusFailed}

	fail := func(err error) Outcome {
		var cerr *Error
		if errors.As(err, &cerr) && cerr.Path == "" {
			cerr.Path = in
		}
		outcome.Err = err
		outcome.Elapsed = sw.Elapsed()
		c.logger.Printf("error: %v", err)
		return outcome
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	if sameFile(in, out) {
		return fail(newError(OutputWriteFailure, in, errors.New("output path would overwrite the input")))
	}

	file, err := os.Open(in)
	if err != nil {
		return fail(newError(InputUnreadable, in, err))
	}
	defer file.Close()

	decoded, err := c.Decode(ctx, file)
	if err != nil {
		return fail(err)
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	n, err := c.writer.WriteFile(out, decoded.Header, decoded.Body.Samples.Samples())
	if err != nil {
		return fail(newError(OutputWriteFailure, out, err))
	}

	if c.options.Verify {
		if err := c.verify(out, decoded.Header); err != nil {
			return fail(err)
		}
	}

	result := &Result{
		Input:         in,
		Output:        out,
		Header:        decoded.Header,
		Reconcile:     decoded.Reconcile,
		ObservedLines: decoded.ObservedLines,
		StopReason:    decoded.Body.Reason,
		Bytes:         n,
		Elapsed:       sw.Elapsed(),
	}
	if decoded.Warning != nil {
		var cerr *Error
		if errors.As(decoded.Warning, &cerr) {
			cerr.Path = in
		}
		result.Warning = decoded.Warning
		c.logger.Printf("warning: %v", decoded.Warning)
	}
	c.debugf("%s -> %s: %d records, %d bytes, %s", in, out, result.Reconcile.Final, n, sw)

	outcome.Status = StatusConverted
	outcome.Result = result
	outcome.Elapsed = result.Elapsed
	return outcome
}

// verify reads the artifact at path back and compares it with the header written.
func (c *Converter) verify(path string, want *codec.Header) error {
	got, err := c.reader.ReadFileHeader(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newError(InputUnreadable, path, err)
		}
		return newError(BinaryCorrupt, path, err)
	}
	if got.PayloadSize != want.PayloadSize || got.SampleRate != want.SampleRate || got.DurationSeconds != want.DurationSeconds {
		return newError(BinaryCorrupt, path, fmt.Errorf("%w: read back %d bytes at %d Hz, wrote %d bytes at %d Hz",
			store.ErrCorruption, got.PayloadSize, got.SampleRate, want.PayloadSize, want.SampleRate))
	}
	return nil
}

// Inspect reads the artifact at path. Errors are classified as InputUnreadable
// for missing or unreadable files and BinaryCorrupt for malformed contents.
func (c *Converter) Inspect(path string) (*store.Artifact, error) {
	artifact, err := c.reader.ReadFile(path)
	if err != nil {
		return nil, classifyRead(path, err)
	}
	return artifact, nil
}

// InspectReader reads an artifact from r.
func (c *Converter) InspectReader(r io.ReadSeeker, limit uint64) (*store.Artifact, error) {
	artifact, err := store.NewArtifactReader(store.ReaderConfig{MaxPayloadBytes: limit}).Read(r)
	if err != nil {
		return nil, classifyRead("", err)
	}
	return artifact, nil
}

func classifyRead(path string, err error) error {
	if errors.Is(err, store.ErrCorruption) || errors.Is(err, store.ErrTooLarge) {
		return newError(BinaryCorrupt, path, err)
	}
	return newError(InputUnreadable, path, err)
}

// Notify passes o to every configured observer.
func (c *Converter) Notify(o Outcome) {
	c.notify(o)
}

func (c *Converter) notify(o Outcome) {
	for _, obs := range c.options.Observers {
		obs.ObserveConversion(o)
	}
}

func (c *Converter) debugf(format string, args ...interface{}) {
	if c.options.Debug {
		c.logger.Printf("debug: "+format, args...)
	}
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
