package rawcsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ssargent/rawbin/pkg/codec"
)

const maxLineSize = 1024 * 1024

// StopReason records why body parsing ended.
type StopReason int

const (
	StopEOF       StopReason = iota // Input exhausted
	StopCapacity                    // Buffer filled
	StopMalformed                   // A line did not match the sample pattern
)

func (s StopReason) String() string {
	switch s {
	case StopEOF:
		return "eof"
	case StopCapacity:
		return "capacity"
	case StopMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// BodyOptions controls body parsing.
type BodyOptions struct {
	// Timestamps keeps the per-record timestamp in addition to the samples.
	Timestamps bool
	// Location is used to build timestamps. Defaults to time.Local.
	Location *time.Location
}

// Body is the result of parsing sample lines.
type Body struct {
	Samples    *codec.Buffer
	Timestamps []time.Time // Only populated with BodyOptions.Timestamps
	Reason     StopReason
	StopLine   int    // 1-based body line that stopped parsing when Reason is StopMalformed
	StopText   string // Text of that line
}

// Records returns the number of successfully parsed lines.
func (b *Body) Records() int {
	return b.Samples.Len()
}

// Truncate shortens the body to n records.
func (b *Body) Truncate(n int) {
	b.Samples.Truncate(n)
	if b.Timestamps != nil && n < len(b.Timestamps) {
		b.Timestamps = b.Timestamps[:n]
	}
}

// ParseBody reads "M/D/YYYY H:M:S.fff,x,y,z" lines from r into a buffer of the
// given capacity. Parsing ends at EOF, when the buffer is full, or at the first
// line that does not match; only I/O failures are returned as errors.
func ParseBody(r io.Reader, capacity int, opts BodyOptions) (*Body, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("negative capacity: %d", capacity)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	body := &Body{Samples: codec.NewBuffer(capacity)}
	if opts.Timestamps {
		body.Timestamps = make([]time.Time, 0, capacity)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	for {
		if body.Samples.Full() {
			body.Reason = StopCapacity
			return body, nil
		}
		if !scanner.Scan() {
			break
		}
		line++

		text := strings.TrimRight(scanner.Text(), "\r")
		sample, ts, err := parseSampleLine(text, opts.Timestamps, loc)
		if err != nil {
			body.Reason = StopMalformed
			body.StopLine = line
			body.StopText = text
			return body, nil
		}

		body.Samples.Append(sample)
		if opts.Timestamps {
			body.Timestamps = append(body.Timestamps, ts)
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			body.Reason = StopMalformed
			body.StopLine = line + 1
			return body, nil
		}
		return nil, fmt.Errorf("read body: %w", err)
	}

	body.Reason = StopEOF
	return body, nil
}

// parseSampleLine tokenizes one body line. The timestamp is always validated;
// it is only materialized when keepTime is set.
func parseSampleLine(line string, keepTime bool, loc *time.Location) (codec.Sample, time.Time, error) {
	stamp, rest, ok := strings.Cut(line, ",")
	if !ok {
		return codec.Sample{}, time.Time{}, fmt.Errorf("%w: no fields", ErrPattern)
	}

	ds, cs, ok := strings.Cut(stamp, " ")
	if !ok {
		return codec.Sample{}, time.Time{}, fmt.Errorf("%w: want date and time", ErrPattern)
	}
	d, err := parseDate(ds)
	if err != nil {
		return codec.Sample{}, time.Time{}, err
	}
	c, err := parseClockFrac(cs, true)
	if err != nil {
		return codec.Sample{}, time.Time{}, err
	}

	xs, rest, ok1 := strings.Cut(rest, ",")
	ys, zs, ok2 := strings.Cut(rest, ",")
	if !ok1 || !ok2 || strings.Contains(zs, ",") {
		return codec.Sample{}, time.Time{}, fmt.Errorf("%w: want three axis values", ErrPattern)
	}

	var s codec.Sample
	if s.X, err = parseAxis(xs); err != nil {
		return codec.Sample{}, time.Time{}, err
	}
	if s.Y, err = parseAxis(ys); err != nil {
		return codec.Sample{}, time.Time{}, err
	}
	if s.Z, err = parseAxis(zs); err != nil {
		return codec.Sample{}, time.Time{}, err
	}

	var ts time.Time
	if keepTime {
		ts = d.at(c, loc)
	}
	return s, ts, nil
}

// parseAxis accepts plain decimal numbers only. NaN, Inf and hex floats,
// which strconv would take, end the body like any other malformed value.
func parseAxis(s string) (float32, error) {
	s = strings.TrimSpace(s)
	if strings.IndexFunc(s, notDecimal) >= 0 {
		return 0, fmt.Errorf("%w: %q is not a decimal number", ErrPattern, s)
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPattern, err)
	}
	return float32(v), nil
}

func notDecimal(r rune) bool {
	return (r < '0' || r > '9') && !strings.ContainsRune("+-.eE", r)
}
