// Package reconcile decides how many samples a conversion keeps when the
// header's declared duration and the body disagree.
package reconcile

import (
	"errors"
	"fmt"
	"math"

	"github.com/ssargent/rawbin/pkg/rawcsv"
)

var (
	// ErrBodyTruncated is a warning: the body held a different number of
	// samples than the header declared and the duration was corrected.
	ErrBodyTruncated = errors.New("body sample count differs from header")
	// ErrZeroSampleRate is returned for headers that declare a 0 Hz rate.
	ErrZeroSampleRate = errors.New("sample rate is zero")
)

// Plan sizes the sample buffer before the body is parsed.
type Plan struct {
	Expected uint64 // DurationSeconds * SampleRateHz
	Observed uint64 // body lines counted in the file
	Capacity uint64 // max(Expected, Observed)
}

// BufferSize is the number of samples to allocate for the body. The parser
// cannot produce more records than there are body lines, so a header that
// declares more than Observed records does not size the buffer.
func (p Plan) BufferSize() int {
	n := p.Capacity
	if p.Observed < n {
		n = p.Observed
	}
	if n > math.MaxInt {
		n = math.MaxInt
	}
	return int(n)
}

// Result is the outcome of reconciling the declared and parsed sample counts.
type Result struct {
	Expected        uint64
	Actual          uint64
	Final           uint64
	DurationSeconds uint32
	Corrected       bool
}

// Truncated reports how many parsed samples are dropped to keep whole seconds.
func (r Result) Truncated() uint64 {
	if r.Actual <= r.Final {
		return 0
	}
	return r.Actual - r.Final
}

// NewPlan computes the buffer capacity for a header and a pre-counted number of body lines.
func NewPlan(h *rawcsv.Header, observedLines uint64) (Plan, error) {
	if h.SampleRateHz == 0 {
		return Plan{}, ErrZeroSampleRate
	}
	expected := h.ExpectedRecords()
	capacity := expected
	if observedLines > capacity {
		capacity = observedLines
	}
	return Plan{Expected: expected, Observed: observedLines, Capacity: capacity}, nil
}

// Finalize settles the record count once the body has been parsed. When
// actual differs from the declared count, the duration is cut to the whole
// seconds actually present, h.DurationSeconds is overwritten and the
// returned error wraps ErrBodyTruncated. The Result is valid in that case.
func Finalize(h *rawcsv.Header, actual uint64) (Result, error) {
	if h.SampleRateHz == 0 {
		return Result{}, ErrZeroSampleRate
	}

	rate := uint64(h.SampleRateHz)
	res := Result{
		Expected:        h.ExpectedRecords(),
		Actual:          actual,
		Final:           h.ExpectedRecords(),
		DurationSeconds: h.DurationSeconds,
	}
	if actual == res.Expected {
		return res, nil
	}

	corrected := actual / rate
	res.DurationSeconds = uint32(corrected)
	res.Final = corrected * rate
	res.Corrected = true
	h.DurationSeconds = res.DurationSeconds

	return res, fmt.Errorf("%w: expected %d, parsed %d, keeping %d (%ds)",
		ErrBodyTruncated, res.Expected, res.Actual, res.Final, res.DurationSeconds)
}

// IsWarning reports whether err only signals a corrected sample count.
func IsWarning(err error) bool {
	return errors.Is(err, ErrBodyTruncated)
}
