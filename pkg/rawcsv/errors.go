package rawcsv

import (
	"errors"
	"fmt"
)

// Header fields named by ParseError.
const (
	FieldBanner       = "banner"
	FieldSampleRate   = "sample rate"
	FieldSerialID     = "serial number"
	FieldStartTime    = "start time"
	FieldStartDate    = "start date"
	FieldEpochPeriod  = "epoch period"
	FieldDownloadTime = "download time"
	FieldDownloadDate = "download date"
	FieldSeparator    = "separator"
)

var (
	// ErrNoBannerTokens is returned when the banner has neither a firmware nor a sample rate token.
	ErrNoBannerTokens = errors.New("banner has no firmware or sample rate token")
	// ErrStopBeforeStart is returned when the download time precedes the start time.
	ErrStopBeforeStart = errors.New("download time precedes start time")
	// ErrPattern is returned when a line does not match its expected pattern.
	ErrPattern = errors.New("line does not match expected pattern")
)

// ParseError reports which header field failed to parse.
type ParseError struct {
	Field string // One of the Field* constants
	Line  int    // 1-based physical line number
	Text  string // Offending line, without terminator
	Err   error  // Underlying cause
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("header %s (line %d): %v: %q", e.Field, e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
