package rawcsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

const (
	labelSerialID     = "Serial Number:"
	labelStartTime    = "Start Time"
	labelStartDate    = "Start Date"
	labelDownloadTime = "Download Time"
	labelDownloadDate = "Download Date"
	columnTitlePrefix = "Timestamp"

	// maxStatusLines bounds the status lines skipped before the separator.
	maxStatusLines = 4
)

// Header is the typed form of the text header of a raw accelerometer export.
type Header struct {
	SampleRateHz    uint16
	Start           time.Time
	Stop            time.Time
	Firmware        string
	SerialID        string
	DurationSeconds uint32
}

// ExpectedRecords is the number of samples the header declares.
func (h *Header) ExpectedRecords() uint64 {
	return uint64(h.DurationSeconds) * uint64(h.SampleRateHz)
}

// HeaderParser parses the text header block.
type HeaderParser struct {
	location          *time.Location
	defaultSampleRate uint16
}

// NewHeaderParser creates a parser that interprets header dates in loc.
// defaultSampleRate is used when the banner has no "<n> Hz" token; zero
// makes a missing rate a parse error.
func NewHeaderParser(loc *time.Location, defaultSampleRate uint16) *HeaderParser {
	if loc == nil {
		loc = time.Local
	}
	return &HeaderParser{location: loc, defaultSampleRate: defaultSampleRate}
}

// Location returns the time zone header and body timestamps are read in.
func (p *HeaderParser) Location() *time.Location {
	return p.location
}

// Parse reads the header block from r and returns the header together with
// the number of bytes consumed, so callers can seek back to the first body line.
func (p *HeaderParser) Parse(r *bufio.Reader) (*Header, int64, error) {
	lr := &lineReader{r: r}
	h := &Header{}

	banner, err := lr.next(FieldBanner)
	if err != nil {
		return nil, lr.consumed, err
	}
	firmware, rate, hasRate := bannerTokens(banner)
	if firmware == "" && !hasRate {
		return nil, lr.consumed, lr.fail(FieldBanner, banner, ErrNoBannerTokens)
	}
	if !hasRate || rate == 0 {
		if p.defaultSampleRate == 0 {
			return nil, lr.consumed, lr.fail(FieldSampleRate, banner, fmt.Errorf("%w: no \"<n> Hz\" token", ErrPattern))
		}
		rate = p.defaultSampleRate
	}
	h.Firmware = firmware
	h.SampleRateHz = rate

	if h.SerialID, err = p.serial(lr); err != nil {
		return nil, lr.consumed, err
	}

	if h.Start, err = p.timestamp(lr, labelStartTime, FieldStartTime, labelStartDate, FieldStartDate); err != nil {
		return nil, lr.consumed, err
	}

	if _, err := lr.next(FieldEpochPeriod); err != nil {
		return nil, lr.consumed, err
	}

	if h.Stop, err = p.timestamp(lr, labelDownloadTime, FieldDownloadTime, labelDownloadDate, FieldDownloadDate); err != nil {
		return nil, lr.consumed, err
	}

	if err := p.skipStatus(lr); err != nil {
		return nil, lr.consumed, err
	}

	if err := p.skipColumnTitles(lr); err != nil {
		return nil, lr.consumed, err
	}

	d := h.Stop.Sub(h.Start)
	if d < 0 {
		return nil, lr.consumed, &ParseError{Field: FieldDownloadDate, Line: 7, Err: ErrStopBeforeStart,
			Text: fmt.Sprintf("start %s, download %s", h.Start.Format(time.RFC3339), h.Stop.Format(time.RFC3339))}
	}
	secs := int64(d / time.Second)
	if secs > math.MaxUint32 {
		return nil, lr.consumed, &ParseError{Field: FieldDownloadDate, Line: 7, Err: fmt.Errorf("duration %s overflows", d)}
	}
	h.DurationSeconds = uint32(secs)

	return h, lr.consumed, nil
}

func (p *HeaderParser) serial(lr *lineReader) (string, error) {
	line, err := lr.next(FieldSerialID)
	if err != nil {
		return "", err
	}
	v, ok := labelled(line, labelSerialID)
	if !ok || v == "" || strings.ContainsAny(v, " \t") {
		return "", lr.fail(FieldSerialID, line, fmt.Errorf("%w: want %q <id>", ErrPattern, labelSerialID))
	}
	return v, nil
}

// timestamp reads a "<label> H:M:S" line followed by a "<label> M/D/YYYY" line.
func (p *HeaderParser) timestamp(lr *lineReader, timeLabel, timeField, dateLabel, dateField string) (time.Time, error) {
	line, err := lr.next(timeField)
	if err != nil {
		return time.Time{}, err
	}
	v, ok := labelled(line, timeLabel)
	if !ok {
		return time.Time{}, lr.fail(timeField, line, fmt.Errorf("%w: want %q H:M:S", ErrPattern, timeLabel))
	}
	c, err := parseClock(v)
	if err != nil {
		return time.Time{}, lr.fail(timeField, line, err)
	}

	line, err = lr.next(dateField)
	if err != nil {
		return time.Time{}, err
	}
	v, ok = labelled(line, dateLabel)
	if !ok {
		return time.Time{}, lr.fail(dateField, line, fmt.Errorf("%w: want %q M/D/YYYY", ErrPattern, dateLabel))
	}
	d, err := parseDate(v)
	if err != nil {
		return time.Time{}, lr.fail(dateField, line, err)
	}

	return d.at(c, p.location), nil
}

// skipStatus skips the memory and battery lines up to and including the dashed separator.
func (p *HeaderParser) skipStatus(lr *lineReader) error {
	for i := 0; i < maxStatusLines; i++ {
		line, err := lr.next(FieldSeparator)
		if err != nil {
			return err
		}
		if strings.HasPrefix(strings.TrimSpace(line), "---") {
			return nil
		}
	}
	return lr.fail(FieldSeparator, "", fmt.Errorf("%w: no separator within %d lines", ErrPattern, maxStatusLines))
}

// skipColumnTitles consumes an optional "Timestamp,Accelerometer X,..." line.
func (p *HeaderParser) skipColumnTitles(lr *lineReader) error {
	peek, err := lr.r.Peek(len(columnTitlePrefix))
	if err != nil || string(peek) != columnTitlePrefix {
		return nil
	}
	_, err = lr.next(FieldSeparator)
	return err
}

// lineReader reads terminator-stripped lines and counts the bytes and lines consumed.
type lineReader struct {
	r        *bufio.Reader
	consumed int64
	line     int
}

func (lr *lineReader) next(field string) (string, error) {
	s, err := lr.r.ReadString('\n')
	lr.consumed += int64(len(s))
	if err != nil {
		if errors.Is(err, io.EOF) {
			if s == "" {
				lr.line++
				return "", &ParseError{Field: field, Line: lr.line, Err: io.ErrUnexpectedEOF}
			}
		} else {
			return "", fmt.Errorf("read header: %w", err)
		}
	}
	lr.line++
	return strings.TrimRight(s, "\r\n"), nil
}

func (lr *lineReader) fail(field, text string, err error) error {
	return &ParseError{Field: field, Line: lr.line, Text: text, Err: err}
}
