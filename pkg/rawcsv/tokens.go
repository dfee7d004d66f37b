package rawcsv

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// clock is a parsed H:M:S value. nanos carries any fractional seconds.
type clock struct {
	hour, minute, second, nanos int
}

// date is a parsed M/D/YYYY value.
type date struct {
	year  int
	month time.Month
	day   int
}

func (d date) at(c clock, loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, c.hour, c.minute, c.second, c.nanos, loc)
}

// digits parses s as an unsigned decimal of minLen..maxLen digits.
func digits(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// parseClock parses H:M:S with one or two digit components.
func parseClock(s string) (clock, error) {
	return parseClockFrac(s, false)
}

// parseClockFrac parses H:M:S, optionally allowing a fractional seconds part.
func parseClockFrac(s string, allowFrac bool) (clock, error) {
	hs, rest, ok1 := strings.Cut(s, ":")
	ms, ss, ok2 := strings.Cut(rest, ":")
	if !ok1 || !ok2 {
		return clock{}, fmt.Errorf("%w: want H:M:S, got %q", ErrPattern, s)
	}

	var c clock
	frac := ""
	if allowFrac {
		ss, frac, _ = strings.Cut(ss, ".")
	}

	var okH, okM, okS bool
	c.hour, okH = digits(hs, 1, 2)
	c.minute, okM = digits(ms, 1, 2)
	c.second, okS = digits(ss, 1, 2)
	if !okH || !okM || !okS {
		return clock{}, fmt.Errorf("%w: want H:M:S, got %q", ErrPattern, s)
	}
	if c.hour > 23 || c.minute > 59 || c.second > 59 {
		return clock{}, fmt.Errorf("%w: time out of range: %q", ErrPattern, s)
	}

	if frac != "" {
		n, ok := digits(frac, 1, 9)
		if !ok {
			return clock{}, fmt.Errorf("%w: bad fractional seconds: %q", ErrPattern, s)
		}
		for i := len(frac); i < 9; i++ {
			n *= 10
		}
		c.nanos = n
	}
	return c, nil
}

// parseDate parses M/D/YYYY with one or two digit month and day and a four
// digit year, rejecting days that do not exist in the month.
func parseDate(s string) (date, error) {
	ms, rest, ok1 := strings.Cut(s, "/")
	ds, ys, ok2 := strings.Cut(rest, "/")
	if !ok1 || !ok2 {
		return date{}, fmt.Errorf("%w: want M/D/YYYY, got %q", ErrPattern, s)
	}

	month, okM := digits(ms, 1, 2)
	day, okD := digits(ds, 1, 2)
	year, okY := digits(ys, 4, 4)
	if !okM || !okD || !okY {
		return date{}, fmt.Errorf("%w: want M/D/YYYY, got %q", ErrPattern, s)
	}
	if month < 1 || month > 12 || day < 1 {
		return date{}, fmt.Errorf("%w: date out of range: %q", ErrPattern, s)
	}

	// time.Date normalizes overflow (2/30 -> 3/1); a changed month means the day does not exist.
	if t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC); t.Month() != time.Month(month) {
		return date{}, fmt.Errorf("%w: no such day: %q", ErrPattern, s)
	}
	return date{year: year, month: time.Month(month), day: day}, nil
}

// bannerTokens extracts the firmware and sample rate tokens from the first
// header line. Either may be missing; callers decide what that means.
func bannerTokens(line string) (firmware string, rate uint16, hasRate bool) {
	fields := strings.Fields(line)
	for i, f := range fields {
		switch {
		case f == "Firmware" && i+1 < len(fields):
			if firmware == "" {
				firmware = fields[i+1]
			}
		case f == "Hz" && i > 0:
			if n, err := strconv.ParseUint(fields[i-1], 10, 16); err == nil && !hasRate {
				rate, hasRate = uint16(n), true
			}
		case strings.HasSuffix(f, "Hz") && len(f) > 2:
			if n, err := strconv.ParseUint(strings.TrimSuffix(f, "Hz"), 10, 16); err == nil && !hasRate {
				rate, hasRate = uint16(n), true
			}
		}
	}
	return firmware, rate, hasRate
}

// labelled strips label from the start of line and returns the trimmed remainder.
func labelled(line, label string) (string, bool) {
	if !strings.HasPrefix(line, label) {
		return "", false
	}
	return strings.TrimSpace(line[len(label):]), true
}
