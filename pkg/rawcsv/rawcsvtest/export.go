// Package rawcsvtest builds synthetic raw accelerometer exports for tests.
package rawcsvtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Export describes a synthetic export file.
type Export struct {
	Firmware   string
	SerialID   string
	SampleRate int
	Start      time.Time
	Stop       time.Time
	Lines      int    // Number of valid sample lines
	Trailer    string // Appended verbatim after the sample lines
	CRLF       bool   // Use Windows line endings
	NoTitles   bool   // Omit the column title line
	Banner     string // Overrides the generated banner line when set
}

// Default returns a 40 Hz, 10 second export with exactly the declared number of lines.
func Default() Export {
	start := time.Date(2015, time.December, 9, 0, 0, 0, 0, time.UTC)
	return Export{
		Firmware:   "v1.5.0",
		SerialID:   "MOS2B21140207",
		SampleRate: 40,
		Start:      start,
		Stop:       start.Add(10 * time.Second),
		Lines:      400,
	}
}

// Sample returns the deterministic x, y, z values written on line i.
func Sample(i int) (x, y, z float32) {
	return float32(i%100) / 1000, 1 - float32(i%7)/100, -float32(i%13) / 100
}

// String renders the export.
func (e Export) String() string {
	var b strings.Builder
	nl := "\n"
	if e.CRLF {
		nl = "\r\n"
	}

	banner := e.Banner
	if banner == "" {
		banner = fmt.Sprintf("------------ Data File Created By ActiGraph GT3X+ ActiLife v6.11.8 Firmware %s date format M/d/yyyy at %d Hz  Filter Normal -----------",
			e.Firmware, e.SampleRate)
	}
	b.WriteString(banner + nl)
	b.WriteString("Serial Number: " + e.SerialID + nl)
	b.WriteString("Start Time " + e.Start.Format("15:04:05") + nl)
	b.WriteString("Start Date " + e.Start.Format("1/2/2006") + nl)
	b.WriteString("Epoch Period (hh:mm:ss) 00:00:00" + nl)
	b.WriteString("Download Time " + e.Stop.Format("15:04:05") + nl)
	b.WriteString("Download Date " + e.Stop.Format("1/2/2006") + nl)
	b.WriteString("Current Memory Address: 0" + nl)
	b.WriteString("Current Battery Voltage: 3.93     Mode = 12" + nl)
	b.WriteString("--------------------------------------------------" + nl)
	if !e.NoTitles {
		b.WriteString("Timestamp,Accelerometer X,Accelerometer Y,Accelerometer Z" + nl)
	}

	rate := e.SampleRate
	if rate <= 0 {
		rate = 1
	}
	tick := time.Second / time.Duration(rate)
	for i := 0; i < e.Lines; i++ {
		ts := e.Start.Add(time.Duration(i) * tick)
		x, y, z := Sample(i)
		fmt.Fprintf(&b, "%s,%.3f,%.3f,%.3f%s", ts.Format("1/2/2006 15:04:05.000"), x, y, z, nl)
	}
	b.WriteString(e.Trailer)

	return b.String()
}

// WriteFile writes the export to dir/name and returns the path.
func (e Export) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(e.String()), 0600); err != nil {
		t.Fatalf("write export: %v", err)
	}
	return path
}
