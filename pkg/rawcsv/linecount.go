package rawcsv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// CountLines counts the lines remaining in r without parsing them: every
// newline terminates a line, plus one for trailing bytes without a newline.
func CountLines(r io.Reader) (int, error) {
	buf := make([]byte, 64*1024)
	count := 0
	last := byte('\n')

	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("count lines: %w", err)
		}
	}

	if last != '\n' {
		count++
	}
	return count, nil
}
