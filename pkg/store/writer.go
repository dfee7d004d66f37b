package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ssargent/rawbin/pkg/codec"
)

// samplesPerChunk bounds the scratch buffer used to encode the payload.
const samplesPerChunk = 4096

// ArtifactWriter writes header + payload artifacts. Artifacts are write-once:
// WriteFile never leaves a partially written file at the destination path.
type ArtifactWriter struct {
	codec  *codec.HeaderCodec
	config WriterConfig
}

// NewArtifactWriter creates a new artifact writer with the given configuration
func NewArtifactWriter(config WriterConfig) *ArtifactWriter {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultWriterConfig().BufferSize
	}
	return &ArtifactWriter{
		codec:  codec.NewHeaderCodec(),
		config: config,
	}
}

// Write seeks w to its start and writes the header followed by the payload.
// h.PayloadSize is recomputed first; samples must hold exactly h.Records() entries.
// It returns the number of bytes written.
func (aw *ArtifactWriter) Write(w io.WriteSeeker, h *codec.Header, samples []codec.Sample) (int64, error) {
	h.PayloadSize = h.ExpectedPayloadSize()
	if uint64(len(samples)) != h.Records() {
		return 0, fmt.Errorf("sample count %d does not match header records %d", len(samples), h.Records())
	}

	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	bw := bufio.NewWriterSize(w, aw.config.BufferSize)
	var written int64

	n, err := bw.Write(aw.codec.Encode(h))
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("write header: %w", err)
	}

	chunk := make([]byte, min(len(samples), samplesPerChunk)*codec.SampleSize)
	for start := 0; start < len(samples); start += samplesPerChunk {
		end := min(start+samplesPerChunk, len(samples))
		buf := chunk[:(end-start)*codec.SampleSize]
		codec.PutSamples(buf, samples[start:end])

		n, err := bw.Write(buf)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write payload: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("flush: %w", err)
	}

	if want := int64(codec.HeaderSize) + int64(h.PayloadSize); written != want {
		return written, fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, written, want)
	}
	return written, nil
}

// WriteFile writes the artifact to a temporary sibling of path and renames it
// into place once complete. On any failure the temporary file is removed and
// path is left untouched.
func (aw *ArtifactWriter) WriteFile(path string, h *codec.Header, samples []codec.Sample) (n int64, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return 0, err
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, err
	}
	tmp := file.Name()

	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(tmp)
		}
	}()

	if n, err = aw.Write(file, h, samples); err != nil {
		return n, err
	}

	if aw.config.Fsync {
		if err = file.Sync(); err != nil {
			return n, err
		}
	}

	if err = file.Close(); err != nil {
		return n, err
	}

	if err = os.Rename(tmp, path); err != nil {
		return n, err
	}
	return n, nil
}
