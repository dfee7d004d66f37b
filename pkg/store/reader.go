package store

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ssargent/rawbin/pkg/codec"
)

// ArtifactReader reads and verifies binary artifacts.
type ArtifactReader struct {
	codec  *codec.HeaderCodec
	config ReaderConfig
}

// NewArtifactReader creates a new artifact reader
func NewArtifactReader(config ReaderConfig) *ArtifactReader {
	return &ArtifactReader{
		codec:  codec.NewHeaderCodec(),
		config: config,
	}
}

// ReadHeader reads and validates the header and checks that the stream size
// equals the header size plus the declared payload.
func (ar *ArtifactReader) ReadHeader(r io.ReadSeeker) (*codec.Header, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	buf := make([]byte, codec.HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated header", ErrCorruption)
		}
		return nil, err
	}

	h, err := ar.codec.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruption, err)
	}
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruption, err)
	}
	if ar.config.MaxPayloadBytes > 0 && h.PayloadSize > ar.config.MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, h.PayloadSize, ar.config.MaxPayloadBytes)
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if want := uint64(codec.HeaderSize) + h.PayloadSize; uint64(size) != want {
		return nil, fmt.Errorf("%w: size %d, header declares %d", ErrCorruption, size, want)
	}

	return h, nil
}

// Read reads a complete artifact from r.
func (ar *ArtifactReader) Read(r io.ReadSeeker) (*Artifact, error) {
	h, err := ar.ReadHeader(r)
	if err != nil {
		return nil, err
	}

	if _, err := r.Seek(codec.HeaderSize, io.SeekStart); err != nil {
		return nil, err
	}

	payload := make([]byte, h.PayloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated payload", ErrCorruption)
		}
		return nil, err
	}

	samples, err := codec.DecodeSamples(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruption, err)
	}

	return &Artifact{Header: h, Samples: samples}, nil
}

// ReadFile reads the artifact at path. A missing file returns an error
// satisfying errors.Is(err, os.ErrNotExist), never ErrCorruption.
func (ar *ArtifactReader) ReadFile(path string) (*Artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ar.Read(file)
}

// ReadFileHeader reads and verifies only the header of the artifact at path.
func (ar *ArtifactReader) ReadFileHeader(path string) (*codec.Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ar.ReadHeader(file)
}
