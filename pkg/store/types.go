package store

import (
	"github.com/ssargent/rawbin/pkg/codec"
)

// Artifact is a decoded binary conversion result.
type Artifact struct {
	Header  *codec.Header
	Samples []codec.Sample
}

// WriterConfig holds configuration for the artifact writer
type WriterConfig struct {
	BufferSize int  // Write buffer size
	Fsync      bool // Fsync the temporary file before it is renamed into place
}

// ReaderConfig holds configuration for the artifact reader
type ReaderConfig struct {
	MaxPayloadBytes uint64 // Reject artifacts declaring a larger payload (0 = no limit)
}

// DefaultWriterConfig returns the configuration used by the converter.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BufferSize: 64 * 1024,
		Fsync:      true,
	}
}

// Errors
var (
	ErrCorruption = &ArtifactError{"artifact corruption detected"}
	ErrShortWrite = &ArtifactError{"short write"}
	ErrTooLarge   = &ArtifactError{"artifact payload exceeds limit"}
)

// ArtifactError represents a binary artifact error
type ArtifactError struct {
	Message string
}

func (e *ArtifactError) Error() string {
	return e.Message
}
