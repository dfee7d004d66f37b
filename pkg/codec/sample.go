package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Sample is one tri-axial acceleration reading.
type Sample struct {
	X, Y, Z float32
}

// EncodeSamples serializes samples as consecutive little-endian float32 x,y,z triples.
func EncodeSamples(samples []Sample) []byte {
	buf := make([]byte, len(samples)*SampleSize)
	PutSamples(buf, samples)
	return buf
}

// PutSamples writes samples into buf, which must hold len(samples)*SampleSize bytes.
func PutSamples(buf []byte, samples []Sample) {
	for i, s := range samples {
		off := i * SampleSize
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(s.X))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(s.Y))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(s.Z))
	}
}

// DecodeSamples deserializes a payload into samples. The payload length must
// be a whole number of samples.
func DecodeSamples(data []byte) ([]Sample, error) {
	if len(data)%SampleSize != 0 {
		return nil, fmt.Errorf("payload length %d is not a multiple of %d", len(data), SampleSize)
	}

	samples := make([]Sample, len(data)/SampleSize)
	for i := range samples {
		off := i * SampleSize
		samples[i] = Sample{
			X: math.Float32frombits(binary.LittleEndian.Uint32(data[off:])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:])),
			Z: math.Float32frombits(binary.LittleEndian.Uint32(data[off+8:])),
		}
	}
	return samples, nil
}

// Buffer is a fixed-capacity sample sequence. It never grows past the
// capacity it was created with.
type Buffer struct {
	samples []Sample
}

// NewBuffer allocates a buffer able to hold capacity samples.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{samples: make([]Sample, 0, capacity)}
}

// Append adds s and reports false when the buffer is already full.
func (b *Buffer) Append(s Sample) bool {
	if len(b.samples) == cap(b.samples) {
		return false
	}
	b.samples = append(b.samples, s)
	return true
}

// At returns the sample at index i.
func (b *Buffer) At(i int) (Sample, error) {
	if i < 0 || i >= len(b.samples) {
		return Sample{}, fmt.Errorf("sample index %d out of range [0,%d)", i, len(b.samples))
	}
	return b.samples[i], nil
}

// Truncate shortens the logical length to n. The backing storage is kept.
func (b *Buffer) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(b.samples) {
		b.samples = b.samples[:n]
	}
}

// Len returns the number of samples held.
func (b *Buffer) Len() int { return len(b.samples) }

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int { return cap(b.samples) }

// Full reports whether the buffer has reached its capacity.
func (b *Buffer) Full() bool { return len(b.samples) == cap(b.samples) }

// Samples returns the held samples. The slice aliases the buffer.
func (b *Buffer) Samples() []Sample { return b.samples }
