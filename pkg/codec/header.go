package codec

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Field widths and offsets of the binary header.
// Layout: [SampleRate(2)][Start(8)][Stop(8)][Firmware(10)][SerialID(20)]
// [Duration(4)][Channels(1)][BytesPerSample(1)][PayloadSize(8)]
const (
	FirmwareWidth = 10
	SerialIDWidth = 20

	offSampleRate     = 0
	offStart          = 2
	offStop           = 10
	offFirmware       = 18
	offSerialID       = offFirmware + FirmwareWidth
	offDuration       = offSerialID + SerialIDWidth
	offChannels       = offDuration + 4
	offBytesPerSample = offChannels + 1
	offPayloadSize    = offBytesPerSample + 1

	// HeaderSize is the encoded size of Header in bytes.
	HeaderSize = offPayloadSize + 8
)

const (
	// Channels is the number of signal channels per sample (x, y, z).
	Channels = 3
	// BytesPerSample is the width of one float32 sample component.
	BytesPerSample = 4
	// SampleSize is the encoded size of one Sample.
	SampleSize = Channels * BytesPerSample
)

// Header is the fixed-size block at the start of a binary artifact
type Header struct {
	SampleRate      uint16    // Samples per second
	Start           time.Time // Recording start, persisted with second precision
	Stop            time.Time // Download (stop) time, persisted with second precision
	Firmware        string    // Device firmware, at most FirmwareWidth-1 bytes persisted
	SerialID        string    // Device serial number, at most SerialIDWidth-1 bytes persisted
	DurationSeconds uint32    // Whole seconds of payload
	Channels        uint8     // Always 3
	BytesPerSample  uint8     // Always 4
	PayloadSize     uint64    // Number of payload bytes that follow the header
}

// NewHeader creates a header with the fixed channel layout and a payload size
// derived from the sample rate and duration.
func NewHeader(sampleRate uint16, start, stop time.Time, firmware, serialID string, durationSeconds uint32) *Header {
	h := &Header{
		SampleRate:      sampleRate,
		Start:           start,
		Stop:            stop,
		Firmware:        firmware,
		SerialID:        serialID,
		DurationSeconds: durationSeconds,
		Channels:        Channels,
		BytesPerSample:  BytesPerSample,
	}
	h.PayloadSize = h.ExpectedPayloadSize()
	return h
}

// ExpectedPayloadSize computes the payload length implied by the header's own fields.
func (h *Header) ExpectedPayloadSize() uint64 {
	return uint64(h.Channels) * uint64(h.BytesPerSample) * uint64(h.SampleRate) * uint64(h.DurationSeconds)
}

// Records returns the number of samples the payload holds.
func (h *Header) Records() uint64 {
	return uint64(h.SampleRate) * uint64(h.DurationSeconds)
}

// Validate checks the channel layout and that PayloadSize agrees with the other fields.
func (h *Header) Validate() error {
	if h.Channels != Channels {
		return fmt.Errorf("unsupported channel count: %d", h.Channels)
	}
	if h.BytesPerSample != BytesPerSample {
		return fmt.Errorf("unsupported bytes per sample: %d", h.BytesPerSample)
	}
	if h.PayloadSize != h.ExpectedPayloadSize() {
		return fmt.Errorf("payload size mismatch: %d != %d", h.PayloadSize, h.ExpectedPayloadSize())
	}
	return nil
}

// HeaderCodec handles serialization and deserialization of binary headers
type HeaderCodec struct{}

// NewHeaderCodec creates a new header codec instance
func NewHeaderCodec() *HeaderCodec {
	return &HeaderCodec{}
}

// Encode serializes h into exactly HeaderSize bytes. PayloadSize is recomputed
// from the sample rate and duration so a stale value is never written.
func (c *HeaderCodec) Encode(h *Header) []byte {
	buf := make([]byte, HeaderSize)

	binary.LittleEndian.PutUint16(buf[offSampleRate:], h.SampleRate)
	binary.LittleEndian.PutUint64(buf[offStart:], uint64(unixSeconds(h.Start)))
	binary.LittleEndian.PutUint64(buf[offStop:], uint64(unixSeconds(h.Stop)))
	putFixedString(buf[offFirmware:offFirmware+FirmwareWidth], h.Firmware)
	putFixedString(buf[offSerialID:offSerialID+SerialIDWidth], h.SerialID)
	binary.LittleEndian.PutUint32(buf[offDuration:], h.DurationSeconds)
	buf[offChannels] = h.Channels
	buf[offBytesPerSample] = h.BytesPerSample
	binary.LittleEndian.PutUint64(buf[offPayloadSize:], h.ExpectedPayloadSize())

	return buf
}

// Decode deserializes a binary header. Times are returned in UTC.
func (c *HeaderCodec) Decode(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("data too short for header: %d < %d", len(data), HeaderSize)
	}

	h := &Header{}
	h.SampleRate = binary.LittleEndian.Uint16(data[offSampleRate:])
	h.Start = time.Unix(int64(binary.LittleEndian.Uint64(data[offStart:])), 0).UTC()
	h.Stop = time.Unix(int64(binary.LittleEndian.Uint64(data[offStop:])), 0).UTC()
	h.Firmware = fixedString(data[offFirmware : offFirmware+FirmwareWidth])
	h.SerialID = fixedString(data[offSerialID : offSerialID+SerialIDWidth])
	h.DurationSeconds = binary.LittleEndian.Uint32(data[offDuration:])
	h.Channels = data[offChannels]
	h.BytesPerSample = data[offBytesPerSample]
	h.PayloadSize = binary.LittleEndian.Uint64(data[offPayloadSize:])

	return h, nil
}

func unixSeconds(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// putFixedString copies s into dst, truncating so that the last byte is always NUL.
func putFixedString(dst []byte, s string) {
	n := copy(dst[:len(dst)-1], s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// fixedString returns the bytes of src up to the first NUL.
func fixedString(src []byte) string {
	for i, b := range src {
		if b == 0 {
			return string(src[:i])
		}
	}
	return string(src)
}
