// Package codec provides the binary artifact layout for converted accelerometer
// recordings.
//
// An artifact is a fixed-size header followed immediately by the raw sample
// payload. There is no padding, no per-record framing and no trailer.
//
// # Header Format
//
// All integers are little-endian. Every field sits at an explicit offset:
//
//	[SampleRate(2)][Start(8)][Stop(8)][Firmware(10)][SerialID(20)]
//	[Duration(4)][Channels(1)][BytesPerSample(1)][PayloadSize(8)]
//
// Fields:
//   - SampleRate: samples per second (uint16)
//   - Start: recording start as Unix seconds (int64)
//   - Stop: download time as Unix seconds (int64)
//   - Firmware: device firmware string, NUL padded; at most 9 bytes are kept
//   - SerialID: device serial number, NUL padded; at most 19 bytes are kept
//   - Duration: whole seconds of payload (uint32)
//   - Channels: signal channels per sample, always 3
//   - BytesPerSample: bytes per sample component, always 4
//   - PayloadSize: bytes of payload following the header (uint64)
//
// The header is HeaderSize (62) bytes. PayloadSize is always recomputed from
// the other fields when encoding:
//
//	PayloadSize = Channels * BytesPerSample * SampleRate * Duration
//
// # Payload Format
//
// The payload is SampleRate*Duration consecutive samples, each encoded as
// three little-endian IEEE-754 float32 values (x, y, z).
//
// # Usage
//
//	c := codec.NewHeaderCodec()
//	h := codec.NewHeader(40, start, stop, "v1.5.0", "MOS2B21140207", 10)
//
//	buf := c.Encode(h)
//	buf = append(buf, codec.EncodeSamples(samples)...)
//
//	decoded, err := c.Decode(buf[:codec.HeaderSize])
//	if err != nil {
//	    return err
//	}
//	if err := decoded.Validate(); err != nil {
//	    return err // header fields disagree with each other
//	}
//
// # Thread Safety
//
// HeaderCodec is stateless and safe for concurrent use. Buffer is not.
package codec
