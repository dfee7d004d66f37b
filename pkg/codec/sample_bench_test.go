//go:build bench
// +build bench

package codec

import (
	"testing"
)

func BenchmarkEncodeSamples(b *testing.B) {
	benchmarks := []struct {
		name    string
		records int
	}{
		{name: "one second at 40Hz", records: 40},
		{name: "one hour at 40Hz", records: 40 * 3600},
		{name: "one hour at 100Hz", records: 100 * 3600},
	}

	for _, bm := range benchmarks {
		samples := make([]Sample, bm.records)
		for i := range samples {
			samples[i] = Sample{X: float32(i), Y: -float32(i), Z: 1}
		}

		b.Run(bm.name, func(b *testing.B) {
			b.SetBytes(int64(bm.records * SampleSize))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = EncodeSamples(samples)
			}
		})
	}
}

func BenchmarkDecodeSamples(b *testing.B) {
	payload := EncodeSamples(make([]Sample, 40*3600))

	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeSamples(payload); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkHeaderCodec_Encode(b *testing.B) {
	c := NewHeaderCodec()
	h := &Header{SampleRate: 40, Firmware: "v1.5.0", SerialID: "MOS2B21140207", DurationSeconds: 3600, Channels: Channels, BytesPerSample: BytesPerSample}

	for i := 0; i < b.N; i++ {
		_ = c.Encode(h)
	}
}
