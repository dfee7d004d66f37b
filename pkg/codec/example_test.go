package codec_test

import (
	"fmt"
	"log"
	"time"

	"github.com/ssargent/rawbin/pkg/codec"
)

// ExampleHeaderCodec_basic demonstrates encoding and decoding a header
func ExampleHeaderCodec_basic() {
	c := codec.NewHeaderCodec()

	start := time.Date(2015, time.December, 9, 0, 0, 0, 0, time.UTC)
	stop := start.Add(10 * time.Second)
	h := codec.NewHeader(40, start, stop, "v1.5.0", "MOS2B21140207", 10)

	encoded := c.Encode(h)
	fmt.Printf("Encoded %d bytes\n", len(encoded))

	decoded, err := c.Decode(encoded)
	if err != nil {
		log.Fatal(err)
	}
	if err := decoded.Validate(); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Serial: %s\n", decoded.SerialID)
	fmt.Printf("Firmware: %s\n", decoded.Firmware)
	fmt.Printf("Records: %d\n", decoded.Records())
	fmt.Printf("Payload: %d bytes\n", decoded.PayloadSize)

	// Output:
	// Encoded 62 bytes
	// Serial: MOS2B21140207
	// Firmware: v1.5.0
	// Records: 400
	// Payload: 4800 bytes
}

// ExampleEncodeSamples demonstrates the payload layout
func ExampleEncodeSamples() {
	payload := codec.EncodeSamples([]codec.Sample{
		{X: 1, Y: 0, Z: -1},
	})
	fmt.Printf("% x\n", payload)

	// Output:
	// 00 00 80 3f 00 00 00 00 00 00 80 bf
}

// ExampleHeaderCodec_errorHandling demonstrates decoding a short header
func ExampleHeaderCodec_errorHandling() {
	c := codec.NewHeaderCodec()

	_, err := c.Decode([]byte{0x01, 0x02, 0x03})
	if err != nil {
		fmt.Printf("Decode error: %v\n", err)
	}

	// Output:
	// Decode error: data too short for header: 3 < 62
}
