package codec

import (
	"encoding/binary"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderCodec_EncodeDecodeRoundTrip(t *testing.T) {
	c := NewHeaderCodec()
	start := time.Date(2015, time.December, 9, 0, 0, 0, 0, time.UTC)
	stop := time.Date(2015, time.December, 17, 10, 7, 1, 0, time.UTC)

	testCases := []struct {
		name         string
		header       *Header
		wantFirmware string
		wantSerialID string
	}{
		{
			name:         "typical export",
			header:       NewHeader(40, start, stop, "v1.5.0", "MOS2B21140207", 10),
			wantFirmware: "v1.5.0",
			wantSerialID: "MOS2B21140207",
		},
		{
			name:         "empty strings",
			header:       NewHeader(30, start, stop, "", "", 0),
			wantFirmware: "",
			wantSerialID: "",
		},
		{
			name:         "firmware exactly nine bytes",
			header:       NewHeader(100, start, stop, "v12.34.56", "S", 1),
			wantFirmware: "v12.34.56",
			wantSerialID: "S",
		},
		{
			name:         "oversized strings are truncated",
			header:       NewHeader(80, start, stop, "v1.2.3-beta-long", strings.Repeat("X", 40), 3600),
			wantFirmware: "v1.2.3-be",
			wantSerialID: strings.Repeat("X", 19),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := c.Encode(tc.header)
			require.Len(t, encoded, HeaderSize)

			decoded, err := c.Decode(encoded)
			require.NoError(t, err)
			require.NoError(t, decoded.Validate())

			assert.Equal(t, tc.header.SampleRate, decoded.SampleRate)
			assert.True(t, tc.header.Start.Equal(decoded.Start))
			assert.True(t, tc.header.Stop.Equal(decoded.Stop))
			assert.Equal(t, tc.wantFirmware, decoded.Firmware)
			assert.Equal(t, tc.wantSerialID, decoded.SerialID)
			assert.Equal(t, tc.header.DurationSeconds, decoded.DurationSeconds)
			assert.Equal(t, uint8(Channels), decoded.Channels)
			assert.Equal(t, uint8(BytesPerSample), decoded.BytesPerSample)
			assert.Equal(t, tc.header.ExpectedPayloadSize(), decoded.PayloadSize)
		})
	}
}

func TestHeaderCodec_FieldOffsets(t *testing.T) {
	c := NewHeaderCodec()
	start := time.Unix(1449619200, 0)
	stop := time.Unix(1450346821, 0)

	buf := c.Encode(NewHeader(40, start, stop, "v1.5.0", "MOS2B21140207", 10))

	assert.Equal(t, 62, HeaderSize)
	assert.Equal(t, uint16(40), binary.LittleEndian.Uint16(buf[0:2]))
	assert.Equal(t, uint64(1449619200), binary.LittleEndian.Uint64(buf[2:10]))
	assert.Equal(t, uint64(1450346821), binary.LittleEndian.Uint64(buf[10:18]))
	assert.Equal(t, "v1.5.0\x00\x00\x00\x00", string(buf[18:28]))
	assert.Equal(t, "MOS2B21140207", strings.TrimRight(string(buf[28:48]), "\x00"))
	assert.Equal(t, byte(0), buf[47], "serial field must keep its terminator")
	assert.Equal(t, uint32(10), binary.LittleEndian.Uint32(buf[48:52]))
	assert.Equal(t, byte(3), buf[52])
	assert.Equal(t, byte(4), buf[53])
	assert.Equal(t, uint64(4800), binary.LittleEndian.Uint64(buf[54:62]))
}

func TestHeaderCodec_RecomputesStalePayloadSize(t *testing.T) {
	c := NewHeaderCodec()
	h := NewHeader(40, time.Unix(0, 0), time.Unix(10, 0), "v1", "S1", 10)

	// Duration corrected after construction; PayloadSize is now stale.
	h.DurationSeconds = 8
	buf := c.Encode(h)

	decoded, err := c.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(8*40*SampleSize), decoded.PayloadSize)
	assert.NoError(t, decoded.Validate())
}

func TestHeaderCodec_MalformedData(t *testing.T) {
	c := NewHeaderCodec()

	testCases := []struct {
		name string
		data []byte
	}{
		{name: "empty data", data: []byte{}},
		{name: "too short for header", data: make([]byte, HeaderSize-1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Decode(tc.data)
			assert.Error(t, err)
		})
	}
}

func TestHeader_Validate(t *testing.T) {
	base := func() *Header {
		return NewHeader(40, time.Unix(0, 0), time.Unix(10, 0), "v1", "S1", 10)
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("wrong channels", func(t *testing.T) {
		h := base()
		h.Channels = 9
		assert.Error(t, h.Validate())
	})

	t.Run("wrong bytes per sample", func(t *testing.T) {
		h := base()
		h.BytesPerSample = 8
		assert.Error(t, h.Validate())
	})

	t.Run("payload size disagrees", func(t *testing.T) {
		h := base()
		h.PayloadSize = 12
		assert.Error(t, h.Validate())
	})
}

func TestHeader_Records(t *testing.T) {
	h := NewHeader(40, time.Unix(0, 0), time.Unix(10, 0), "", "", 10)
	assert.Equal(t, uint64(400), h.Records())
	assert.Equal(t, uint64(4800), h.ExpectedPayloadSize())
}
