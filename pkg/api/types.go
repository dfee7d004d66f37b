package api

import (
	"time"

	"github.com/ssargent/rawbin/pkg/codec"
	"github.com/ssargent/rawbin/pkg/convert"
	"github.com/ssargent/rawbin/pkg/store"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port           int
	Bind           string
	APIKey         string
	MaxUploadBytes int64 // Upper bound for convert and inspect request bodies
}

// HeaderSummary is the JSON view of an artifact header.
type HeaderSummary struct {
	SampleRate      uint16    `json:"sample_rate"`
	Start           time.Time `json:"start"`
	Stop            time.Time `json:"stop"`
	Firmware        string    `json:"firmware"`
	SerialID        string    `json:"serial_id"`
	DurationSeconds uint32    `json:"duration_seconds"`
	Channels        uint8     `json:"channels"`
	BytesPerSample  uint8     `json:"bytes_per_sample"`
	PayloadBytes    uint64    `json:"payload_bytes"`
	Records         uint64    `json:"records"`
}

// InspectResponse is returned by the inspect endpoint. Samples holds x, y, z
// triples and is only present when requested.
type InspectResponse struct {
	Header  HeaderSummary `json:"header"`
	Samples [][3]float32  `json:"samples,omitempty"`
}

// ConversionSummary is returned by the convert endpoint when the client asks
// for JSON instead of the artifact.
type ConversionSummary struct {
	Name          string        `json:"name"`
	Header        HeaderSummary `json:"header"`
	Expected      uint64        `json:"expected_records"`
	Actual        uint64        `json:"actual_records"`
	Final         uint64        `json:"final_records"`
	ObservedLines uint64        `json:"observed_lines"`
	Truncated     bool          `json:"truncated"`
	Warning       string        `json:"warning,omitempty"`
	Bytes         int64         `json:"bytes"`
}

func summarizeHeader(h *codec.Header) HeaderSummary {
	return HeaderSummary{
		SampleRate:      h.SampleRate,
		Start:           h.Start.UTC(),
		Stop:            h.Stop.UTC(),
		Firmware:        h.Firmware,
		SerialID:        h.SerialID,
		DurationSeconds: h.DurationSeconds,
		Channels:        h.Channels,
		BytesPerSample:  h.BytesPerSample,
		PayloadBytes:    h.PayloadSize,
		Records:         h.PayloadSize / codec.SampleSize,
	}
}

func inspectResponse(a *store.Artifact, samples int) InspectResponse {
	resp := InspectResponse{Header: summarizeHeader(a.Header)}
	if samples > len(a.Samples) {
		samples = len(a.Samples)
	}
	for _, s := range a.Samples[:samples] {
		resp.Samples = append(resp.Samples, [3]float32{s.X, s.Y, s.Z})
	}
	return resp
}

func conversionSummary(name string, r *convert.Result) ConversionSummary {
	sum := ConversionSummary{
		Name:          name,
		Header:        summarizeHeader(r.Header),
		Expected:      r.Reconcile.Expected,
		Actual:        r.Reconcile.Actual,
		Final:         r.Reconcile.Final,
		ObservedLines: r.ObservedLines,
		Truncated:     r.Reconcile.Corrected,
		Bytes:         r.Bytes,
	}
	if r.Warning != nil {
		sum.Warning = conversionMessage(r.Warning)
	}
	return sum
}
