// Package api provides interfaces for dependency injection
package api

import (
	"context"
	"io"

	"github.com/ssargent/rawbin/pkg/catalog"
	"github.com/ssargent/rawbin/pkg/convert"
	"github.com/ssargent/rawbin/pkg/metrics"
	"github.com/ssargent/rawbin/pkg/store"
)

// Converter is the part of convert.Converter the server needs
type Converter interface {
	// Convert runs one conversion without notifying observers
	Convert(ctx context.Context, in, out string) convert.Outcome

	// Notify passes an outcome to the converter's observers
	Notify(o convert.Outcome)

	// InspectReader reads an artifact, rejecting payloads above limit bytes
	InspectReader(r io.ReadSeeker, limit uint64) (*store.Artifact, error)
}

// Catalog is the read side of the conversion catalog
type Catalog interface {
	List(limit int) ([]catalog.Entry, error)
	Get(id string) (*catalog.Entry, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is canceled or the listener fails
	StartServer(ctx context.Context, converter Converter, cat Catalog, m *metrics.Metrics, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
