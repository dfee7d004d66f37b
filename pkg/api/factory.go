// Package api provides factory implementations for dependency injection
package api

import (
	"context"
	"log"

	"github.com/ssargent/rawbin/pkg/metrics"
)

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct {
	logger *log.Logger
}

// NewServerFactory creates a new server factory. Servers it starts log to logger.
func NewServerFactory(logger *log.Logger) ServerFactory {
	return &DefaultServerFactory{logger: logger}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{logger: f.logger}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct {
	logger *log.Logger
}

var _ ServerStarter = (*DefaultServerStarter)(nil)

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(
	ctx context.Context,
	converter Converter,
	cat Catalog,
	m *metrics.Metrics,
	config ServerConfig,
) error {
	return NewServer(converter, cat, m, config, s.logger).ListenAndServe(ctx)
}
