// Package di provides dependency injection container
package di

import (
	"errors"
	"io"
	"log"
	"os"
	"sync"

	"github.com/ssargent/rawbin/pkg/api" //nolint:depguard
	"github.com/ssargent/rawbin/pkg/catalog"
	"github.com/ssargent/rawbin/pkg/config"
	"github.com/ssargent/rawbin/pkg/convert"
	"github.com/ssargent/rawbin/pkg/metrics"
	"github.com/ssargent/rawbin/pkg/store"
)

// Container holds all the dependencies for the application. Shared services
// are created on first use and released by Close.
type Container struct {
	mu sync.Mutex

	config        *config.Config
	logger        *log.Logger
	metrics       *metrics.Metrics
	catalog       *catalog.Catalog
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	logger := log.New(os.Stderr, "rawbin: ", log.LstdFlags)
	return &Container{
		config:        config.DefaultConfig(),
		logger:        logger,
		serverFactory: api.NewServerFactory(logger),
	}
}

// SetConfig replaces the configuration. Call before any service is created.
func (c *Container) SetConfig(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = cfg
}

// Config returns the active configuration
func (c *Container) Config() *config.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// SetLogger overrides the logger (for testing). nil discards output.
func (c *Container) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

// Logger returns the shared logger
func (c *Container) Logger() *log.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logger
}

// Metrics returns the shared metrics instance
func (c *Container) Metrics() *metrics.Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metrics == nil {
		c.metrics = metrics.NewMetrics()
	}
	return c.metrics
}

// Catalog opens the conversion catalog on first use. It returns nil without
// error when the catalog is disabled.
func (c *Container) Catalog() (*catalog.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.config.Catalog.Enabled {
		return nil, nil
	}
	if c.catalog == nil {
		cat, err := catalog.Open(c.config.Catalog.Dir, c.logger)
		if err != nil {
			return nil, err
		}
		c.catalog = cat
	}
	return c.catalog, nil
}

// ConverterOptions derives converter options from the configuration
func (c *Container) ConverterOptions() (convert.Options, error) {
	cfg := c.Config()

	loc, err := cfg.Location()
	if err != nil {
		return convert.Options{}, err
	}

	opts := convert.DefaultOptions()
	opts.Logger = c.Logger()
	opts.Debug = cfg.Debug()
	opts.Timestamps = cfg.Input.Timestamps
	opts.Location = loc
	opts.DefaultSampleRate = cfg.Input.DefaultSampleRate
	opts.InputExt = cfg.Input.Extension
	opts.OutputExt = cfg.Output.Extension
	opts.Recursive = cfg.Input.Recursive
	opts.Workers = cfg.Batch.Workers
	opts.Verify = cfg.Output.Verify
	opts.Writer = store.DefaultWriterConfig()
	return opts, nil
}

// Converter builds a converter from the configuration. Its observers are the
// shared metrics, the catalog when enabled, and any extra observers given.
func (c *Container) Converter(extra ...convert.Observer) (*convert.Converter, error) {
	opts, err := c.ConverterOptions()
	if err != nil {
		return nil, err
	}

	opts.Observers = append(opts.Observers, c.Metrics())
	cat, err := c.Catalog()
	if err != nil {
		return nil, err
	}
	if cat != nil {
		opts.Observers = append(opts.Observers, cat)
	}
	opts.Observers = append(opts.Observers, extra...)

	return convert.NewConverter(opts), nil
}

// CatalogReader returns the catalog as the API's read interface, or a nil
// interface when disabled.
func (c *Container) CatalogReader() (api.Catalog, error) {
	cat, err := c.Catalog()
	if err != nil || cat == nil {
		return nil, err
	}
	return cat, nil
}

// ServerConfig derives the API server configuration
func (c *Container) ServerConfig() api.ServerConfig {
	cfg := c.Config()
	return api.ServerConfig{
		Port:           cfg.Server.Port,
		Bind:           cfg.Server.Bind,
		APIKey:         cfg.Server.APIKey,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serverFactory = factory
}

// Close releases services opened by the container
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.catalog != nil {
		errs = append(errs, c.catalog.Close())
		c.catalog = nil
	}
	return errors.Join(errs...)
}
