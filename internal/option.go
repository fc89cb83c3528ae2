package internal

import "github.com/stemgraph/stemgraph/internal/graphstore"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	store  graphstore.Store
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStore overrides the graph store. Used by tests to run the service
// against a fake instead of a live Neo4j instance.
func WithStore(store graphstore.Store) Option {
	return func(a *application) {
		a.store = store
	}
}
