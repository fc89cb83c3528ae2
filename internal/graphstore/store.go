// Package graphstore issues read and write queries against the backing
// Neo4j graph database and maps results into the service's node and edge
// representation.
package graphstore

import (
	"context"

	"github.com/stemgraph/stemgraph/internal/models"
)

// NewNode carries the fields of a module to create, plus the UUIDs of the
// existing modules it builds on. The node and its outgoing BUILDS_ON edges
// are created in one transaction.
type NewNode struct {
	Name        string
	UUID        string
	RepoDomain  string
	Description string
	BuildsOn    []string
}

// Store is the gateway contract consumed by the cache and the module
// service. Consumers should depend on this interface rather than the
// concrete Neo4j type to facilitate testing with fakes.
type Store interface {
	// FetchGraph pulls every node and every edge in one pass and returns
	// them as a fresh snapshot.
	FetchGraph(ctx context.Context) (*models.Snapshot, error)

	// Point lookups. Each returns apperr.ErrNotFound when nothing matches.
	FindByInternalID(ctx context.Context, id int64) (*models.Node, error)
	FindByUUID(ctx context.Context, uuid string) (*models.Node, error)
	FindByName(ctx context.Context, name string) (*models.Node, error)

	// CreateNode creates a module and its BUILDS_ON edges atomically.
	// A builds-on UUID that does not exist fails the whole transaction with
	// apperr.ErrValidation; no partial node is left behind.
	CreateNode(ctx context.Context, n NewNode) (*models.Node, error)

	// BuildsOnEdges returns the edges of the BUILDS_ON subgraph reachable
	// from the given UUID, for resolving without relying on the cache.
	BuildsOnEdges(ctx context.Context, uuid string) ([]models.Edge, error)

	// Verify probes connectivity to the backing store.
	Verify(ctx context.Context) error

	Close(ctx context.Context) error
}
