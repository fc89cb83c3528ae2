// Package moduleservice coordinates the store gateway, the graph cache, and
// the dependency resolver behind one service surface.
package moduleservice

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"

	"github.com/stemgraph/stemgraph/internal/apperr"
	"github.com/stemgraph/stemgraph/internal/cache"
	"github.com/stemgraph/stemgraph/internal/graphstore"
	"github.com/stemgraph/stemgraph/internal/models"
	"github.com/stemgraph/stemgraph/internal/resolve"
)

// BuildsOnList is the flat form of a dependency resolution.
type BuildsOnList struct {
	UUID     string   `json:"uuid"`
	BuildsOn []string `json:"builds_on"`
}

// BuildsOnTree is the nested form of a dependency resolution.
type BuildsOnTree struct {
	UUID string           `json:"uuid"`
	Tree *models.TreeNode `json:"builds_on_tree"`
}

// Service implements the module graph operations.
type Service struct {
	store graphstore.Store
	cache *cache.Cache
}

// NewService creates a new module service.
func NewService(store graphstore.Store, c *cache.Cache) *Service {
	return &Service{store: store, cache: c}
}

// Graph returns the cached snapshot. Nil before the initial load completes.
func (s *Service) Graph(_ context.Context) *models.Snapshot {
	return s.cache.Current()
}

// ResolveIdentifier maps a caller-supplied identifier to exactly one module.
// It tries, in order: internal id, UUID, exact name. The precedence keeps a
// lookup unambiguous when a name happens to collide with another module's id
// or UUID string.
func (s *Service) ResolveIdentifier(ctx context.Context, identifier string) (*models.Node, error) {
	if identifier == "" {
		return nil, apperr.ErrNotFound
	}

	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		node, err := s.store.FindByInternalID(ctx, id)
		if err == nil {
			return node, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}

	if _, err := uuid.Parse(identifier); err == nil {
		node, err := s.store.FindByUUID(ctx, identifier)
		if err == nil {
			return node, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}

	return s.store.FindByName(ctx, identifier)
}

// GetModule returns the module matched by the identifier.
func (s *Service) GetModule(ctx context.Context, identifier string) (*models.Node, error) {
	return s.ResolveIdentifier(ctx, identifier)
}

// CreateModule forwards a node creation to the store. The cache picks the
// new module up on its next scheduled refresh; the write does not wait.
func (s *Service) CreateModule(ctx context.Context, in graphstore.NewNode) (*models.Node, error) {
	return s.store.CreateNode(ctx, in)
}

// BuildsOn resolves everything the module transitively builds on, as a flat
// list. The edge set comes from a fresh targeted query, so the result can be
// at most one store round-trip stale.
func (s *Service) BuildsOn(ctx context.Context, identifier string) (*BuildsOnList, error) {
	node, err := s.ResolveIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	edges, err := s.store.BuildsOnEdges(ctx, node.UUID)
	if err != nil {
		return nil, err
	}
	return &BuildsOnList{UUID: node.UUID, BuildsOn: resolve.List(node.UUID, edges)}, nil
}

// BuildsOnTree resolves the same reachability as BuildsOn but preserves the
// parent/child nesting.
func (s *Service) BuildsOnTree(ctx context.Context, identifier string) (*BuildsOnTree, error) {
	node, err := s.ResolveIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	edges, err := s.store.BuildsOnEdges(ctx, node.UUID)
	if err != nil {
		return nil, err
	}
	return &BuildsOnTree{UUID: node.UUID, Tree: resolve.Tree(node.UUID, edges)}, nil
}

// Health probes backing-store reachability.
func (s *Service) Health(ctx context.Context) error {
	return s.store.Verify(ctx)
}
