// Package testutil provides a deterministic in-memory graph store for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/stemgraph/stemgraph/internal/apperr"
	"github.com/stemgraph/stemgraph/internal/graphstore"
	"github.com/stemgraph/stemgraph/internal/models"
)

// FakeStore implements graphstore.Store over in-memory slices. SetFetchErr
// and SetVerifyErr make the matching operations fail until cleared.
type FakeStore struct {
	mu     sync.Mutex
	nodes  []models.Node
	edges  []models.Edge
	nextID int64

	fetchErr  error
	verifyErr error
	fetches   int
}

// NewFakeStore seeds a store with the given nodes and edges.
func NewFakeStore(nodes []models.Node, edges []models.Edge) *FakeStore {
	s := &FakeStore{nextID: 1}
	for _, n := range nodes {
		if n.InternalID == 0 {
			n.InternalID = s.nextID
		}
		if n.InternalID >= s.nextID {
			s.nextID = n.InternalID + 1
		}
		s.nodes = append(s.nodes, n)
	}
	s.edges = append(s.edges, edges...)
	return s
}

// SetGraph replaces the stored graph, simulating out-of-band writes between
// refreshes.
func (s *FakeStore) SetGraph(nodes []models.Node, edges []models.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append([]models.Node(nil), nodes...)
	s.edges = append([]models.Edge(nil), edges...)
}

func (s *FakeStore) FetchGraph(ctx context.Context) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	// Copies, so a published snapshot stays immutable.
	return &models.Snapshot{
		Nodes: append([]models.Node(nil), s.nodes...),
		Edges: append([]models.Edge(nil), s.edges...),
	}, nil
}

func (s *FakeStore) FindByInternalID(ctx context.Context, id int64) (*models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.nodes {
		if n.InternalID == id {
			node := n
			return &node, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *FakeStore) FindByUUID(ctx context.Context, uuid string) (*models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.nodes {
		if n.UUID == uuid {
			node := n
			return &node, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *FakeStore) FindByName(ctx context.Context, name string) (*models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.nodes {
		if n.Name == name {
			node := n
			return &node, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *FakeStore) CreateNode(ctx context.Context, in graphstore.NewNode) (*models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, target := range in.BuildsOn {
		found := false
		for _, n := range s.nodes {
			if n.UUID == target {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: builds_on references an unknown module", apperr.ErrValidation)
		}
	}
	node := models.Node{
		InternalID:  s.nextID,
		UUID:        in.UUID,
		Name:        in.Name,
		RepoDomain:  in.RepoDomain,
		Description: in.Description,
	}
	s.nextID++
	s.nodes = append(s.nodes, node)
	for _, target := range in.BuildsOn {
		s.edges = append(s.edges, models.Edge{SourceUUID: in.UUID, TargetUUID: target})
	}
	return &node, nil
}

func (s *FakeStore) BuildsOnEdges(ctx context.Context, uuid string) ([]models.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The real store narrows this to the reachable subgraph; a consistent
	// superset is equally valid input for the resolver.
	return append([]models.Edge(nil), s.edges...), nil
}

func (s *FakeStore) Verify(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifyErr
}

// SetFetchErr makes subsequent FetchGraph calls fail (nil clears it).
func (s *FakeStore) SetFetchErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

// SetVerifyErr makes subsequent Verify calls fail (nil clears it).
func (s *FakeStore) SetVerifyErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifyErr = err
}

// Fetches reports how many times FetchGraph has been called.
func (s *FakeStore) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func (s *FakeStore) Close(ctx context.Context) error { return nil }

var _ graphstore.Store = (*FakeStore)(nil)
