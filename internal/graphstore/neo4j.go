package graphstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/sync/errgroup"

	"github.com/stemgraph/stemgraph/internal/apperr"
	"github.com/stemgraph/stemgraph/internal/models"
)

const nodeReturn = "id(n) AS id, n.uuid AS uuid, n.name AS name, n.repo_domain AS repo_domain, n.description AS description"

// Neo4j implements Store on top of the official Neo4j driver.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// NewNeo4j creates a driver for the given instance. No connection is
// attempted here; call Verify before relying on the store.
func NewNeo4j(uri, username, password, database string, timeout time.Duration) (*Neo4j, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""), func(cfg *neo4j.Config) {
		cfg.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Neo4j{driver: driver, database: database, timeout: timeout}, nil
}

// Verify checks connectivity to the backing store.
func (s *Neo4j) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
	}
	return nil
}

// Close releases the driver and its connection pool.
func (s *Neo4j) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// run executes a single Cypher query and buffers the full result.
func (s *Neo4j) run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := neo4j.ExecuteQuery(ctx, s.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		if neo4j.IsConnectivityError(err) {
			return nil, fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("neo4j query: %w", err)
	}
	return result, nil
}

// FetchGraph pulls all nodes and all edges. The two queries run
// concurrently; the combined result forms one snapshot.
func (s *Neo4j) FetchGraph(ctx context.Context) (*models.Snapshot, error) {
	var nodes []models.Node
	var edges []models.Edge

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nodes, err = s.fetchNodes(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		edges, err = s.fetchEdges(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.Snapshot{Nodes: nodes, Edges: edges, FetchedAt: time.Now()}, nil
}

func (s *Neo4j) fetchNodes(ctx context.Context) ([]models.Node, error) {
	result, err := s.run(ctx, "MATCH (n:Module) RETURN "+nodeReturn+" ORDER BY id", nil)
	if err != nil {
		return nil, err
	}
	nodes := make([]models.Node, 0, len(result.Records))
	for _, rec := range result.Records {
		nodes = append(nodes, nodeFromRecord(rec))
	}
	return nodes, nil
}

func (s *Neo4j) fetchEdges(ctx context.Context) ([]models.Edge, error) {
	result, err := s.run(ctx,
		`MATCH (src:Module)-[:BUILDS_ON]->(dst:Module)
		 RETURN src.uuid AS source, dst.uuid AS target ORDER BY source, target`, nil)
	if err != nil {
		return nil, err
	}
	return edgesFromRecords(result.Records), nil
}

// FindByInternalID looks a module up by its store-assigned identity.
func (s *Neo4j) FindByInternalID(ctx context.Context, id int64) (*models.Node, error) {
	return s.findOne(ctx, "MATCH (n:Module) WHERE id(n) = $value RETURN "+nodeReturn, id)
}

// FindByUUID looks a module up by its externally stable identity.
func (s *Neo4j) FindByUUID(ctx context.Context, uuid string) (*models.Node, error) {
	return s.findOne(ctx, "MATCH (n:Module {uuid: $value}) RETURN "+nodeReturn, uuid)
}

// FindByName looks a module up by exact name. Names are unique by
// convention only, so the lowest internal id wins on a collision.
func (s *Neo4j) FindByName(ctx context.Context, name string) (*models.Node, error) {
	return s.findOne(ctx, "MATCH (n:Module {name: $value}) RETURN "+nodeReturn+" ORDER BY id LIMIT 1", name)
}

func (s *Neo4j) findOne(ctx context.Context, query string, value any) (*models.Node, error) {
	result, err := s.run(ctx, query, map[string]any{"value": value})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, apperr.ErrNotFound
	}
	node := nodeFromRecord(result.Records[0])
	return &node, nil
}

// CreateNode creates the module and its BUILDS_ON edges in one write
// transaction. Unknown builds-on targets roll the whole transaction back.
func (s *Neo4j) CreateNode(ctx context.Context, in NewNode) (*models.Node, error) {
	targets := uniqueStrings(in.BuildsOn)

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	id, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(targets) > 0 {
			cursor, err := tx.Run(ctx,
				"MATCH (p:Module) WHERE p.uuid IN $targets RETURN count(DISTINCT p) AS found",
				map[string]any{"targets": targets})
			if err != nil {
				return nil, err
			}
			rec, err := cursor.Single(ctx)
			if err != nil {
				return nil, err
			}
			found, _ := rec.Get("found")
			if n, _ := found.(int64); n != int64(len(targets)) {
				return nil, fmt.Errorf("%w: builds_on references an unknown module", apperr.ErrValidation)
			}
		}

		cursor, err := tx.Run(ctx,
			`CREATE (n:Module {uuid: $uuid, name: $name, repo_domain: $repo_domain, description: $description})
			 RETURN id(n) AS id`,
			map[string]any{
				"uuid":        in.UUID,
				"name":        in.Name,
				"repo_domain": in.RepoDomain,
				"description": in.Description,
			})
		if err != nil {
			return nil, err
		}
		rec, err := cursor.Single(ctx)
		if err != nil {
			return nil, err
		}
		id, _ := rec.Get("id")

		if len(targets) > 0 {
			cursor, err := tx.Run(ctx,
				`MATCH (n:Module {uuid: $uuid})
				 MATCH (p:Module) WHERE p.uuid IN $targets
				 CREATE (n)-[:BUILDS_ON]->(p)`,
				map[string]any{"uuid": in.UUID, "targets": targets})
			if err != nil {
				return nil, err
			}
			if _, err := cursor.Consume(ctx); err != nil {
				return nil, err
			}
		}

		return id, nil
	})
	if err != nil {
		if neo4j.IsConnectivityError(err) {
			return nil, fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
		}
		return nil, err
	}

	internalID, _ := id.(int64)
	return &models.Node{
		InternalID:  internalID,
		UUID:        in.UUID,
		Name:        in.Name,
		RepoDomain:  in.RepoDomain,
		Description: in.Description,
	}, nil
}

// BuildsOnEdges returns every edge of the BUILDS_ON subgraph reachable from
// the given UUID. Cypher's relationship-uniqueness rule bounds the
// variable-length expansion even when the data contains cycles.
func (s *Neo4j) BuildsOnEdges(ctx context.Context, uuid string) ([]models.Edge, error) {
	result, err := s.run(ctx,
		`MATCH (start:Module {uuid: $uuid})-[:BUILDS_ON*0..]->(src)-[:BUILDS_ON]->(dst)
		 RETURN DISTINCT src.uuid AS source, dst.uuid AS target`,
		map[string]any{"uuid": uuid})
	if err != nil {
		return nil, err
	}
	return edgesFromRecords(result.Records), nil
}

func nodeFromRecord(rec *neo4j.Record) models.Node {
	return models.Node{
		InternalID:  recordInt(rec, "id"),
		UUID:        recordString(rec, "uuid"),
		Name:        recordString(rec, "name"),
		RepoDomain:  recordString(rec, "repo_domain"),
		Description: recordString(rec, "description"),
	}
}

func edgesFromRecords(records []*neo4j.Record) []models.Edge {
	edges := make([]models.Edge, 0, len(records))
	for _, rec := range records {
		edges = append(edges, models.Edge{
			SourceUUID: recordString(rec, "source"),
			TargetUUID: recordString(rec, "target"),
		})
	}
	return edges
}

func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func recordInt(rec *neo4j.Record, key string) int64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	n, _ := v.(int64)
	return n
}

func uniqueStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
