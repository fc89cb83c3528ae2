package moduleservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/stemgraph/stemgraph/internal/apperr"
	"github.com/stemgraph/stemgraph/internal/cache"
	"github.com/stemgraph/stemgraph/internal/graphstore"
	"github.com/stemgraph/stemgraph/internal/models"
	"github.com/stemgraph/stemgraph/internal/testutil"
)

const (
	uuidAlgebra  = "0b5a3c2e-1f60-4f9b-9c0e-111111111111"
	uuidCalculus = "4d7e8a1b-2c53-4e6d-8f0a-222222222222"
	uuidLinAlg   = "9f1b6c4d-3a72-4b8e-a1c5-333333333333"
)

func testService(t *testing.T) (*Service, *testutil.FakeStore) {
	t.Helper()

	nodes := []models.Node{
		{InternalID: 1, UUID: uuidAlgebra, Name: "algebra"},
		{InternalID: 2, UUID: uuidCalculus, Name: "calculus"},
		{InternalID: 3, UUID: uuidLinAlg, Name: "linear-algebra"},
	}
	edges := []models.Edge{
		{SourceUUID: uuidCalculus, TargetUUID: uuidAlgebra},
		{SourceUUID: uuidLinAlg, TargetUUID: uuidAlgebra},
	}
	store := testutil.NewFakeStore(nodes, edges)

	c := cache.New(store, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	if err := c.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	return NewService(store, c), store
}

func TestResolveIdentifier_ByInternalID(t *testing.T) {
	svc, _ := testService(t)
	node, err := svc.ResolveIdentifier(context.Background(), "2")
	if err != nil {
		t.Fatal(err)
	}
	if node.Name != "calculus" {
		t.Errorf("name = %q, want calculus", node.Name)
	}
}

func TestResolveIdentifier_ByUUID(t *testing.T) {
	svc, _ := testService(t)
	node, err := svc.ResolveIdentifier(context.Background(), uuidLinAlg)
	if err != nil {
		t.Fatal(err)
	}
	if node.InternalID != 3 {
		t.Errorf("id = %d, want 3", node.InternalID)
	}
}

func TestResolveIdentifier_ByName(t *testing.T) {
	svc, _ := testService(t)
	node, err := svc.ResolveIdentifier(context.Background(), "algebra")
	if err != nil {
		t.Fatal(err)
	}
	if node.UUID != uuidAlgebra {
		t.Errorf("uuid = %q", node.UUID)
	}
}

func TestResolveIdentifier_InternalIDBeatsName(t *testing.T) {
	svc, store := testService(t)
	// A module literally named "2" must lose against internal id 2.
	if _, err := store.CreateNode(context.Background(), graphstore.NewNode{
		Name: "2", UUID: "aaaaaaaa-0000-4000-8000-000000000001",
	}); err != nil {
		t.Fatal(err)
	}

	node, err := svc.ResolveIdentifier(context.Background(), "2")
	if err != nil {
		t.Fatal(err)
	}
	if node.Name != "calculus" {
		t.Errorf("resolved %q, want the internal-id match (calculus)", node.Name)
	}
}

func TestResolveIdentifier_UUIDBeatsName(t *testing.T) {
	svc, store := testService(t)
	// A module whose name is another module's UUID string.
	if _, err := store.CreateNode(context.Background(), graphstore.NewNode{
		Name: uuidAlgebra, UUID: "aaaaaaaa-0000-4000-8000-000000000002",
	}); err != nil {
		t.Fatal(err)
	}

	node, err := svc.ResolveIdentifier(context.Background(), uuidAlgebra)
	if err != nil {
		t.Fatal(err)
	}
	if node.Name != "algebra" {
		t.Errorf("resolved %q, want the UUID match (algebra)", node.Name)
	}
}

func TestResolveIdentifier_NumericFallsThroughToName(t *testing.T) {
	svc, store := testService(t)
	if _, err := store.CreateNode(context.Background(), graphstore.NewNode{
		Name: "404", UUID: "aaaaaaaa-0000-4000-8000-000000000003",
	}); err != nil {
		t.Fatal(err)
	}

	// No module has internal id 404, so the name match applies.
	node, err := svc.ResolveIdentifier(context.Background(), "404")
	if err != nil {
		t.Fatal(err)
	}
	if node.Name != "404" {
		t.Errorf("resolved %q, want name match", node.Name)
	}
}

func TestResolveIdentifier_NotFound(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.ResolveIdentifier(context.Background(), "no-such-module")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBuildsOn_List(t *testing.T) {
	svc, _ := testService(t)
	res, err := svc.BuildsOn(context.Background(), "calculus")
	if err != nil {
		t.Fatal(err)
	}
	if res.UUID != uuidCalculus {
		t.Errorf("uuid = %q", res.UUID)
	}
	if !reflect.DeepEqual(res.BuildsOn, []string{uuidAlgebra}) {
		t.Errorf("builds_on = %v", res.BuildsOn)
	}
}

func TestBuildsOn_EmptyIsNotAnError(t *testing.T) {
	svc, _ := testService(t)
	res, err := svc.BuildsOn(context.Background(), "algebra")
	if err != nil {
		t.Fatal(err)
	}
	if res.BuildsOn == nil || len(res.BuildsOn) != 0 {
		t.Errorf("builds_on = %#v, want empty slice", res.BuildsOn)
	}
}

func TestBuildsOnTree(t *testing.T) {
	svc, _ := testService(t)
	res, err := svc.BuildsOnTree(context.Background(), "linear-algebra")
	if err != nil {
		t.Fatal(err)
	}
	if res.Tree.UUID != uuidLinAlg {
		t.Errorf("root = %q", res.Tree.UUID)
	}
	if len(res.Tree.Children) != 1 || res.Tree.Children[0].UUID != uuidAlgebra {
		t.Errorf("children = %+v", res.Tree.Children)
	}
}

func TestCreateModule_UnknownPrerequisite(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.CreateModule(context.Background(), graphstore.NewNode{
		Name:     "statistics",
		UUID:     "aaaaaaaa-0000-4000-8000-000000000004",
		BuildsOn: []string{"bbbbbbbb-0000-4000-8000-000000000000"},
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestGraph_ReturnsCachedSnapshot(t *testing.T) {
	svc, _ := testService(t)
	snap := svc.Graph(context.Background())
	if snap == nil {
		t.Fatal("snapshot is nil")
	}
	if len(snap.Nodes) != 3 || len(snap.Edges) != 2 {
		t.Errorf("snapshot = %d nodes, %d edges", len(snap.Nodes), len(snap.Edges))
	}
}
