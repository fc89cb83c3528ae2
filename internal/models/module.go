// Package models defines the graph data types shared across the service.
package models

import "time"

// Node is one learning module as stored in the graph database.
// Nodes are read-only from the cache and resolver's perspective; the only
// mutation this service performs is creation.
type Node struct {
	InternalID  int64  `json:"id"`
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	RepoDomain  string `json:"repo_domain"`
	Description string `json:"description"`
}

// Edge is a directed BUILDS_ON relationship from a dependent module to one
// of its prerequisites. Edges reference existing UUIDs at creation time, but
// readers must tolerate dangling or cyclic edges discovered later.
type Edge struct {
	SourceUUID string `json:"source_uuid"`
	TargetUUID string `json:"target_uuid"`
}

// Snapshot is one full capture of the graph from a single query pass.
// A snapshot is immutable once published; the cache replaces the whole value
// rather than mutating it in place.
type Snapshot struct {
	Nodes     []Node
	Edges     []Edge
	FetchedAt time.Time
}

// TreeNode is one node of a resolved prerequisite tree. A module reachable
// via several paths keeps its children only at the first path that discovers
// it; later occurrences are childless leaves.
type TreeNode struct {
	UUID     string      `json:"uuid"`
	Children []*TreeNode `json:"children"`
}
