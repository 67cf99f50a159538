//
// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package export turns a reconciled station table into a declarative graph
// description for an external renderer.
package export

import (
	"fmt"

	"github.com/google/differential-privacy/transit/hierarchy"
	"github.com/google/differential-privacy/transit/station"
)

// Node is a station as seen by the renderer.
type Node struct {
	ID            string
	Label         string
	OriginalValue int64
	NoisyValue    int64
}

// Edge connects a parent station to one of its children.
type Edge struct {
	ParentID string
	ChildID  string
}

// Graph is the exported description of a hierarchy. Nodes are in
// topological order, parents before children.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Options contains the options for Export.
type Options struct {
	// PruneZero drops stations whose noisy count is 0, together with every
	// edge touching them.
	PruneZero bool
}

// DanglingEdgeError reports an edge whose endpoint is not an exported node.
type DanglingEdgeError struct {
	Edge    Edge
	Missing string
}

func (e *DanglingEdgeError) Error() string {
	return fmt.Sprintf("edge %s -> %s refers to station %q, which is not exported", e.Edge.ParentID, e.Edge.ChildID, e.Missing)
}

// Export builds the Graph of h with counts taken from t. Every station of h
// must be present in t. Pruning happens before any edge is added, and the
// result is checked with Validate.
func Export(h *hierarchy.Hierarchy, t station.Table, opt *Options) (*Graph, error) {
	if opt == nil {
		opt = &Options{}
	}
	g := &Graph{}
	kept := make(map[string]bool, len(t))
	for _, id := range h.TopologicalOrder() {
		s, ok := t[id]
		if !ok {
			return nil, fmt.Errorf("Export: station %q of the hierarchy is missing from the table", id)
		}
		if opt.PruneZero && s.NoisyCount == 0 {
			continue
		}
		kept[id] = true
		g.Nodes = append(g.Nodes, Node{
			ID:            id,
			Label:         label(s),
			OriginalValue: s.OriginalCount,
			NoisyValue:    s.NoisyCount,
		})
	}
	for _, n := range g.Nodes {
		for _, c := range h.ChildrenOf(n.ID) {
			if kept[c] {
				g.Edges = append(g.Edges, Edge{ParentID: n.ID, ChildID: c})
			}
		}
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("Export: %w", err)
	}
	return g, nil
}

// label renders the text shown inside a node.
func label(s station.Station) string {
	return fmt.Sprintf("%s\n\nOriginal:\nTotal: %d\n\nNoisy:\nTotal: %d", s.Label(), s.OriginalCount, s.NoisyCount)
}

// Validate returns a *DanglingEdgeError if an edge of g refers to a node that
// is not in g, and an error if a node ID is repeated.
func (g *Graph) Validate() error {
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if ids[n.ID] {
			return fmt.Errorf("node %q is exported more than once", n.ID)
		}
		ids[n.ID] = true
	}
	for _, e := range g.Edges {
		for _, end := range []string{e.ParentID, e.ChildID} {
			if !ids[end] {
				return &DanglingEdgeError{Edge: e, Missing: end}
			}
		}
	}
	return nil
}
