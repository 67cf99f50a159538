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

// Package hierarchy models the parent/child structure of a transit network
// as a validated forest.
//
// A Hierarchy is immutable. Depths and the traversal order are derived once,
// when the Hierarchy is built, and are never stored anywhere else.
package hierarchy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/differential-privacy/transit/checks"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrStructural is wrapped by every error reporting that the parent/child
// edges do not form a forest.
var ErrStructural = errors.New("hierarchy is not a forest")

// CycleError reports stations lying on a cycle of parent/child edges.
type CycleError struct {
	Nodes []string // Sorted.
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("stations [%s] form a cycle", strings.Join(e.Nodes, ", "))
}

// Unwrap returns ErrStructural.
func (e *CycleError) Unwrap() error { return ErrStructural }

// DuplicateParentError reports a station listed as the child of more than
// one parent.
type DuplicateParentError struct {
	Node    string
	Parents []string // Sorted.
}

func (e *DuplicateParentError) Error() string {
	return fmt.Sprintf("station %q has more than one parent: [%s]", e.Node, strings.Join(e.Parents, ", "))
}

// Unwrap returns ErrStructural.
func (e *DuplicateParentError) Unwrap() error { return ErrStructural }

// UnreachableNodeError reports stations that cannot be reached from any root.
type UnreachableNodeError struct {
	Nodes []string // Sorted.
}

func (e *UnreachableNodeError) Error() string {
	return fmt.Sprintf("stations [%s] are not reachable from any root", strings.Join(e.Nodes, ", "))
}

// Unwrap returns ErrStructural.
func (e *UnreachableNodeError) Unwrap() error { return ErrStructural }

// Hierarchy is a forest of stations.
type Hierarchy struct {
	parent   map[string]string
	children map[string][]string
	depth    map[string]int
	roots    []string
	order    []string
}

// New builds a Hierarchy from a parent → children mapping. Stations given in
// nodes that take part in no edge become roots of their own single node
// trees. Repeated children within a single parent's list are collapsed.
//
// New returns a *DuplicateParentError if a station has several parents, a
// *CycleError if the edges form a cycle and an *UnreachableNodeError for
// stations that hang off a cycle without being on it. The last two are
// returned together via errors.Join. All of them wrap ErrStructural.
func New(edges map[string][]string, nodes ...string) (*Hierarchy, error) {
	h := &Hierarchy{
		parent:   make(map[string]string),
		children: make(map[string][]string),
		depth:    make(map[string]int),
	}
	all := make(map[string]bool)
	for _, n := range nodes {
		if err := checks.CheckStationID("hierarchy.New", n); err != nil {
			return nil, err
		}
		all[n] = true
	}

	parents := make([]string, 0, len(edges))
	for p := range edges {
		parents = append(parents, p)
	}
	sort.Strings(parents)

	// Parents claimed by every child, to report all of them on conflicts.
	claims := make(map[string][]string)
	for _, p := range parents {
		if err := checks.CheckStationID("hierarchy.New", p); err != nil {
			return nil, err
		}
		all[p] = true
		seen := make(map[string]bool)
		for _, c := range edges[p] {
			if err := checks.CheckStationID("hierarchy.New", c); err != nil {
				return nil, err
			}
			all[c] = true
			if seen[c] {
				continue
			}
			seen[c] = true
			claims[c] = append(claims[c], p)
			h.children[p] = append(h.children[p], c)
		}
		sort.Strings(h.children[p])
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		ps := claims[id]
		if len(ps) > 1 {
			return nil, &DuplicateParentError{Node: id, Parents: ps}
		}
		if len(ps) == 1 {
			h.parent[id] = ps[0]
		}
	}

	if err := checkAcyclic(ids, h.children); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, ok := h.parent[id]; !ok {
			h.roots = append(h.roots, id)
		}
	}
	h.traverse()
	if len(h.order) != len(ids) {
		// Unreachable without a cycle, which checkAcyclic has ruled out.
		return nil, &UnreachableNodeError{Nodes: h.unvisited(ids)}
	}
	return h, nil
}

// checkAcyclic returns a *CycleError, possibly joined with an
// *UnreachableNodeError, if children contains a cycle.
func checkAcyclic(ids []string, children map[string][]string) error {
	index := make(map[string]int64, len(ids))
	g := simple.NewDirectedGraph()
	for i, id := range ids {
		index[id] = int64(i)
		g.AddNode(simple.Node(i))
	}
	var onCycle []string
	for _, p := range ids {
		for _, c := range children[p] {
			if c == p {
				// simple graphs do not hold self edges.
				onCycle = append(onCycle, p)
				continue
			}
			g.SetEdge(simple.Edge{F: simple.Node(index[p]), T: simple.Node(index[c])})
		}
	}
	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		for _, n := range scc {
			onCycle = append(onCycle, ids[n.ID()])
		}
	}
	if len(onCycle) == 0 {
		return nil
	}
	sort.Strings(onCycle)
	cycleErr := &CycleError{Nodes: onCycle}

	// Anything below a cycle cannot be reached from a root either.
	marked := make(map[string]bool)
	queue := append([]string(nil), onCycle...)
	for _, n := range onCycle {
		marked[n] = true
	}
	var below []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range children[n] {
			if marked[c] {
				continue
			}
			marked[c] = true
			below = append(below, c)
			queue = append(queue, c)
		}
	}
	if len(below) == 0 {
		return cycleErr
	}
	sort.Strings(below)
	return errors.Join(cycleErr, &UnreachableNodeError{Nodes: below})
}

// traverse fills depth and order with a breadth-first walk from all roots.
func (h *Hierarchy) traverse() {
	queue := append([]string(nil), h.roots...)
	for _, r := range h.roots {
		h.depth[r] = 0
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		h.order = append(h.order, n)
		for _, c := range h.children[n] {
			if _, ok := h.depth[c]; ok {
				continue
			}
			h.depth[c] = h.depth[n] + 1
			queue = append(queue, c)
		}
	}
}

func (h *Hierarchy) unvisited(ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := h.depth[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Contains reports whether id is a station of h.
func (h *Hierarchy) Contains(id string) bool {
	_, ok := h.depth[id]
	return ok
}

// DepthOf returns the depth of id: 0 for roots, the parent's depth plus one
// otherwise.
func (h *Hierarchy) DepthOf(id string) (int, error) {
	d, ok := h.depth[id]
	if !ok {
		return 0, fmt.Errorf("DepthOf: unknown station %q", id)
	}
	return d, nil
}

// ChildrenOf returns the children of id in ascending order. The returned
// slice may be modified by the caller.
func (h *Hierarchy) ChildrenOf(id string) []string {
	return append([]string(nil), h.children[id]...)
}

// ParentOf returns the parent of id, or false if id is a root or unknown.
func (h *Hierarchy) ParentOf(id string) (string, bool) {
	p, ok := h.parent[id]
	return p, ok
}

// Roots returns the stations without a parent in ascending order.
func (h *Hierarchy) Roots() []string {
	return append([]string(nil), h.roots...)
}

// Nodes returns every station of h in ascending order.
func (h *Hierarchy) Nodes() []string {
	ids := append([]string(nil), h.order...)
	sort.Strings(ids)
	return ids
}

// TopologicalOrder returns every station of h such that parents precede
// their children and depths never decrease.
func (h *Hierarchy) TopologicalOrder() []string {
	return append([]string(nil), h.order...)
}

// MaxDepth returns the largest depth in h, or -1 if h is empty.
func (h *Hierarchy) MaxDepth() int {
	deepest := -1
	for _, d := range h.depth {
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}

// Len returns the number of stations in h.
func (h *Hierarchy) Len() int {
	return len(h.order)
}
