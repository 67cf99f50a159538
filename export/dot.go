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

package export

import (
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// dotNode is a Node with the integer ID gonum graphs require.
type dotNode struct {
	id   int64
	node Node
}

func (n dotNode) ID() int64 { return n.id }

// DOTID makes the station ID the node name in the DOT output.
func (n dotNode) DOTID() string { return n.node.ID }

func (n dotNode) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: n.node.Label}}
}

type attributes []encoding.Attribute

func (a attributes) Attributes() []encoding.Attribute { return a }

// dotGraph lays the tree out top to bottom with filled ellipses.
type dotGraph struct {
	*simple.DirectedGraph
}

func (dotGraph) DOTAttributers() (g, n, e encoding.Attributer) {
	g = attributes{
		{Key: "rankdir", Value: "TB"},
		{Key: "size", Value: "12,8"},
	}
	n = attributes{
		{Key: "shape", Value: "ellipse"},
		{Key: "style", Value: "filled"},
		{Key: "fillcolor", Value: "lightblue"},
	}
	return g, n, attributes{}
}

// MarshalDOT returns the Graphviz DOT description of g under the given graph
// name. It fails if g does not pass Validate.
func (g *Graph) MarshalDOT(name string) ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	dg := dotGraph{simple.NewDirectedGraph()}
	nodes := make(map[string]dotNode, len(g.Nodes))
	for i, n := range g.Nodes {
		dn := dotNode{id: int64(i), node: n}
		nodes[n.ID] = dn
		dg.AddNode(dn)
	}
	for _, e := range g.Edges {
		dg.SetEdge(simple.Edge{F: nodes[e.ParentID], T: nodes[e.ChildID]})
	}
	return dot.Marshal(dg, name, "", "\t")
}
