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

package hierarchy

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// vancouverEdges is a forest version of the sample bus network.
var vancouverEdges = map[string][]string{
	"L1": {"L2", "L5"},
	"L2": {"L3", "L4", "L7"},
	"L3": {"L9"},
	"L5": {"L6"},
	"L7": {"L8"},
}

func TestDepths(t *testing.T) {
	h, err := New(vancouverEdges)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := map[string]int{
		"L1": 0,
		"L2": 1, "L5": 1,
		"L3": 2, "L4": 2, "L6": 2, "L7": 2,
		"L8": 3, "L9": 3,
	}
	got := make(map[string]int)
	for _, id := range h.Nodes() {
		d, err := h.DepthOf(id)
		if err != nil {
			t.Fatalf("DepthOf(%q): %v", id, err)
		}
		got[id] = d
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("depths mismatch (-want +got):\n%s", diff)
	}
	if got, want := h.MaxDepth(), 3; got != want {
		t.Errorf("MaxDepth() = %d, want %d", got, want)
	}
	if got, want := h.Len(), 9; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}

func TestDepthIsOrderIndependent(t *testing.T) {
	// Children are declared before their parents in every possible way a map
	// could be iterated; the result must not depend on it.
	edges := map[string][]string{
		"C": {"D"},
		"B": {"C"},
		"A": {"B"},
	}
	for i := 0; i < 20; i++ {
		h, err := New(edges)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if d, _ := h.DepthOf("D"); d != 3 {
			t.Fatalf("DepthOf(D) = %d, want 3", d)
		}
	}
}

func TestRelations(t *testing.T) {
	h, err := New(vancouverEdges, "L10")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if diff := cmp.Diff([]string{"L3", "L4", "L7"}, h.ChildrenOf("L2")); diff != "" {
		t.Errorf("ChildrenOf(L2) mismatch (-want +got):\n%s", diff)
	}
	if got := h.ChildrenOf("L9"); len(got) != 0 {
		t.Errorf("ChildrenOf(L9) = %v, want none", got)
	}
	if p, ok := h.ParentOf("L8"); !ok || p != "L7" {
		t.Errorf("ParentOf(L8) = %q, %t, want L7, true", p, ok)
	}
	if _, ok := h.ParentOf("L1"); ok {
		t.Errorf("ParentOf(L1) reported a parent for a root")
	}
	if diff := cmp.Diff([]string{"L1", "L10"}, h.Roots()); diff != "" {
		t.Errorf("Roots() mismatch (-want +got):\n%s", diff)
	}
	if !h.Contains("L10") || h.Contains("L11") {
		t.Errorf("Contains: got L10=%t L11=%t, want true false", h.Contains("L10"), h.Contains("L11"))
	}
	if _, err := h.DepthOf("L11"); err == nil {
		t.Errorf("DepthOf(L11) on unknown station: got no error")
	}
}

func TestChildrenOfReturnsCopy(t *testing.T) {
	h, _ := New(map[string][]string{"A": {"B", "C"}})
	c := h.ChildrenOf("A")
	c[0] = "Z"
	if diff := cmp.Diff([]string{"B", "C"}, h.ChildrenOf("A")); diff != "" {
		t.Errorf("ChildrenOf result aliases internal state (-want +got):\n%s", diff)
	}
}

func TestTopologicalOrder(t *testing.T) {
	h, err := New(vancouverEdges)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	order := h.TopologicalOrder()
	pos := make(map[string]int)
	for i, id := range order {
		pos[id] = i
	}
	prevDepth := 0
	for i, id := range order {
		d, _ := h.DepthOf(id)
		if d < prevDepth {
			t.Errorf("TopologicalOrder: depth decreases at position %d (%s)", i, id)
		}
		prevDepth = d
		if p, ok := h.ParentOf(id); ok && pos[p] > i {
			t.Errorf("TopologicalOrder: parent %s comes after child %s", p, id)
		}
	}
}

func TestDuplicateChildCollapsed(t *testing.T) {
	h, err := New(map[string][]string{"A": {"B", "B"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if diff := cmp.Diff([]string{"B"}, h.ChildrenOf("A")); diff != "" {
		t.Errorf("ChildrenOf(A) mismatch (-want +got):\n%s", diff)
	}
}

func TestStructuralErrors(t *testing.T) {
	for _, tc := range []struct {
		desc            string
		edges           map[string][]string
		wantDuplicate   *DuplicateParentError
		wantCycle       *CycleError
		wantUnreachable *UnreachableNodeError
	}{
		{
			desc:          "two parents",
			edges:         map[string][]string{"L3": {"L9"}, "L4": {"L9"}},
			wantDuplicate: &DuplicateParentError{Node: "L9", Parents: []string{"L3", "L4"}},
		},
		{
			desc:      "self loop",
			edges:     map[string][]string{"A": {"A"}},
			wantCycle: &CycleError{Nodes: []string{"A"}},
		},
		{
			desc:      "two node cycle",
			edges:     map[string][]string{"A": {"B"}, "B": {"A"}},
			wantCycle: &CycleError{Nodes: []string{"A", "B"}},
		},
		{
			desc:      "cycle beside a valid tree",
			edges:     map[string][]string{"R": {"S"}, "A": {"B"}, "B": {"C"}, "C": {"A"}},
			wantCycle: &CycleError{Nodes: []string{"A", "B", "C"}},
		},
		{
			desc:            "subtree hanging off a cycle",
			edges:           map[string][]string{"A": {"B"}, "B": {"A", "C"}, "C": {"D"}},
			wantCycle:       &CycleError{Nodes: []string{"A", "B"}},
			wantUnreachable: &UnreachableNodeError{Nodes: []string{"C", "D"}},
		},
	} {
		_, err := New(tc.edges)
		if err == nil {
			t.Errorf("New with %s: got no error", tc.desc)
			continue
		}
		if !errors.Is(err, ErrStructural) {
			t.Errorf("New with %s: error %v does not wrap ErrStructural", tc.desc, err)
		}
		var dup *DuplicateParentError
		if errors.As(err, &dup) != (tc.wantDuplicate != nil) {
			t.Errorf("New with %s: got DuplicateParentError %t, want %t", tc.desc, dup != nil, tc.wantDuplicate != nil)
		} else if dup != nil {
			if diff := cmp.Diff(tc.wantDuplicate, dup); diff != "" {
				t.Errorf("New with %s: DuplicateParentError mismatch (-want +got):\n%s", tc.desc, diff)
			}
		}
		var cyc *CycleError
		if errors.As(err, &cyc) != (tc.wantCycle != nil) {
			t.Errorf("New with %s: got CycleError %t, want %t", tc.desc, cyc != nil, tc.wantCycle != nil)
		} else if cyc != nil {
			if diff := cmp.Diff(tc.wantCycle, cyc); diff != "" {
				t.Errorf("New with %s: CycleError mismatch (-want +got):\n%s", tc.desc, diff)
			}
		}
		var unr *UnreachableNodeError
		if errors.As(err, &unr) != (tc.wantUnreachable != nil) {
			t.Errorf("New with %s: got UnreachableNodeError %t, want %t", tc.desc, unr != nil, tc.wantUnreachable != nil)
		} else if unr != nil {
			if diff := cmp.Diff(tc.wantUnreachable, unr); diff != "" {
				t.Errorf("New with %s: UnreachableNodeError mismatch (-want +got):\n%s", tc.desc, diff)
			}
		}
	}
}

func TestEmptyIDRejected(t *testing.T) {
	if _, err := New(map[string][]string{"A": {""}}); err == nil {
		t.Errorf("New with an empty child ID: got no error")
	}
	if _, err := New(nil, ""); err == nil {
		t.Errorf("New with an empty node ID: got no error")
	}
}

func TestEmptyHierarchy(t *testing.T) {
	h, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil): %v", err)
	}
	if got := h.MaxDepth(); got != -1 {
		t.Errorf("MaxDepth() of empty hierarchy = %d, want -1", got)
	}
}
