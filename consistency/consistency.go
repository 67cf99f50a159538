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

// Package consistency repairs noisy counts so that no parent station reports
// fewer passengers than its children together.
//
// Parents are repaired top-down: a parent's value is final before its
// children are rescaled, and a child rescaled at one level is then used as
// the parent value of the next level.
package consistency

import (
	"fmt"
	"math/bits"

	"github.com/google/differential-privacy/transit/hierarchy"
	"github.com/google/differential-privacy/transit/station"
)

// NegativeCountError is returned when a noisy count handed to the enforcer is
// negative. The noise mechanisms never produce such counts, so it indicates
// a bug upstream.
type NegativeCountError struct {
	ID    string
	Count int64
}

func (e *NegativeCountError) Error() string {
	return fmt.Sprintf("noisy count of station %q is %d, must be nonnegative", e.ID, e.Count)
}

// Violation describes a parent whose children sum to more than its own count.
type Violation struct {
	Parent      string
	ParentCount int64
	ChildSum    uint64
}

// Reconcile returns a copy of counts in which, for every parent P of h,
//
//	sum(counts[c] for c in children(P)) <= counts[P].
//
// Parents are visited in the topological order of h. When the children of P
// sum to more than P, each child c is replaced by
//
//	floor(counts[c] * counts[P] / childSum),
//
// which keeps their proportions. A parent with a count of 0 forces all of its
// children to 0. counts must hold exactly the stations of h.
func Reconcile(h *hierarchy.Hierarchy, counts map[string]int64) (map[string]int64, error) {
	if err := validate(h, counts); err != nil {
		return nil, fmt.Errorf("Reconcile: %w", err)
	}
	out := make(map[string]int64, len(counts))
	for id, v := range counts {
		out[id] = v
	}
	for _, p := range h.TopologicalOrder() {
		children := h.ChildrenOf(p)
		if len(children) == 0 {
			continue
		}
		parent := out[p]
		if parent == 0 {
			for _, c := range children {
				out[c] = 0
			}
			continue
		}
		sum, err := childSum(out, children)
		if err != nil {
			return nil, fmt.Errorf("Reconcile: children of %q: %w", p, err)
		}
		if sum <= uint64(parent) {
			continue
		}
		for _, c := range children {
			out[c] = scaleDown(out[c], parent, sum)
		}
	}
	return out, nil
}

// ReconcileTable returns a copy of t whose noisy counts have been repaired by
// Reconcile.
func ReconcileTable(h *hierarchy.Hierarchy, t station.Table) (station.Table, error) {
	counts, err := Reconcile(h, t.NoisyCounts())
	if err != nil {
		return nil, err
	}
	return t.WithNoisyCounts(counts)
}

// Violations returns the parents of h whose children sum to more than their
// own count, in topological order. counts must hold exactly the stations of
// h.
func Violations(h *hierarchy.Hierarchy, counts map[string]int64) ([]Violation, error) {
	if err := validate(h, counts); err != nil {
		return nil, fmt.Errorf("Violations: %w", err)
	}
	var vs []Violation
	for _, p := range h.TopologicalOrder() {
		children := h.ChildrenOf(p)
		if len(children) == 0 {
			continue
		}
		sum, err := childSum(counts, children)
		if err != nil {
			return nil, fmt.Errorf("Violations: children of %q: %w", p, err)
		}
		if sum > uint64(counts[p]) {
			vs = append(vs, Violation{Parent: p, ParentCount: counts[p], ChildSum: sum})
		}
	}
	return vs, nil
}

func validate(h *hierarchy.Hierarchy, counts map[string]int64) error {
	for _, id := range h.TopologicalOrder() {
		v, ok := counts[id]
		if !ok {
			return fmt.Errorf("no noisy count for station %q", id)
		}
		if v < 0 {
			return &NegativeCountError{ID: id, Count: v}
		}
	}
	if len(counts) != h.Len() {
		for id := range counts {
			if !h.Contains(id) {
				return fmt.Errorf("station %q is not part of the hierarchy", id)
			}
		}
	}
	return nil
}

// childSum adds up the counts of children as uint64, which holds the sum of
// any two nonnegative int64 values.
func childSum(counts map[string]int64, children []string) (uint64, error) {
	var sum, carry uint64
	for _, c := range children {
		sum, carry = bits.Add64(sum, uint64(counts[c]), 0)
		if carry != 0 {
			return 0, fmt.Errorf("sum of noisy counts overflows")
		}
	}
	return sum, nil
}

// scaleDown returns floor(v * parent / sum) computed exactly. It requires
// v <= sum and parent < sum.
func scaleDown(v, parent int64, sum uint64) int64 {
	hi, lo := bits.Mul64(uint64(v), uint64(parent))
	// v*parent < sum*sum, so hi < sum and the quotient fits in 64 bits.
	q, _ := bits.Div64(hi, lo, sum)
	return int64(q)
}
