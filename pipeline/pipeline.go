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

// Package pipeline chains the stages that turn the original passenger counts
// of a transit network into a differentially private, consistent graph:
//
//	hierarchy → epsilon → noise → consistency → export
//
// Every stage receives the station table produced by the previous one and
// returns a new table, so a Config can be run any number of times.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/transit/checks"
	"github.com/google/differential-privacy/transit/consistency"
	"github.com/google/differential-privacy/transit/epsilon"
	"github.com/google/differential-privacy/transit/export"
	"github.com/google/differential-privacy/transit/hierarchy"
	"github.com/google/differential-privacy/transit/noise"
	"github.com/google/differential-privacy/transit/rand"
	"github.com/google/differential-privacy/transit/station"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config contains everything a single run needs.
type Config struct {
	Edges       map[string][]string // Parent station ID → IDs of its children. Required.
	Stations    []station.Station   // Original counts of every station of the hierarchy. Required.
	Schedule    epsilon.Schedule    // Depth decay of ε. Schedule.Base is required.
	Sensitivity float64             // Change of a count caused by one traveller. Defaults to noise.DefaultSensitivity.
	Noise       noise.Kind          // Mechanism used to perturb the counts. Defaults to Laplace noise.
	PruneZero   bool                // Whether stations with a noisy count of 0 are left out of the graph.
	// Alpha in (0, 1) requests Laplace confidence intervals at level 1-Alpha
	// for every station. 0 means no intervals are computed.
	Alpha float64
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Sensitivity == 0 {
		out.Sensitivity = noise.DefaultSensitivity
	}
	return out
}

func (c Config) validate() error {
	if len(c.Stations) == 0 {
		return errors.New("pipeline.Run: Config has no stations")
	}
	if err := checks.CheckSensitivity("pipeline.Run", c.Sensitivity); err != nil {
		return err
	}
	if c.Alpha != 0 {
		if err := checks.CheckAlpha("pipeline.Run", c.Alpha); err != nil {
			return err
		}
		if c.Noise != noise.LaplaceNoise {
			return fmt.Errorf("pipeline.Run: confidence intervals require Laplace noise, got %v", c.Noise)
		}
	}
	return c.Schedule.Validate()
}

// Result is the outcome of a successful run.
type Result struct {
	RunID     string // Random identifier of the run, repeated in its log lines.
	Hierarchy *hierarchy.Hierarchy
	// Stations holds the original, noisy and reconciled counts as well as
	// the ε of every station.
	Stations station.Table
	Graph    *export.Graph
	// Intervals maps station IDs to the confidence interval of their raw
	// noisy count. Nil unless Config.Alpha is set.
	Intervals map[string]noise.ConfidenceInterval
	// Repaired lists the parents whose children summed to more than the
	// parent after noise was added.
	Repaired []consistency.Violation
}

// Run executes every stage once for cfg, drawing noise from src. A nil src
// is replaced by rand.NewCrypto(). No Result is returned if any stage fails.
func Run(cfg *Config, src rand.Source) (*Result, error) {
	if cfg == nil {
		return nil, errors.New("pipeline.Run: nil Config")
	}
	c := cfg.withDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	log.Infof("run %s: %d stations, %v noise, sensitivity %v", runID, len(c.Stations), c.Noise, c.Sensitivity)

	t, err := station.NewTable(c.Stations...)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Run: %w", err)
	}
	h, err := hierarchy.New(c.Edges, t.IDs()...)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Run: building hierarchy: %w", err)
	}
	for _, id := range h.Nodes() {
		if _, ok := t[id]; !ok {
			return nil, fmt.Errorf("pipeline.Run: station %q appears in the hierarchy but has no count", id)
		}
	}
	log.Infof("run %s: hierarchy with %d roots and maximum depth %d", runID, len(h.Roots()), h.MaxDepth())

	t, err = epsilon.Apply(h, t, c.Schedule)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Run: assigning epsilon: %w", err)
	}

	m, err := noise.New(c.Noise, src)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Run: %w", err)
	}
	t, err = noise.PerturbTable(m, t, c.Sensitivity)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Run: adding noise: %w", err)
	}

	var intervals map[string]noise.ConfidenceInterval
	if c.Alpha != 0 {
		intervals = make(map[string]noise.ConfidenceInterval, len(t))
		for _, id := range t.IDs() {
			s := t[id]
			ci, err := noise.ComputeConfidenceInterval(s.NoisyCount, c.Sensitivity, s.Epsilon, c.Alpha)
			if err != nil {
				return nil, fmt.Errorf("pipeline.Run: station %q: %w", id, err)
			}
			intervals[id] = ci
		}
	}

	repaired, err := consistency.Violations(h, t.NoisyCounts())
	if err != nil {
		return nil, fmt.Errorf("pipeline.Run: %w", err)
	}
	if len(repaired) > 0 {
		log.Warningf("run %s: rescaling the children of %d parents", runID, len(repaired))
	}
	t, err = consistency.ReconcileTable(h, t)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Run: reconciling counts: %w", err)
	}

	g, err := export.Export(h, t, &export.Options{PruneZero: c.PruneZero})
	if err != nil {
		return nil, fmt.Errorf("pipeline.Run: %w", err)
	}
	if pruned := h.Len() - len(g.Nodes); pruned > 0 {
		log.Warningf("run %s: pruned %d stations with a noisy count of 0", runID, pruned)
	}
	log.Infof("run %s: exported %d nodes and %d edges", runID, len(g.Nodes), len(g.Edges))

	return &Result{
		RunID:     runID,
		Hierarchy: h,
		Stations:  t,
		Graph:     g,
		Intervals: intervals,
		Repaired:  repaired,
	}, nil
}

// RunAll runs every config of cfgs on its own goroutine. The i-th run draws
// its noise from newSource(i); a nil newSource gives every run a crypto
// source. Runs share no state. When a run fails, runs that have not started
// yet are skipped and RunAll returns the first error and no results.
func RunAll(ctx context.Context, cfgs []*Config, newSource func(i int) rand.Source) ([]*Result, error) {
	results := make([]*Result, len(cfgs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, cfg := range cfgs {
		var src rand.Source
		if newSource != nil {
			src = newSource(i)
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := Run(cfg, src)
			if err != nil {
				return fmt.Errorf("pipeline.RunAll: config %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
