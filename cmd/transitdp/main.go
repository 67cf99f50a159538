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

// transitdp adds differentially private noise to the passenger counts of a
// transit network, makes every parent count cover its children again and
// writes the resulting tree as Graphviz DOT.
//
// Usage:
//
//	go run ./cmd/transitdp --config=config/testdata/vancouver.yaml --dot_output=tree.dot --plot_output=counts.png
//
// Render the tree with `dot -Tjpeg tree.dot -o tree.jpeg`.
package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/transit/config"
	"github.com/google/differential-privacy/transit/pipeline"
	"github.com/google/differential-privacy/transit/rand"
)

var (
	configFile = flag.String("config", "", "YAML file describing the hierarchy, the station counts and the privacy parameters.")
	seed       = flag.Int64("seed", -1, "Seed of the noise. Negative values use the seed of the config file, or crypto randomness if it has none.")
	dotOutput  = flag.String("dot_output", "", "Output file for the DOT description of the tree. Defaults to stdout.")
	plotOutput = flag.String("plot_output", "", "Optional output image (.png, .svg, .pdf) comparing original and noisy counts.")
	csvOutput  = flag.String("csv_output", "", "Optional output csv file with the original, noisy and ε value of every station.")
	graphName  = flag.String("graph_name", "", "Name of the DOT graph. Defaults to the name in the config file.")
)

func main() {
	flag.Parse()

	log.Infof("transitdp was run with arguments: config = %q, seed = %d, dot_output = %q, plot_output = %q, csv_output = %q",
		*configFile, *seed, *dotOutput, *plotOutput, *csvOutput)

	if *configFile == "" {
		log.Exit("No config file was chosen")
	}
	if err := run(); err != nil {
		log.Exitf("Couldn't build the private tree, err = %v", err)
	}
	log.Infof("Successfully finished")
}

func run() error {
	f, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	cfg, err := f.PipelineConfig()
	if err != nil {
		return err
	}
	src := f.Source()
	if *seed >= 0 {
		src = rand.NewSeeded(uint64(*seed))
	}
	res, err := pipeline.Run(cfg, src)
	if err != nil {
		return err
	}
	for _, line := range intervalLines(res, cfg.Alpha) {
		log.Info(line)
	}

	name := *graphName
	if name == "" {
		name = f.Name
	}
	if name == "" {
		name = "transit"
	}
	if err := writeDOT(res, name, *dotOutput); err != nil {
		return err
	}
	if *plotOutput != "" {
		if err := writeChart(res, name, *plotOutput); err != nil {
			return err
		}
	}
	if *csvOutput != "" {
		if err := config.WriteStationsFile(*csvOutput, res.Stations); err != nil {
			return err
		}
	}
	return nil
}

// intervalLines describes the confidence interval of every station of res
// that has one, in ascending station ID order.
func intervalLines(res *pipeline.Result, alpha float64) []string {
	var lines []string
	for _, id := range res.Stations.IDs() {
		ci, ok := res.Intervals[id]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("run %s: station %s lies in [%v, %v] with probability %v", res.RunID, id, ci.LowerBound, ci.UpperBound, 1-alpha))
	}
	return lines
}

// writeDOT writes the exported graph of res to path, or to stdout if path is
// empty.
func writeDOT(res *pipeline.Result, name, path string) error {
	b, err := res.Graph.MarshalDOT(name)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if path == "" {
		_, err = os.Stdout.Write(b)
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("couldn't write the DOT file = %q: %w", path, err)
	}
	log.Infof("Tree diagram saved as %s", path)
	return nil
}
