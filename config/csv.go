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

package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/differential-privacy/transit/station"
)

// ReadStations reads stations from CSV with the columns
//
//	id,name,count[,epsilon[,alighting,to_next]]
//
// The first line is a header and is skipped. An empty epsilon column means
// the station takes the ε of its depth; empty metric columns mean 0.
func ReadStations(r io.Reader) ([]station.Station, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var stations []station.Station
	skipLine := false
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("couldn't read the station csv: %w", err)
		}
		// Skip the header.
		if !skipLine {
			skipLine = true
			continue
		}
		line, _ := cr.FieldPos(0)
		if len(record) != 3 && len(record) != 4 && len(record) != 6 {
			return nil, fmt.Errorf("line %d of the station csv has %d columns, want 3, 4 or 6", line, len(record))
		}
		count, err := strconv.ParseInt(record[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("couldn't read count = %q of station %q as int64 on line %d: %w", record[2], record[0], line, err)
		}
		s := station.Station{ID: record[0], Name: record[1], OriginalCount: count}
		if len(record) == 4 && record[3] != "" {
			if s.EpsilonOverride, err = strconv.ParseFloat(record[3], 64); err != nil {
				return nil, fmt.Errorf("couldn't read epsilon = %q of station %q as float64 on line %d: %w", record[3], record[0], line, err)
			}
		}
		if len(record) == 6 {
			for _, m := range []struct {
				name string
				col  string
				dst  *int64
			}{
				{"alighting", record[4], &s.OriginalMetrics.Alighting},
				{"to_next", record[5], &s.OriginalMetrics.ToNext},
			} {
				if m.col == "" {
					continue
				}
				if *m.dst, err = strconv.ParseInt(m.col, 10, 64); err != nil {
					return nil, fmt.Errorf("couldn't read %s = %q of station %q as int64 on line %d: %w", m.name, m.col, record[0], line, err)
				}
			}
		}
		stations = append(stations, s)
	}
	return stations, nil
}

// ReadStationsFile reads the station CSV file at path.
func ReadStationsFile(path string) ([]station.Station, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the csv file = %q: %w", path, err)
	}
	defer f.Close()
	stations, err := ReadStations(f)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	return stations, nil
}

var resultHeader = []string{"id", "name", "original", "noisy", "epsilon", "alighting", "noisy_alighting", "to_next", "noisy_to_next"}

// WriteStations writes one CSV line per station of t, in ID order, after a
// header line.
func WriteStations(w io.Writer, t station.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultHeader); err != nil {
		return err
	}
	for _, id := range t.IDs() {
		s := t[id]
		record := []string{
			s.ID,
			s.Name,
			strconv.FormatInt(s.OriginalCount, 10),
			strconv.FormatInt(s.NoisyCount, 10),
			strconv.FormatFloat(s.Epsilon, 'g', -1, 64),
			strconv.FormatInt(s.OriginalMetrics.Alighting, 10),
			strconv.FormatInt(s.NoisyMetrics.Alighting, 10),
			strconv.FormatInt(s.OriginalMetrics.ToNext, 10),
			strconv.FormatInt(s.NoisyMetrics.ToNext, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStationsFile writes t to a new CSV file at path.
func WriteStationsFile(path string, t station.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("couldn't create the csv file = %q: %w", path, err)
	}
	if err := WriteStations(f, t); err != nil {
		return fmt.Errorf("couldn't write to the csv file = %q: %w", path, errors.Join(err, f.Close()))
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("couldn't close the csv file = %q: %w", path, err)
	}
	return nil
}
