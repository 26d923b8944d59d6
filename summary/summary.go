// Copyright © 2021 AMIS Technologies
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package summary emits the CSV run summary at server shutdown: a header
// row and a single data row holding byte totals, total wall-clock time and
// per-phase wall-clock times.
package summary

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Recorder accumulates byte counters and phase durations across a run.
// Safe for concurrent use by the per-client goroutines §4.13 describes.
type Recorder struct {
	mu          sync.Mutex
	bytesSent   uint64
	bytesRecv   uint64
	phaseTotals map[string]time.Duration
	start       time.Time
}

// New starts a recorder with its clock running.
func New() *Recorder {
	return &Recorder{
		phaseTotals: make(map[string]time.Duration),
		start:       now(),
	}
}

// AddBytesSent and AddBytesRecv accumulate wire byte totals.
func (r *Recorder) AddBytesSent(n uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bytesSent += n
}

func (r *Recorder) AddBytesRecv(n uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bytesRecv += n
}

// ObservePhase adds d to the named phase's accumulated wall-clock time.
func (r *Recorder) ObservePhase(phase string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phaseTotals[phase] += d
}

// TimePhase runs fn and records its elapsed time under phase.
func (r *Recorder) TimePhase(phase string, fn func() error) error {
	start := now()
	err := fn()
	r.ObservePhase(phase, now().Sub(start))
	return err
}

// WriteCSV emits the summary: a header row followed by one data row,
// byte totals first, then the seconds elapsed since New, then every
// observed phase's total duration in seconds, phases sorted by name for
// determinism.
func (r *Recorder) WriteCSV(w io.Writer) error {
	r.mu.Lock()
	phases := make([]string, 0, len(r.phaseTotals))
	for phase := range r.phaseTotals {
		phases = append(phases, phase)
	}
	sort.Strings(phases)

	header := []string{"bytes_sent", "bytes_recv", "wall_seconds"}
	row := []string{
		formatUint(r.bytesSent),
		formatUint(r.bytesRecv),
		formatFloat(now().Sub(r.start).Seconds()),
	}
	for _, phase := range phases {
		header = append(header, "phase_"+phase+"_seconds")
		row = append(row, formatFloat(r.phaseTotals[phase].Seconds()))
	}
	r.mu.Unlock()

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func now() time.Time { return time.Now() }

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
