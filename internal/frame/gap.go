// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package frame

// GapTracker infers lost frames from the FPGA frame counter. It is not safe
// for concurrent use; the pipeline guards it with its state lock.
type GapTracker struct {
	last      uint32
	missing   uint64
	anomalies uint64
	seen      bool
}

// Observe records counter from a valid frame. missed is the number of frames
// skipped since the previous counter. anomaly is set for a counter that did
// not advance by at least one (a repeat or reorder). Counter wraparound is
// contiguous. The missing total never decreases.
func (g *GapTracker) Observe(counter uint32) (missed uint32, anomaly bool) {
	if !g.seen {
		g.seen = true
		g.last = counter
		return 0, false
	}

	expected := g.last + 1
	switch {
	case counter > expected:
		missed = counter - expected
		g.missing += uint64(missed)
	case counter < expected:
		anomaly = true
		g.anomalies++
	}
	g.last = counter
	return missed, anomaly
}

// Reset forgets all history. Called at stream start only.
func (g *GapTracker) Reset() {
	*g = GapTracker{}
}

// Missing returns the cumulative number of missing frames.
func (g *GapTracker) Missing() uint64 { return g.missing }

// Anomalies returns how many counters failed to advance.
func (g *GapTracker) Anomalies() uint64 { return g.anomalies }

// Last returns the last observed counter and whether any frame was seen.
func (g *GapTracker) Last() (uint32, bool) { return g.last, g.seen }
