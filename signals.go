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

package antsdr

import (
	"fmt"
	"sync"
)

// SignalLine is one hardware output line.
type SignalLine interface {
	// Set drives the line high (asserted) or low.
	Set(high bool) error
}

// SignalReader is implemented by lines that can read back their level.
type SignalReader interface {
	Get() (bool, error)
}

// Signals are the FPGA control lines. Any line may be nil when the board
// does not wire it; writes to a nil line are skipped.
type Signals struct {
	Enable        SignalLine // data enable
	FrameMode     SignalLine // high selects long frames
	OperationMode SignalLine // high selects the simulation source
	TDD           SignalLine
}

func setLine(name string, line SignalLine, high bool) error {
	if line == nil {
		return nil
	}
	if err := line.Set(high); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSignalFailed, name, err)
	}
	return nil
}

// RecordingLine is a SignalLine for tests that remembers every write.
type RecordingLine struct {
	err     error
	history []bool
	mu      sync.Mutex
}

// Set implements SignalLine
func (l *RecordingLine) Set(high bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.history = append(l.history, high)
	return nil
}

// Get implements SignalReader
func (l *RecordingLine) Get() (bool, error) {
	return l.Value(), nil
}

// Value returns the last written level, false if never written.
func (l *RecordingLine) Value() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.history) == 0 {
		return false
	}
	return l.history[len(l.history)-1]
}

// History returns a copy of all written levels in order.
func (l *RecordingLine) History() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bool(nil), l.history...)
}

// SetError makes following writes fail with err; nil clears it.
func (l *RecordingLine) SetError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}
