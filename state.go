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
	"strings"

	"github.com/ZaparooProject/go-antsdr/internal/frame"
)

// State is the pipeline's streaming state.
type State int32

const (
	// StateStandby means no transfer is in flight and none will be submitted.
	StateStandby State = iota
	// StateStreaming means transfers are continuously resubmitted.
	StateStreaming
	// StateStopping means a stop is draining the last transfer.
	StateStopping
	// StateResetting means the recovery controller is restarting the engine.
	StateResetting
)

func (s State) String() string {
	switch s {
	case StateStandby:
		return "standby"
	case StateStreaming:
		return "streaming"
	case StateStopping:
		return "stopping"
	case StateResetting:
		return "resetting"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for v := StateStandby; v <= StateResetting; v++ {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// FrameMode selects the FPGA pulse length and with it the frame size.
type FrameMode int

const (
	// FrameModeShort frames are 53 words with a 200-byte payload.
	FrameModeShort FrameMode = 0
	// FrameModeLong frames are 403 words with a 1600-byte payload.
	FrameModeLong FrameMode = 1
)

// Words returns the frame length in 32-bit words.
func (m FrameMode) Words() int {
	if m == FrameModeLong {
		return frame.LongFrameWords
	}
	return frame.ShortFrameWords
}

// TransferSize returns the DMA transfer size in bytes; one frame per transfer.
func (m FrameMode) TransferSize() int { return m.Words() * frame.WordSize }

// PayloadSize returns the payload bytes of one valid frame.
func (m FrameMode) PayloadSize() int { return frame.PayloadSize(m.Words()) }

// Valid reports whether m is a known mode.
func (m FrameMode) Valid() bool { return m == FrameModeShort || m == FrameModeLong }

func (m FrameMode) String() string {
	switch m {
	case FrameModeShort:
		return "short"
	case FrameModeLong:
		return "long"
	default:
		return fmt.Sprintf("FrameMode(%d)", int(m))
	}
}

// ParseFrameMode accepts "short"/"long" or "0"/"1".
func ParseFrameMode(s string) (FrameMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short", "0":
		return FrameModeShort, nil
	case "long", "1":
		return FrameModeLong, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFrameMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m FrameMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrameMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *FrameMode) UnmarshalText(text []byte) error {
	v, err := ParseFrameMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// OperationMode selects the FPGA data source.
type OperationMode uint32

const (
	// OperationModeReal streams ADC data.
	OperationModeReal OperationMode = 0
	// OperationModeSimulation streams the FPGA test pattern.
	OperationModeSimulation OperationMode = 1
)

// Valid reports whether m is 0 or 1.
func (m OperationMode) Valid() bool { return m <= OperationModeSimulation }

func (m OperationMode) String() string {
	switch m {
	case OperationModeReal:
		return "real"
	case OperationModeSimulation:
		return "simulation"
	default:
		return fmt.Sprintf("OperationMode(%d)", uint32(m))
	}
}
