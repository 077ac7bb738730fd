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
	"net/netip"
	"time"

	"github.com/ZaparooProject/go-antsdr/internal/frame"
	"github.com/ZaparooProject/go-antsdr/internal/ring"
	"github.com/ZaparooProject/go-antsdr/pkg/wire"
)

// DefaultDestination is where datagrams go until SetDestination is called.
var DefaultDestination = netip.MustParseAddrPort("192.168.1.125:12288")

// TimingConfig holds hardware settle delays and the stop bound.
type TimingConfig struct {
	// StartSettle is the wait after driving the mode lines at start.
	StartSettle time.Duration
	// EnableSettle is the wait after asserting data-enable.
	EnableSettle time.Duration
	// RecoverySettle is the wait after de-asserting data-enable in recovery.
	RecoverySettle time.Duration
	// RestartSettle is the wait before re-asserting data-enable in recovery.
	RestartSettle time.Duration
	// StopTimeout bounds how long Stop waits for the last transfer to drain.
	StopTimeout time.Duration
}

// DefaultTimingConfig returns the delays the FPGA design expects.
func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		StartSettle:    500 * time.Microsecond,
		EnableSettle:   10 * time.Microsecond,
		RecoverySettle: 500 * time.Microsecond,
		RestartSettle:  time.Millisecond,
		StopTimeout:    time.Second,
	}
}

// Config holds pipeline configuration options
type Config struct {
	// Destination is the initial UDP destination. The zero value leaves
	// the destination unset and nothing is queued for sending.
	Destination netip.AddrPort

	Timing TimingConfig

	// BufferCount is the number of transfer buffers cycled round-robin.
	BufferCount int
	// RingSlots and SlotSize shape the frame ring.
	RingSlots int
	SlotSize  int
	// RawQueueDepth bounds raw transfer records awaiting extraction.
	RawQueueDepth int
	// AccumulatorSize is the accumulation buffer capacity in bytes.
	AccumulatorSize int
	// ExtractBatch and SendBatch bound the work done per worker wake.
	ExtractBatch int
	SendBatch    int
	// FragmentSize caps payload bytes per datagram.
	FragmentSize int
	// TOS is the IP type-of-service byte for outgoing datagrams; 0 leaves
	// the socket default.
	TOS int

	FrameMode     FrameMode
	OperationMode OperationMode

	// LocalRead queues transfers for extraction even without a destination
	// so ReadPayload has data to return.
	LocalRead bool
	// LockMemory pins the transfer buffer arena where the platform allows.
	LockMemory bool
}

// DefaultConfig returns the default pipeline configuration
func DefaultConfig() *Config {
	return &Config{
		Destination:     DefaultDestination,
		Timing:          DefaultTimingConfig(),
		BufferCount:     16,
		RingSlots:       ring.DefaultSlots,
		SlotSize:        ring.DefaultSlotSize,
		RawQueueDepth:   ring.DefaultQueueDepth,
		AccumulatorSize: frame.AccumulatorSize,
		ExtractBatch:    50,
		SendBatch:       200,
		FragmentSize:    wire.MaxFragmentSize,
		FrameMode:       FrameModeLong,
		OperationMode:   OperationModeReal,
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.BufferCount <= 0:
		return fmt.Errorf("%w: buffer count %d", ErrInvalidConfig, c.BufferCount)
	case c.RingSlots <= 0 || c.SlotSize <= 0:
		return fmt.Errorf("%w: ring %d x %d", ErrInvalidConfig, c.RingSlots, c.SlotSize)
	case c.SlotSize < frame.LongPayload:
		return fmt.Errorf("%w: slot size %d smaller than a long payload", ErrInvalidConfig, c.SlotSize)
	case c.RawQueueDepth <= 0:
		return fmt.Errorf("%w: raw queue depth %d", ErrInvalidConfig, c.RawQueueDepth)
	case c.AccumulatorSize < 2*frame.MaxTransferSize:
		return fmt.Errorf("%w: accumulator size %d", ErrInvalidConfig, c.AccumulatorSize)
	case c.ExtractBatch <= 0 || c.SendBatch <= 0:
		return fmt.Errorf("%w: batch sizes %d/%d", ErrInvalidConfig, c.ExtractBatch, c.SendBatch)
	case c.FragmentSize <= 0 || c.FragmentSize > wire.MaxFragmentSize:
		return fmt.Errorf("%w: fragment size %d", ErrInvalidConfig, c.FragmentSize)
	case c.TOS < 0 || c.TOS > 255:
		return fmt.Errorf("%w: tos %d", ErrInvalidConfig, c.TOS)
	case c.Timing.StopTimeout <= 0:
		return fmt.Errorf("%w: stop timeout %v", ErrInvalidConfig, c.Timing.StopTimeout)
	case !c.FrameMode.Valid():
		return fmt.Errorf("%w: %d", ErrInvalidFrameMode, int(c.FrameMode))
	case !c.OperationMode.Valid():
		return fmt.Errorf("%w: %d", ErrInvalidOperationMode, uint32(c.OperationMode))
	case c.Destination.IsValid() && !c.Destination.Addr().Is4():
		return fmt.Errorf("%w: %s is not IPv4", ErrInvalidDestination, c.Destination)
	}
	return nil
}
