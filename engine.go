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

// Status is the outcome of one transfer.
type Status int

const (
	// StatusComplete means Length bytes were written into the buffer.
	StatusComplete Status = iota
	// StatusError means the engine reported a transfer fault.
	StatusError
	// StatusAborted means the transfer was cut short by Terminate.
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusError:
		return "error"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Completion reports the result of a submitted transfer.
type Completion struct {
	Err    error // set for StatusError when the engine knows more
	Status Status
	Length int
}

// CompletionFunc receives transfer results. It runs in the engine's
// completion context and must not block.
type CompletionFunc func(Completion)

// Engine defines the interface to a device-to-memory DMA channel.
// This can be implemented by a character device, a serial bridge or a
// simulator.
type Engine interface {
	// Submit arms one transfer into buf. onComplete is called at most once
	// for it, from the engine's completion context and never from within
	// Submit itself. Submit must not block and may be called from inside
	// onComplete.
	Submit(buf []byte, onComplete CompletionFunc) error

	// Terminate aborts any in-flight transfer. Its completion is either
	// delivered with StatusAborted or dropped.
	Terminate() error

	// Close releases the engine. Submit fails afterwards.
	Close() error

	// Type returns the engine type
	Type() EngineType
}

// EngineType names an engine implementation
type EngineType string

const (
	// EngineCharDev is a Linux S2MM character device.
	EngineCharDev EngineType = "chardev"
	// EngineUART is a serial bridge delivering fixed-size transfers.
	EngineUART EngineType = "uart"
	// EngineSim synthesizes frames in software.
	EngineSim EngineType = "sim"
	// EngineMock is a mock engine for testing
	EngineMock EngineType = "mock"
)
