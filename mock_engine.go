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

import "github.com/ZaparooProject/go-antsdr/internal/syncutil"

// MockEngine provides a mock implementation of Engine for testing. Tests
// drive completions explicitly with Complete and Fail.
type MockEngine struct {
	submitErr      error
	buf            []byte
	onComplete     CompletionFunc
	submits        int
	terminates     int
	mu             syncutil.Mutex
	pending        bool
	closed         bool
	deliverAborted bool
}

// NewMockEngine creates a new mock engine
func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

// Submit implements Engine
func (m *MockEngine) Submit(buf []byte, onComplete CompletionFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrEngineClosed
	}
	m.submits++
	if m.submitErr != nil {
		return m.submitErr
	}
	if m.pending {
		return ErrEngineBusy
	}
	m.buf = buf
	m.onComplete = onComplete
	m.pending = true
	return nil
}

// Terminate implements Engine. With DeliverAborted set, the pending transfer
// is completed with StatusAborted before Terminate returns.
func (m *MockEngine) Terminate() error {
	m.mu.Lock()
	m.terminates++
	cb, pending := m.take()
	deliver := m.deliverAborted
	m.mu.Unlock()

	if pending && deliver {
		cb(Completion{Status: StatusAborted})
	}
	return nil
}

// Close implements Engine
func (m *MockEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.pending = false
	return nil
}

// Type implements Engine
func (*MockEngine) Type() EngineType {
	return EngineMock
}

func (m *MockEngine) take() (CompletionFunc, bool) {
	if !m.pending {
		return nil, false
	}
	cb := m.onComplete
	m.pending = false
	m.onComplete = nil
	return cb, true
}

// Complete copies data into the pending buffer and delivers a successful
// completion. It reports false when nothing was pending.
func (m *MockEngine) Complete(data []byte) bool {
	m.mu.Lock()
	n := copy(m.buf, data)
	cb, ok := m.take()
	m.mu.Unlock()

	if !ok {
		return false
	}
	cb(Completion{Status: StatusComplete, Length: n})
	return true
}

// CompleteLength delivers a successful completion claiming length bytes
// without touching the buffer.
func (m *MockEngine) CompleteLength(length int) bool {
	m.mu.Lock()
	cb, ok := m.take()
	m.mu.Unlock()

	if !ok {
		return false
	}
	cb(Completion{Status: StatusComplete, Length: length})
	return true
}

// Fail delivers an error completion for the pending transfer.
func (m *MockEngine) Fail(err error) bool {
	m.mu.Lock()
	cb, ok := m.take()
	m.mu.Unlock()

	if !ok {
		return false
	}
	cb(Completion{Status: StatusError, Err: err})
	return true
}

// SetSubmitError makes every following Submit fail with err; nil clears it.
func (m *MockEngine) SetSubmitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitErr = err
}

// SetDeliverAborted controls whether Terminate completes the pending
// transfer with StatusAborted.
func (m *MockEngine) SetDeliverAborted(deliver bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliverAborted = deliver
}

// Pending reports whether a transfer is armed.
func (m *MockEngine) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// PendingSize returns the length of the armed buffer, or 0.
func (m *MockEngine) PendingSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pending {
		return 0
	}
	return len(m.buf)
}

// SubmitCount returns how many times Submit was called
func (m *MockEngine) SubmitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submits
}

// TerminateCount returns how many times Terminate was called
func (m *MockEngine) TerminateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.terminates
}
