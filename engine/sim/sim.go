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

// Package sim provides a DMA engine that synthesizes FPGA frames, for
// running the pipeline without hardware and for exercising its loss
// handling with injected counter gaps, split frames and transfer faults.
package sim

import (
	"math/rand/v2"
	"sync"
	"time"

	antsdr "github.com/ZaparooProject/go-antsdr"
	"github.com/ZaparooProject/go-antsdr/internal/frame"
)

// Config configures the simulated FPGA.
type Config struct {
	// Interval is the time between transfers; Jitter adds up to that much
	// random extra latency to each one.
	Interval time.Duration
	Jitter   time.Duration
	// GapEvery skips GapSize counter values every GapEvery frames.
	GapEvery int
	GapSize  uint32
	// SplitEvery emits every SplitEvery-th frame straddling two transfers.
	SplitEvery int
	// FaultEvery fails every FaultEvery-th transfer with a transfer error.
	FaultEvery int
	// FirstCounter is the counter of the first frame.
	FirstCounter uint32
	Seed         uint64
}

// DefaultConfig returns a clean 1 kHz frame source.
func DefaultConfig() Config {
	return Config{
		Interval:     time.Millisecond,
		FirstCounter: 1,
	}
}

// Stats counts what the engine produced.
type Stats struct {
	Transfers uint64
	Frames    uint64
	Skipped   uint64 // counter values skipped by gap injection
	Splits    uint64
	Faults    uint64
	Aborted   uint64
}

type request struct {
	onComplete antsdr.CompletionFunc
	buf        []byte
	aborted    bool
}

// Engine implements antsdr.Engine. Completions run on the engine's own
// goroutine, one transfer at a time.
type Engine struct {
	rng     *rand.Rand
	pending *request
	kick    chan struct{}
	abort   chan struct{}
	done    chan struct{}
	carry   []byte
	stats   Stats
	config  Config
	wg      sync.WaitGroup
	mu      sync.Mutex
	counter uint32
	closed  bool
}

// New starts a simulated engine.
func New(config Config) *Engine {
	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	e := &Engine{
		config:  config,
		rng:     rand.New(rand.NewPCG(seed, seed^0x5DEECE66D)), //nolint:gosec // simulation only
		counter: config.FirstCounter,
		kick:    make(chan struct{}, 1),
		abort:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	e.wg.Add(1)
	go e.loop()
	return e
}

// Submit implements antsdr.Engine
func (e *Engine) Submit(buf []byte, onComplete antsdr.CompletionFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return antsdr.ErrEngineClosed
	}
	if e.pending != nil {
		return antsdr.ErrEngineBusy
	}
	e.pending = &request{buf: buf, onComplete: onComplete}
	notify(e.kick)
	return nil
}

// Terminate implements antsdr.Engine. A pending transfer completes with
// StatusAborted on the engine goroutine.
func (e *Engine) Terminate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil {
		e.pending.aborted = true
		notify(e.abort)
	}
	return nil
}

// Close implements antsdr.Engine. A pending transfer is dropped.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.pending = nil
	e.mu.Unlock()

	close(e.done)
	e.wg.Wait()
	return nil
}

// Type implements antsdr.Engine
func (*Engine) Type() antsdr.EngineType {
	return antsdr.EngineSim
}

// Stats returns a snapshot of the production counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (e *Engine) loop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case <-e.kick:
		}

		e.mu.Lock()
		req := e.pending
		e.mu.Unlock()
		if req == nil {
			continue
		}
		if !e.wait(req) {
			return
		}

		e.mu.Lock()
		if e.pending != req {
			e.mu.Unlock()
			continue
		}
		e.pending = nil
		var c antsdr.Completion
		if req.aborted {
			e.stats.Aborted++
			c = antsdr.Completion{Status: antsdr.StatusAborted}
		} else {
			c = e.fill(req.buf)
		}
		e.mu.Unlock()

		req.onComplete(c)
	}
}

// wait sleeps for one transfer period or until req is aborted. It returns
// false when the engine closes.
func (e *Engine) wait(req *request) bool {
	d := e.config.Interval
	if e.config.Jitter > 0 {
		e.mu.Lock()
		d += time.Duration(e.rng.Int64N(int64(e.config.Jitter) + 1))
		e.mu.Unlock()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			return true
		case <-e.abort:
			e.mu.Lock()
			aborted := req.aborted
			e.mu.Unlock()
			if aborted {
				return true
			}
		case <-e.done:
			return false
		}
	}
}

// fill writes the next transfer into buf. Must be called with mu held.
func (e *Engine) fill(buf []byte) antsdr.Completion {
	e.stats.Transfers++
	if n := e.config.FaultEvery; n > 0 && e.stats.Transfers%uint64(n) == 0 {
		e.stats.Faults++
		return antsdr.Completion{Status: antsdr.StatusError, Err: antsdr.ErrTransferFailed}
	}

	if len(e.carry) > 0 {
		n := copy(buf, e.carry)
		clear(buf[n:])
		e.carry = nil
		return antsdr.Completion{Status: antsdr.StatusComplete, Length: len(buf)}
	}

	words := len(buf) / frame.WordSize
	if words != frame.ShortFrameWords && words != frame.LongFrameWords {
		clear(buf)
		return antsdr.Completion{Status: antsdr.StatusComplete, Length: len(buf)}
	}

	e.stats.Frames++
	if n := e.config.GapEvery; n > 0 && e.stats.Frames%uint64(n) == 0 {
		e.counter += e.config.GapSize
		e.stats.Skipped += uint64(e.config.GapSize)
	}
	counter := e.counter
	e.counter++
	data := frame.Build(words, counter, frame.PatternPayload(frame.PayloadSize(words), counter))

	if n := e.config.SplitEvery; n > 0 && e.stats.Frames%uint64(n) == 0 {
		skew := 1 + e.rng.IntN(frame.MisalignedSearchWords)
		cut := len(data) - skew*frame.WordSize
		clear(buf[:skew*frame.WordSize])
		copy(buf[skew*frame.WordSize:], data[:cut])
		e.carry = data[cut:]
		e.stats.Splits++
	} else {
		copy(buf, data)
	}
	return antsdr.Completion{Status: antsdr.StatusComplete, Length: len(buf)}
}
