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
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerMetrics tracks how a worker has been scheduled.
type WorkerMetrics struct {
	Wakes   int64 // wake signals that found the worker idle
	Batches int64 // batches run
}

// worker runs batch on its own goroutine whenever woken, repeating while
// batch reports more work. Wakes coalesce: any number of Wake calls while a
// run is pending cause one run.
type worker struct {
	batch    func() (more bool)
	wake     chan struct{}
	flush    chan chan struct{}
	stopChan chan struct{}
	name     string
	wg       sync.WaitGroup
	wakes    atomic.Int64
	batches  atomic.Int64
	running  atomic.Bool
}

func newWorker(name string, batch func() bool) *worker {
	return &worker{
		name:     name,
		batch:    batch,
		wake:     make(chan struct{}, 1),
		flush:    make(chan chan struct{}),
		stopChan: make(chan struct{}),
	}
}

func (w *worker) start() {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	w.wg.Add(1)
	go w.loop()
}

// Wake schedules a run. It never blocks and is safe from completion context.
func (w *worker) Wake() {
	select {
	case w.wake <- struct{}{}:
		w.wakes.Add(1)
	default:
	}
}

// Flush runs the worker until it reports no more work and returns once that
// run has finished. A run already in progress completes first.
func (w *worker) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case w.flush <- ack:
	case <-w.stopChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *worker) stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.stopChan)
	w.wg.Wait()
}

func (w *worker) metrics() WorkerMetrics {
	return WorkerMetrics{Wakes: w.wakes.Load(), Batches: w.batches.Load()}
}

func (w *worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopChan:
			return
		case <-w.wake:
			w.drain()
		case ack := <-w.flush:
			w.drain()
			close(ack)
		}
	}
}

// drain runs batches until there is no more work, yielding between them.
func (w *worker) drain() {
	for {
		w.batches.Add(1)
		if !w.batch() {
			return
		}
		select {
		case <-w.stopChan:
			return
		default:
		}
		runtime.Gosched()
	}
}
