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

//go:build linux

// Package chardev drives an S2MM DMA channel exposed as a Linux character
// device. Each read of the device returns at most one completed transfer.
package chardev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	antsdr "github.com/ZaparooProject/go-antsdr"
)

// DefaultPath is the device node created by the FPGA DMA driver.
const DefaultPath = "/dev/antsdr_dma"

// Config configures a character device engine.
type Config struct {
	Retry *antsdr.RetryConfig
	Path  string
	// PollInterval bounds how long the engine sleeps in poll before
	// re-checking for shutdown.
	PollInterval time.Duration
}

// DefaultConfig returns the config for the standard device node.
func DefaultConfig() Config {
	return Config{
		Path:         DefaultPath,
		PollInterval: 100 * time.Millisecond,
		Retry:        antsdr.DefaultRetryConfig(),
	}
}

type request struct {
	onComplete antsdr.CompletionFunc
	buf        []byte
	aborted    bool
}

// Engine implements antsdr.Engine over a device file descriptor.
type Engine struct {
	pending *request
	kick    chan struct{}
	done    chan struct{}
	path    string
	wg      sync.WaitGroup
	poll    time.Duration
	mu      sync.Mutex
	fd      int
	wakeFD  int
	closed  bool
}

// Open opens the device, retrying while it is busy.
func Open(ctx context.Context, config Config) (*Engine, error) {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 100 * time.Millisecond
	}

	fd := -1
	err := antsdr.RetryWithConfig(ctx, config.Retry, func() error {
		var err error
		fd, err = unix.Open(config.Path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err != nil {
			return classify("open", config.Path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	wakeFD, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(fd)
		return nil, antsdr.NewEngineError("eventfd", config.Path, err, antsdr.ErrorTypePermanent)
	}

	e := &Engine{
		fd:     fd,
		wakeFD: wakeFD,
		path:   config.Path,
		poll:   config.PollInterval,
		kick:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	e.wg.Add(1)
	go e.loop()

	antsdr.Logger().Info().Str("device", config.Path).Msg("DMA character device opened")
	return e, nil
}

func classify(op, path string, err error) error {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENXIO):
		return antsdr.NewEngineError(op, path, fmt.Errorf("%w: %w", antsdr.ErrDeviceNotFound, err), antsdr.ErrorTypePermanent)
	case errors.Is(err, unix.EBUSY), errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return antsdr.NewEngineError(op, path, err, antsdr.ErrorTypeTransient)
	case errors.Is(err, unix.ETIMEDOUT):
		return antsdr.NewEngineError(op, path, err, antsdr.ErrorTypeTimeout)
	default:
		return antsdr.NewEngineError(op, path, err, antsdr.ErrorTypePermanent)
	}
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
	select {
	case e.kick <- struct{}{}:
	default:
	}
	return nil
}

// Terminate implements antsdr.Engine. The pending read completes with
// StatusAborted.
func (e *Engine) Terminate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil || e.closed {
		return nil
	}
	e.pending.aborted = true
	return e.wake()
}

// wake interrupts poll. Must be called with mu held.
func (e *Engine) wake() error {
	var one [8]byte
	one[0] = 1
	if _, err := unix.Write(e.wakeFD, one[:]); err != nil && !errors.Is(err, unix.EAGAIN) {
		return antsdr.NewEngineError("wake", e.path, err, antsdr.ErrorTypeTransient)
	}
	return nil
}

// Close implements antsdr.Engine
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.pending = nil
	_ = e.wake()
	e.mu.Unlock()

	close(e.done)
	e.wg.Wait()

	err := unix.Close(e.fd)
	if cerr := unix.Close(e.wakeFD); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("close %s: %w", e.path, err)
	}
	return nil
}

// Type implements antsdr.Engine
func (*Engine) Type() antsdr.EngineType {
	return antsdr.EngineCharDev
}

func (e *Engine) loop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case <-e.kick:
		}

		for {
			e.mu.Lock()
			req := e.pending
			e.mu.Unlock()
			if req == nil {
				break
			}
			c, finished := e.step(req)
			if !finished {
				select {
				case <-e.done:
					return
				default:
				}
				continue
			}

			e.mu.Lock()
			if e.pending != req {
				e.mu.Unlock()
				continue
			}
			e.pending = nil
			e.mu.Unlock()
			req.onComplete(c)
			break
		}
	}
}

// step waits up to one poll interval for the device and reports whether
// req finished.
func (e *Engine) step(req *request) (antsdr.Completion, bool) {
	fds := []unix.PollFd{
		{Fd: int32(e.fd), Events: unix.POLLIN},
		{Fd: int32(e.wakeFD), Events: unix.POLLIN},
	}
	if _, err := unix.Poll(fds, int(e.poll.Milliseconds())); err != nil {
		if errors.Is(err, unix.EINTR) {
			return antsdr.Completion{}, false
		}
		return failed(classify("poll", e.path, err)), true
	}

	if fds[1].Revents&unix.POLLIN != 0 {
		var sink [8]byte
		_, _ = unix.Read(e.wakeFD, sink[:])
	}
	e.mu.Lock()
	aborted := req.aborted
	e.mu.Unlock()
	if aborted {
		return antsdr.Completion{Status: antsdr.StatusAborted}, true
	}

	rev := fds[0].Revents
	switch {
	case rev&unix.POLLIN != 0:
		n, err := unix.Read(e.fd, req.buf)
		switch {
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
			return antsdr.Completion{}, false
		case err != nil:
			return failed(classify("read", e.path, err)), true
		case n == 0:
			return failed(antsdr.NewEngineError("read", e.path, io.EOF, antsdr.ErrorTypePermanent)), true
		}
		return antsdr.Completion{Status: antsdr.StatusComplete, Length: n}, true
	case rev&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0:
		return failed(antsdr.NewEngineError("poll", e.path, io.EOF, antsdr.ErrorTypePermanent)), true
	}
	return antsdr.Completion{}, false
}

func failed(err error) antsdr.Completion {
	return antsdr.Completion{Status: antsdr.StatusError, Err: fmt.Errorf("%w: %w", antsdr.ErrTransferFailed, err)}
}
