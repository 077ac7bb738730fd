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

// Package uart implements a DMA engine over a serial bridge that streams the
// FPGA's frame words. Each transfer is filled with exactly len(buf) bytes.
package uart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	antsdr "github.com/ZaparooProject/go-antsdr"
)

// Port is the part of serial.Port the engine uses.
type Port interface {
	Read(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	Close() error
}

// Config configures the serial bridge.
type Config struct {
	Retry       *antsdr.RetryConfig
	PortName    string
	BaudRate    int
	ReadTimeout time.Duration
}

// DefaultConfig returns settings for a USB bridge at 3 Mbaud.
func DefaultConfig(portName string) Config {
	return Config{
		PortName:    portName,
		BaudRate:    3_000_000,
		ReadTimeout: 50 * time.Millisecond,
		Retry:       antsdr.DefaultRetryConfig(),
	}
}

type request struct {
	onComplete antsdr.CompletionFunc
	buf        []byte
	aborted    bool
}

// Engine implements antsdr.Engine for a serial bridge.
type Engine struct {
	port     Port
	pending  *request
	kick     chan struct{}
	done     chan struct{}
	portName string
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
}

// Open opens the serial port, retrying while it is busy.
func Open(ctx context.Context, config Config) (*Engine, error) {
	if config.BaudRate == 0 {
		config.BaudRate = 3_000_000
	}
	var port serial.Port
	err := antsdr.RetryWithConfig(ctx, config.Retry, func() error {
		var err error
		port, err = serial.Open(config.PortName, &serial.Mode{
			BaudRate: config.BaudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			return classify(config.PortName, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e, err := NewWithPort(port, config.PortName, config.ReadTimeout)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	antsdr.Logger().Info().Str("port", config.PortName).Int("baud", config.BaudRate).Msg("serial bridge opened")
	return e, nil
}

func classify(portName string, err error) error {
	var pe *serial.PortError
	if errors.As(err, &pe) {
		switch pe.Code() {
		case serial.PortBusy:
			return antsdr.NewEngineError("open", portName, err, antsdr.ErrorTypeTransient)
		case serial.PortNotFound:
			return antsdr.NewEngineError("open", portName,
				fmt.Errorf("%w: %w", antsdr.ErrDeviceNotFound, err), antsdr.ErrorTypePermanent)
		default:
		}
	}
	return antsdr.NewEngineError("open", portName, err, antsdr.ErrorTypePermanent)
}

// NewWithPort wraps an already open port. readTimeout bounds each read so
// Terminate and Close are noticed.
func NewWithPort(port Port, portName string, readTimeout time.Duration) (*Engine, error) {
	if readTimeout <= 0 {
		readTimeout = 50 * time.Millisecond
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		return nil, fmt.Errorf("UART set timeout failed: %w", err)
	}
	e := &Engine{
		port:     port,
		portName: portName,
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	e.wg.Add(1)
	go e.loop()
	return e, nil
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

// Terminate implements antsdr.Engine. The pending transfer completes with
// StatusAborted within one read timeout and buffered input is discarded.
func (e *Engine) Terminate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil {
		e.pending.aborted = true
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
	e.mu.Unlock()

	close(e.done)
	e.wg.Wait()
	if err := e.port.Close(); err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// Type implements antsdr.Engine
func (*Engine) Type() antsdr.EngineType {
	return antsdr.EngineUART
}

// isInterruptedSystemCall checks if an error is caused by an interrupted system call
func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
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

		c, ok := e.fill(req)
		if !ok {
			return
		}
		e.mu.Lock()
		if e.pending != req {
			e.mu.Unlock()
			continue
		}
		e.pending = nil
		e.mu.Unlock()
		req.onComplete(c)
	}
}

// fill reads until req.buf is full, the request is aborted or the port
// fails. It returns false when the engine is closing.
func (e *Engine) fill(req *request) (antsdr.Completion, bool) {
	got := 0
	for got < len(req.buf) {
		select {
		case <-e.done:
			return antsdr.Completion{}, false
		default:
		}
		e.mu.Lock()
		aborted := req.aborted
		e.mu.Unlock()
		if aborted {
			if err := e.port.ResetInputBuffer(); err != nil {
				antsdr.Logger().Warn().Err(err).Str("port", e.portName).Msg("discard serial input")
			}
			return antsdr.Completion{Status: antsdr.StatusAborted}, true
		}

		n, err := e.port.Read(req.buf[got:])
		if err != nil {
			if isInterruptedSystemCall(err) {
				continue
			}
			return antsdr.Completion{
				Status: antsdr.StatusError,
				Err:    fmt.Errorf("%w: UART read: %w", antsdr.ErrTransferFailed, err),
			}, true
		}
		got += n
	}
	return antsdr.Completion{Status: antsdr.StatusComplete, Length: got}, true
}
