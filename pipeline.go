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

// Package antsdr implements the data plane of an SDR front end: transfers
// from a DMA engine are validated against the FPGA framing protocol, their
// payloads are buffered in a frame ring and re-sent as fragmented UDP
// datagrams carrying sequence and loss metadata.
//
// A Pipeline owns the transfer buffers, the raw transfer queue, the frame
// ring and two workers (extractor and sender). The engine's completion
// context calls into the pipeline without ever blocking; control methods
// serialize with each other and with the data path through the pipeline's
// state lock.
package antsdr

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-antsdr/internal/frame"
	"github.com/ZaparooProject/go-antsdr/internal/ring"
	"github.com/ZaparooProject/go-antsdr/internal/syncutil"
	"github.com/ZaparooProject/go-antsdr/pkg/wire"
)

// Pipeline streams frames from an Engine to a UDP destination.
type Pipeline struct {
	engine  Engine
	conn    PacketConn
	signals Signals

	arena      *arena
	records    *frame.RecordPool
	raw        *ring.Queue[*frame.Record]
	frames     *ring.Ring
	acc        *frame.Accumulator
	packetizer *wire.Packetizer
	sendBuf    []byte
	lossLog    *zerolog.BurstSampler

	extractor *worker
	sender    *worker

	// ctl serializes control operations; it is a channel so waiting for it
	// honors context cancellation.
	ctl     chan struct{}
	ready   chan struct{}
	drained chan struct{}

	recovery sync.WaitGroup

	// Guarded by mu.
	dest      netip.AddrPort
	session   uuid.UUID
	gaps      frame.GapTracker
	stats     counters
	config    Config
	state     State
	frameMode FrameMode
	opMode    OperationMode
	current   int
	tdd       bool
	closed    bool
	ownConn   bool
	mu        syncutil.Mutex
}

// Option configures a Pipeline
type Option func(*Pipeline) error

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(p *Pipeline) error {
		if config == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidConfig)
		}
		p.config = *config
		return nil
	}
}

// WithSignals wires the FPGA control lines.
func WithSignals(signals Signals) Option {
	return func(p *Pipeline) error {
		p.signals = signals
		return nil
	}
}

// WithPacketConn sends datagrams through conn instead of a socket opened by
// the pipeline. The pipeline does not close conn.
func WithPacketConn(conn PacketConn) Option {
	return func(p *Pipeline) error {
		if conn == nil {
			return errors.New("nil packet conn")
		}
		p.conn = conn
		return nil
	}
}

// New creates a pipeline over engine. The pipeline starts in standby with
// its workers running.
func New(engine Engine, opts ...Option) (*Pipeline, error) {
	if engine == nil {
		return nil, errors.New("nil engine")
	}
	p := &Pipeline{
		engine:  engine,
		config:  *DefaultConfig(),
		ctl:     make(chan struct{}, 1),
		ready:   make(chan struct{}, 1),
		drained: make(chan struct{}, 1),
		lossLog: &zerolog.BurstSampler{Burst: 5, Period: time.Second},
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if err := p.config.Validate(); err != nil {
		return nil, err
	}

	cfg := &p.config
	ar, err := newArena(cfg.BufferCount, frame.MaxTransferSize, cfg.LockMemory)
	if err != nil {
		return nil, err
	}
	if p.conn == nil {
		conn, err := openUDP(cfg.TOS)
		if err != nil {
			_ = ar.close()
			return nil, err
		}
		p.conn = conn
		p.ownConn = true
	}

	p.arena = ar
	p.records = frame.NewRecordPool(cfg.RawQueueDepth + cfg.ExtractBatch)
	p.raw = ring.NewQueue[*frame.Record](cfg.RawQueueDepth)
	p.frames = ring.New(cfg.RingSlots, cfg.SlotSize)
	p.acc = frame.NewAccumulator(cfg.AccumulatorSize)
	p.packetizer = wire.NewPacketizer(cfg.FragmentSize)
	p.sendBuf = make([]byte, cfg.SlotSize)
	p.dest = cfg.Destination
	p.frameMode = cfg.FrameMode
	p.opMode = cfg.OperationMode

	p.extractor = newWorker("extractor", p.extractBatch)
	p.sender = newWorker("sender", p.sendBatch)
	p.extractor.start()
	p.sender.start()

	Logger().Info().
		Str("engine", string(engine.Type())).
		Stringer("frame_mode", p.frameMode).
		Stringer("destination", p.dest).
		Int("buffers", cfg.BufferCount).
		Msg("pipeline ready")
	return p, nil
}

func (p *Pipeline) acquire(ctx context.Context) error {
	select {
	case p.ctl <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) release() { <-p.ctl }

// Start arms continuous transfers. It fails with ErrAlreadyStreaming unless
// the pipeline is in standby.
func (p *Pipeline) Start(ctx context.Context) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()
	return p.start()
}

// Stop halts streaming, waiting at most the configured stop timeout for the
// in-flight transfer. Stopping in standby is a no-op.
func (p *Pipeline) Stop(ctx context.Context) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()
	return p.stop(ctx)
}

// SetFrameMode changes the frame mode. An active stream is stopped and
// restarted with the new transfer size.
func (p *Pipeline) SetFrameMode(ctx context.Context, mode FrameMode) error {
	if !mode.Valid() {
		return &PipelineError{Op: "set frame mode", Err: fmt.Errorf("%w: %d", ErrInvalidFrameMode, int(mode))}
	}
	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPipelineClosed
	}
	wasStreaming := p.state != StateStandby
	p.mu.Unlock()

	if wasStreaming {
		if err := p.stop(ctx); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.frameMode = mode
	p.mu.Unlock()
	if err := setLine("frame mode", p.signals.FrameMode, mode == FrameModeLong); err != nil {
		Logger().Warn().Err(err).Msg("frame mode line")
	}
	Logger().Info().Stringer("frame_mode", mode).Int("transfer_size", mode.TransferSize()).Msg("frame mode set")

	if wasStreaming {
		return p.start()
	}
	return nil
}

// SetOperationMode selects real or simulated FPGA data. It takes effect
// immediately and does not restart the stream.
func (p *Pipeline) SetOperationMode(mode OperationMode) error {
	if !mode.Valid() {
		return &PipelineError{Op: "set operation mode", Err: fmt.Errorf("%w: %d", ErrInvalidOperationMode, uint32(mode))}
	}
	p.mu.Lock()
	p.opMode = mode
	p.mu.Unlock()
	if err := setLine("operation mode", p.signals.OperationMode, mode == OperationModeSimulation); err != nil {
		return &PipelineError{Op: "set operation mode", Err: err}
	}
	Logger().Info().Stringer("operation_mode", mode).Msg("operation mode set")
	return nil
}

// SetTDDMode drives the TDD line. Boards without one ignore the call.
func (p *Pipeline) SetTDDMode(enabled bool) error {
	if err := setLine("tdd", p.signals.TDD, enabled); err != nil {
		return &PipelineError{Op: "set tdd mode", Err: err}
	}
	p.mu.Lock()
	p.tdd = enabled && p.signals.TDD != nil
	p.mu.Unlock()
	return nil
}

// TDDMode reads back the TDD line, false when the board has none.
func (p *Pipeline) TDDMode() bool {
	if r, ok := p.signals.TDD.(SignalReader); ok {
		if v, err := r.Get(); err == nil {
			return v
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tdd
}

// SetDestination sets the IPv4 address and port datagrams are sent to.
func (p *Pipeline) SetDestination(dest netip.AddrPort) error {
	addr := dest.Addr().Unmap()
	if !dest.IsValid() || !addr.Is4() || dest.Port() == 0 {
		return &PipelineError{Op: "set destination", Err: fmt.Errorf("%w: %s", ErrInvalidDestination, dest)}
	}
	dest = netip.AddrPortFrom(addr, dest.Port())
	p.mu.Lock()
	p.dest = dest
	p.mu.Unlock()
	Logger().Info().Stringer("destination", dest).Msg("udp destination set")
	p.sender.Wake()
	return nil
}

// Destination returns the current destination; invalid when unset.
func (p *Pipeline) Destination() netip.AddrPort {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dest
}

// State returns the streaming state
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// FrameMode returns the active frame mode
func (p *Pipeline) FrameMode() FrameMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameMode
}

// OperationMode returns the active operation mode
func (p *Pipeline) OperationMode() OperationMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opMode
}

// TransferSize returns the per-transfer byte count of the active frame mode.
func (p *Pipeline) TransferSize() int {
	return p.FrameMode().TransferSize()
}

// SessionID identifies the most recent successful Start.
func (p *Pipeline) SessionID() uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Stats returns a consistent snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	ringDepth := p.frames.Len()
	queueDepth := p.raw.Len()

	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.stats
	return Stats{
		TransfersCompleted: c.transfersCompleted,
		BytesTransferred:   c.bytesTransferred,
		UDPPacketsSent:     c.udpPacketsSent,
		Errors:             c.errors,
		ValidFrames:        c.validFrames,
		InvalidFrames:      c.invalidFrames,
		ExtractedFrames:    c.extractedFrames,
		MissingFrames:      p.gaps.Missing(),
		AccumulatedFrames:  c.accumulatedFrames,
		MisalignedFrames:   c.misalignedFrames,
		CounterAnomalies:   p.gaps.Anomalies(),
		Recoveries:         c.recoveries,
		State:              p.state,
		FrameMode:          p.frameMode,
		OperationMode:      p.opMode,
		RingDepth:          ringDepth,
		QueueDepth:         queueDepth,
	}
}

// ResetStats zeroes the counters. Gap tracking is stream state and is left
// alone.
func (p *Pipeline) ResetStats() {
	p.mu.Lock()
	p.stats = counters{}
	p.mu.Unlock()
	Logger().Info().Msg("statistics reset")
}

// WorkerMetrics returns scheduling metrics for the extractor and sender.
func (p *Pipeline) WorkerMetrics() (extractor, sender WorkerMetrics) {
	return p.extractor.metrics(), p.sender.metrics()
}

// Ready is signalled after a payload lands in the frame ring. Use it with
// ReadPayload to consume payloads locally.
func (p *Pipeline) Ready() <-chan struct{} {
	return p.ready
}

// ReadPayload copies the oldest ring payload into buf and frees its slot.
// Local readers compete with the sender for payloads. It returns
// ErrNoPayload when the ring is empty.
func (p *Pipeline) ReadPayload(buf []byte) (int, error) {
	n, ok := p.frames.Pop(buf)
	if !ok {
		return 0, ErrNoPayload
	}
	return n, nil
}

// Close stops streaming, stops the workers and closes the engine.
func (p *Pipeline) Close() error {
	ctx := context.Background()
	_ = p.acquire(ctx)
	defer p.release()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	stopErr := p.stop(ctx)

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.extractor.stop()
	p.sender.stop()
	for _, rec := range p.raw.Drain() {
		p.records.Put(rec)
	}

	var errs []error
	if stopErr != nil {
		errs = append(errs, stopErr)
	}
	if err := p.engine.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close engine: %w", err))
	}
	if p.ownConn {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close socket: %w", err))
		}
	}
	if err := p.arena.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (p *Pipeline) countError() {
	p.mu.Lock()
	p.stats.errors++
	p.mu.Unlock()
}

func (p *Pipeline) signalDrained() {
	select {
	case p.drained <- struct{}{}:
	default:
	}
}

func (p *Pipeline) signalReady() {
	select {
	case p.ready <- struct{}{}:
	default:
	}
}

// lossEvent returns a rate-limited warning event for per-item losses.
func (p *Pipeline) lossEvent(component string) *zerolog.Event {
	l := Logger().Sample(p.lossLog)
	return l.Warn().Str("component", component)
}
