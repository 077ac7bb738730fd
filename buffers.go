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
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ZaparooProject/go-antsdr/internal/frame"
)

// start must be called with ctl held.
func (p *Pipeline) start() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPipelineClosed
	}
	if p.state != StateStandby {
		p.mu.Unlock()
		return &PipelineError{Op: "start", Err: ErrAlreadyStreaming}
	}
	p.gaps.Reset()
	p.current = 0
	mode, opMode := p.frameMode, p.opMode
	dest := p.dest
	timing := p.config.Timing
	p.mu.Unlock()

	// forget a drained event left over from the previous session
	select {
	case <-p.drained:
	default:
	}

	if err := setLine("frame mode", p.signals.FrameMode, mode == FrameModeLong); err != nil {
		return &PipelineError{Op: "start", Err: err}
	}
	if err := setLine("operation mode", p.signals.OperationMode, opMode == OperationModeSimulation); err != nil {
		return &PipelineError{Op: "start", Err: err}
	}
	pause(timing.StartSettle)

	session := uuid.New()
	p.mu.Lock()
	p.state = StateStreaming
	p.session = session
	buf := p.arena.buffer(p.current)[:mode.TransferSize()]
	p.mu.Unlock()

	if err := p.engine.Submit(buf, p.onTransferComplete); err != nil {
		p.mu.Lock()
		p.state = StateStandby
		p.mu.Unlock()
		_ = setLine("enable", p.signals.Enable, false)
		Logger().Error().Err(err).Str("session", session.String()).Msg("initial transfer submission failed")
		return &PipelineError{Op: "start", Err: fmt.Errorf("%w: %w", ErrSubmitFailed, err)}
	}

	if err := setLine("enable", p.signals.Enable, true); err != nil {
		Logger().Warn().Err(err).Msg("enable line")
	}
	pause(timing.EnableSettle)

	Logger().Info().
		Str("session", session.String()).
		Stringer("frame_mode", mode).
		Stringer("operation_mode", opMode).
		Int("transfer_size", mode.TransferSize()).
		Bool("udp", dest.IsValid()).
		Msg("streaming started")
	return nil
}

// stop must be called with ctl held.
func (p *Pipeline) stop(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateStandby {
		p.mu.Unlock()
		return nil
	}
	p.state = StateStopping
	session := p.session
	timeout := p.config.Timing.StopTimeout
	p.mu.Unlock()

	// a recovery cycle in progress sees StateStopping and bails out
	p.recovery.Wait()

	if err := setLine("enable", p.signals.Enable, false); err != nil {
		Logger().Warn().Err(err).Msg("enable line")
	}
	if err := p.engine.Terminate(); err != nil {
		Logger().Warn().Err(err).Msg("terminate transfers")
	}

	timer := time.NewTimer(timeout)
	forced := true
	select {
	case <-p.drained:
		forced = false
	case <-timer.C:
		Logger().Warn().Err(ErrStopTimeout).Dur("timeout", timeout).Msg("forcing stop")
	case <-ctx.Done():
		Logger().Warn().Err(ctx.Err()).Msg("stop interrupted, forcing")
	}
	timer.Stop()
	if forced {
		if err := p.engine.Terminate(); err != nil {
			Logger().Warn().Err(err).Msg("terminate transfers")
		}
	}

	if err := p.extractor.Flush(ctx); err != nil {
		Logger().Warn().Err(err).Msg("extractor flush")
	}
	for _, rec := range p.raw.Drain() {
		p.records.Put(rec)
	}

	p.mu.Lock()
	p.state = StateStandby
	st := p.stats
	p.mu.Unlock()

	Logger().Info().
		Str("session", session.String()).
		Uint64("transfers", st.transfersCompleted).
		Uint64("valid_frames", st.validFrames).
		Uint64("errors", st.errors).
		Msg("streaming stopped")
	return nil
}

// onTransferComplete is the engine's completion entry point. It never
// blocks: record allocation and enqueue are non-blocking and every lock it
// takes guards in-memory state only.
func (p *Pipeline) onTransferComplete(c Completion) {
	switch c.Status {
	case StatusComplete:
	case StatusAborted:
		if p.State() != StateStreaming {
			p.signalDrained()
			return
		}
		p.countError()
		p.triggerRecovery("transfer aborted while streaming")
		return
	default:
		p.countError()
		p.lossEvent("buffers").Err(c.Err).Msg("transfer fault")
		p.triggerRecovery("transfer fault")
		return
	}

	p.mu.Lock()
	p.stats.transfersCompleted++
	p.stats.bytesTransferred += uint64(max(c.Length, 0))
	idx := p.current
	wantRecord := (p.dest.IsValid() || p.config.LocalRead) &&
		c.Length > 0 && c.Length <= frame.MaxTransferSize
	p.mu.Unlock()

	if wantRecord {
		p.queueRecord(p.arena.buffer(idx)[:c.Length])
	}

	p.mu.Lock()
	p.current = (p.current + 1) % p.config.BufferCount
	streaming := p.state == StateStreaming
	next := p.arena.buffer(p.current)[:p.frameMode.TransferSize()]
	p.mu.Unlock()

	if !streaming {
		p.signalDrained()
		return
	}
	if err := p.engine.Submit(next, p.onTransferComplete); err != nil {
		p.countError()
		Logger().Error().Err(err).Msg("transfer resubmission failed")
		p.triggerRecovery("resubmission failed")
		return
	}
	// Stop may have terminated the engine between the state check and Submit.
	if p.State() != StateStreaming {
		if err := p.engine.Terminate(); err != nil {
			Logger().Warn().Err(err).Msg("terminate resubmitted transfer")
		}
	}
}

func (p *Pipeline) queueRecord(data []byte) {
	rec, ok := p.records.Copy(data)
	if !ok {
		p.countError()
		p.lossEvent("buffers").Int("bytes", len(data)).Msg("no raw record available, transfer dropped")
		return
	}
	if !p.raw.TryPush(rec) {
		p.records.Put(rec)
		p.countError()
		p.lossEvent("buffers").Int("depth", p.raw.Cap()).Msg("raw queue full, transfer dropped")
		return
	}
	p.extractor.Wake()
}

// pause waits for hardware settle delays. Sub-millisecond delays spin
// because timer resolution would stretch them.
func pause(d time.Duration) {
	if d <= 0 {
		return
	}
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}
	for deadline := time.Now().Add(d); time.Now().Before(deadline); {
	}
}
