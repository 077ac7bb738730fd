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

// triggerRecovery moves a streaming pipeline to StateResetting and runs one
// reset cycle off the completion context. Outside StateStreaming it does
// nothing, so it cannot race a user stop or a cycle already running.
func (p *Pipeline) triggerRecovery(reason string) {
	p.mu.Lock()
	if p.state != StateStreaming {
		p.mu.Unlock()
		return
	}
	p.state = StateResetting
	p.stats.recoveries++
	p.recovery.Add(1)
	p.mu.Unlock()

	go p.resetAndRestart(reason)
}

// resetAndRestart disables data, aborts the engine, clears ring and
// accumulator bookkeeping and re-arms a single transfer. A failed resubmit
// leaves the pipeline in standby; there is no retry loop.
func (p *Pipeline) resetAndRestart(reason string) {
	defer p.recovery.Done()

	p.mu.Lock()
	session := p.session
	timing := p.config.Timing
	p.mu.Unlock()

	log := Logger().With().Str("component", "recovery").Str("session", session.String()).Logger()
	log.Warn().Str("reason", reason).Msg("resetting DMA")

	if err := setLine("enable", p.signals.Enable, false); err != nil {
		log.Warn().Err(err).Msg("enable line")
	}
	pause(timing.RecoverySettle)
	if err := p.engine.Terminate(); err != nil {
		log.Warn().Err(err).Msg("terminate transfers")
	}
	p.frames.Reset()
	p.acc.Reset()
	pause(timing.RestartSettle)

	p.mu.Lock()
	if p.state != StateResetting {
		p.mu.Unlock()
		log.Info().Msg("reset abandoned, pipeline is stopping")
		p.signalDrained()
		return
	}
	p.state = StateStreaming
	buf := p.arena.buffer(p.current)[:p.frameMode.TransferSize()]
	p.mu.Unlock()

	if err := setLine("enable", p.signals.Enable, true); err != nil {
		log.Warn().Err(err).Msg("enable line")
	}
	if err := p.engine.Submit(buf, p.onTransferComplete); err != nil {
		p.mu.Lock()
		if p.state == StateStreaming {
			p.state = StateStandby
		}
		p.stats.errors++
		p.mu.Unlock()
		_ = setLine("enable", p.signals.Enable, false)
		p.signalDrained()
		log.Error().Err(err).Msg("restart failed, stream stopped")
		return
	}
	log.Info().Msg("DMA restarted")
}
