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
	"errors"

	"github.com/ZaparooProject/go-antsdr/internal/frame"
	"github.com/ZaparooProject/go-antsdr/internal/ring"
)

// extractBatch drains up to ExtractBatch raw records and reports whether the
// queue still holds more.
func (p *Pipeline) extractBatch() bool {
	p.mu.Lock()
	words := p.frameMode.Words()
	batch := p.config.ExtractBatch
	p.mu.Unlock()

	for range batch {
		rec, ok := p.raw.TryPop()
		if !ok {
			break
		}
		p.processTransfer(rec.Bytes(), words)
		p.records.Put(rec)
	}
	return p.raw.Len() > 0
}

func (p *Pipeline) processTransfer(data []byte, words int) {
	res := frame.Parse(data, words)

	// the tail of a frame whose header came in an earlier transfer
	if res.ClosesPending() && p.acc.Pending() {
		p.accumulate(data, words, true)
		return
	}

	switch res.Kind {
	case frame.KindValid:
		p.deliver(res.Payload, res.Counter, false)
	case frame.KindHeaderOnly:
		p.accumulate(data, words, false)
	default:
		p.mu.Lock()
		p.stats.invalidFrames++
		p.mu.Unlock()
		Logger().Debug().
			Str("component", "extractor").
			Stringer("kind", res.Kind).
			Int("header", res.Header).
			Int("footer", res.Footer).
			Int("expected_words", words).
			Msg("invalid transfer")
	}
}

func (p *Pipeline) accumulate(data []byte, words int, force bool) {
	ready, err := p.acc.Add(data)
	if err != nil {
		p.countError()
		p.lossEvent("extractor").Err(err).Msg("accumulation buffer reset")
		return
	}
	if !ready && !force {
		return
	}

	ex := p.acc.Extract(words)
	for _, f := range ex.Frames {
		p.deliver(f.Payload, f.Counter, true)
	}
	if n := len(ex.Misaligned); n > 0 {
		p.mu.Lock()
		p.stats.misalignedFrames += uint64(n)
		p.mu.Unlock()
		for _, m := range ex.Misaligned {
			Logger().Debug().
				Str("component", "extractor").
				Int("header", m.Header).
				Int("footer", m.Footer).
				Int("expected_footer", m.Header+words-1).
				Msg("misaligned frame")
		}
	}
	Logger().Debug().
		Str("component", "extractor").
		Int("scanned", ex.Scanned).
		Int("frames", len(ex.Frames)).
		Msg("accumulation scan")
}

// deliver runs gap tracking for counter and pushes payload into the ring.
func (p *Pipeline) deliver(payload []byte, counter uint32, accumulated bool) {
	p.mu.Lock()
	missed, anomaly := p.gaps.Observe(counter)
	total := p.gaps.Missing()
	p.mu.Unlock()

	switch {
	case missed > 0:
		p.lossEvent("extractor").
			Uint32("counter", counter).
			Uint32("missed", missed).
			Uint64("missing_total", total).
			Msg("frame counter gap")
	case anomaly:
		Logger().Debug().Str("component", "extractor").Uint32("counter", counter).Msg("frame counter did not advance")
	}

	err := p.frames.Put(payload)

	p.mu.Lock()
	if err != nil {
		p.stats.errors++
	} else {
		p.stats.validFrames++
		p.stats.extractedFrames++
		if accumulated {
			p.stats.accumulatedFrames++
		}
	}
	hasDest := p.dest.IsValid()
	p.mu.Unlock()

	if err != nil {
		if errors.Is(err, ring.ErrRingFull) {
			p.lossEvent("extractor").Msg("frame ring full, payload dropped")
		} else {
			p.lossEvent("extractor").Err(err).Msg("payload rejected")
		}
		return
	}
	p.signalReady()
	if hasDest {
		p.sender.Wake()
	}
}
