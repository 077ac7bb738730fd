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

package main

import (
	"time"

	"github.com/dustin/go-humanize"

	antsdr "github.com/ZaparooProject/go-antsdr"
)

// statusReporter logs counters and the rates since the previous line.
type statusReporter struct {
	at   time.Time
	last antsdr.Stats
}

func newStatusReporter(st antsdr.Stats) *statusReporter {
	return &statusReporter{at: time.Now(), last: st}
}

type rates struct {
	bytesPerSec  float64
	framesPerSec float64
}

func (r *statusReporter) advance(st antsdr.Stats, now time.Time) rates {
	elapsed := now.Sub(r.at).Seconds()
	var out rates
	if elapsed > 0 {
		out.bytesPerSec = float64(st.BytesTransferred-min(r.last.BytesTransferred, st.BytesTransferred)) / elapsed
		out.framesPerSec = float64(st.ValidFrames-min(r.last.ValidFrames, st.ValidFrames)) / elapsed
	}
	r.at, r.last = now, st
	return out
}

func (r *statusReporter) log(st antsdr.Stats) {
	rt := r.advance(st, time.Now())
	antsdr.Logger().Info().
		Stringer("state", st.State).
		Str("rate", humanize.Bytes(uint64(rt.bytesPerSec))+"/s").
		Str("frames_per_sec", humanize.CommafWithDigits(rt.framesPerSec, 1)).
		Str("transferred", humanize.Bytes(st.BytesTransferred)).
		Str("valid", humanize.Comma(int64(st.ValidFrames))).
		Uint64("invalid", st.InvalidFrames).
		Uint64("missing", st.MissingFrames).
		Uint64("packets", st.UDPPacketsSent).
		Uint64("errors", st.Errors).
		Uint64("recoveries", st.Recoveries).
		Msg("status")
}
