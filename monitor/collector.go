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

// Package monitor exposes pipeline statistics over HTTP: Prometheus metrics
// at /metrics, a JSON snapshot at /stats and a live websocket stream at
// /ws/stats.
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"

	antsdr "github.com/ZaparooProject/go-antsdr"
)

const namespace = "antsdr"

// StatsSource is implemented by *antsdr.Pipeline.
type StatsSource interface {
	Stats() antsdr.Stats
}

// workerSource is optionally implemented by a StatsSource.
type workerSource interface {
	WorkerMetrics() (extractor, sender antsdr.WorkerMetrics)
}

type counterDesc struct {
	desc  *prometheus.Desc
	value func(antsdr.Stats) uint64
}

// Collector turns a stats snapshot into Prometheus metrics at scrape time.
type Collector struct {
	src      StatsSource
	counters []counterDesc
	state    *prometheus.Desc
	mode     *prometheus.Desc
	ring     *prometheus.Desc
	queue    *prometheus.Desc
	missing  *prometheus.Desc
	wakes    *prometheus.Desc
	batches  *prometheus.Desc
}

func counter(name, help string, value func(antsdr.Stats) uint64) counterDesc {
	return counterDesc{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil),
		value: value,
	}
}

// NewCollector returns a collector over src.
func NewCollector(src StatsSource) *Collector {
	return &Collector{
		src: src,
		counters: []counterDesc{
			counter("transfers_completed_total", "DMA transfers completed.",
				func(s antsdr.Stats) uint64 { return s.TransfersCompleted }),
			counter("transferred_bytes_total", "Bytes written by completed transfers.",
				func(s antsdr.Stats) uint64 { return s.BytesTransferred }),
			counter("udp_packets_sent_total", "UDP datagrams sent.",
				func(s antsdr.Stats) uint64 { return s.UDPPacketsSent }),
			counter("errors_total", "Transfer faults and dropped data.",
				func(s antsdr.Stats) uint64 { return s.Errors }),
			counter("valid_frames_total", "Frames stored in the frame ring.",
				func(s antsdr.Stats) uint64 { return s.ValidFrames }),
			counter("invalid_frames_total", "Transfers that held no usable frame.",
				func(s antsdr.Stats) uint64 { return s.InvalidFrames }),
			counter("accumulated_frames_total", "Frames recovered from the accumulation buffer.",
				func(s antsdr.Stats) uint64 { return s.AccumulatedFrames }),
			counter("misaligned_frames_total", "Accumulated frames with a misplaced footer.",
				func(s antsdr.Stats) uint64 { return s.MisalignedFrames }),
			counter("recoveries_total", "DMA reset cycles.",
				func(s antsdr.Stats) uint64 { return s.Recoveries }),
		},
		state: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "state"),
			"Streaming state, 1 for the current one.", []string{"state"}, nil),
		mode: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "frame_mode"),
			"Frame mode, 1 for the current one.", []string{"mode"}, nil),
		ring: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "ring_depth"),
			"Payloads waiting in the frame ring.", nil, nil),
		queue: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "raw_queue_depth"),
			"Transfers waiting for extraction.", nil, nil),
		missing: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "missing_frames"),
			"Frames missing by counter since streaming started.", nil, nil),
		wakes: prometheus.NewDesc(prometheus.BuildFQName(namespace, "worker", "wakes_total"),
			"Worker wake-ups.", []string{"worker"}, nil),
		batches: prometheus.NewDesc(prometheus.BuildFQName(namespace, "worker", "batches_total"),
			"Worker batches run.", []string{"worker"}, nil),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, cd := range c.counters {
		ch <- cd.desc
	}
	ch <- c.state
	ch <- c.mode
	ch <- c.ring
	ch <- c.queue
	ch <- c.missing
	ch <- c.wakes
	ch <- c.batches
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()
	for _, cd := range c.counters {
		ch <- prometheus.MustNewConstMetric(cd.desc, prometheus.CounterValue, float64(cd.value(st)))
	}
	for s := antsdr.StateStandby; s <= antsdr.StateResetting; s++ {
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, b2f(st.State == s), s.String())
	}
	for _, m := range []antsdr.FrameMode{antsdr.FrameModeShort, antsdr.FrameModeLong} {
		ch <- prometheus.MustNewConstMetric(c.mode, prometheus.GaugeValue, b2f(st.FrameMode == m), m.String())
	}
	ch <- prometheus.MustNewConstMetric(c.ring, prometheus.GaugeValue, float64(st.RingDepth))
	ch <- prometheus.MustNewConstMetric(c.queue, prometheus.GaugeValue, float64(st.QueueDepth))
	ch <- prometheus.MustNewConstMetric(c.missing, prometheus.GaugeValue, float64(st.MissingFrames))

	if ws, ok := c.src.(workerSource); ok {
		ex, snd := ws.WorkerMetrics()
		for name, m := range map[string]antsdr.WorkerMetrics{"extractor": ex, "sender": snd} {
			ch <- prometheus.MustNewConstMetric(c.wakes, prometheus.CounterValue, float64(m.Wakes), name)
			ch <- prometheus.MustNewConstMetric(c.batches, prometheus.CounterValue, float64(m.Batches), name)
		}
	}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
