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

// Stats is a point-in-time snapshot of the pipeline counters.
type Stats struct {
	TransfersCompleted uint64 `json:"transfers_completed"`
	BytesTransferred   uint64 `json:"bytes_transferred"`
	UDPPacketsSent     uint64 `json:"udp_packets_sent"`
	Errors             uint64 `json:"errors"`
	ValidFrames        uint64 `json:"valid_frames"`
	InvalidFrames      uint64 `json:"invalid_frames"`
	ExtractedFrames    uint64 `json:"extracted_frames"`
	// MissingFrames is gap-tracking state: it restarts at Start, not at
	// ResetStats.
	MissingFrames uint64 `json:"missing_frame_count"`

	AccumulatedFrames uint64 `json:"accumulated_frames"`
	MisalignedFrames  uint64 `json:"misaligned_frames"`
	CounterAnomalies  uint64 `json:"counter_anomalies"`
	Recoveries        uint64 `json:"recoveries"`

	State         State         `json:"state"`
	FrameMode     FrameMode     `json:"frame_mode"`
	OperationMode OperationMode `json:"operation_mode"`
	RingDepth     int           `json:"ring_depth"`
	QueueDepth    int           `json:"queue_depth"`
}

// counters are mutated under Pipeline.mu.
type counters struct {
	transfersCompleted uint64
	bytesTransferred   uint64
	udpPacketsSent     uint64
	errors             uint64
	validFrames        uint64
	invalidFrames      uint64
	extractedFrames    uint64
	accumulatedFrames  uint64
	misalignedFrames   uint64
	recoveries         uint64
}
