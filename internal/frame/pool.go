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

package frame

import (
	"sync"
	"sync/atomic"
)

// DefaultRecordLimit bounds outstanding raw records: one per raw queue slot
// plus one batch in flight.
const DefaultRecordLimit = 256 + 64

// Record is a detached copy of one completed transfer.
type Record struct {
	buf *[]byte
	n   int
}

// Bytes returns the copied transfer bytes.
func (r *Record) Bytes() []byte { return (*r.buf)[:r.n] }

// Len returns the number of copied bytes.
func (r *Record) Len() int { return r.n }

// RecordPool hands out transfer-sized records without blocking. A hard limit
// on outstanding records stands in for an atomic allocation that can fail.
type RecordPool struct {
	pool        sync.Pool
	outstanding atomic.Int64
	limit       int64
}

// NewRecordPool returns a pool allowing at most limit outstanding records.
// A non-positive limit selects DefaultRecordLimit.
func NewRecordPool(limit int) *RecordPool {
	if limit <= 0 {
		limit = DefaultRecordLimit
	}
	p := &RecordPool{limit: int64(limit)}
	p.pool.New = func() any {
		buf := make([]byte, MaxTransferSize)
		return &buf
	}
	return p
}

// Copy returns a record holding a copy of data. It never blocks; ok is false
// when the pool is exhausted or data is larger than a transfer.
func (p *RecordPool) Copy(data []byte) (rec *Record, ok bool) {
	if len(data) > MaxTransferSize {
		return nil, false
	}
	if p.outstanding.Add(1) > p.limit {
		p.outstanding.Add(-1)
		return nil, false
	}
	bufPtr, ok := p.pool.Get().(*[]byte)
	if !ok {
		buf := make([]byte, MaxTransferSize)
		bufPtr = &buf
	}
	n := copy(*bufPtr, data)
	return &Record{buf: bufPtr, n: n}, true
}

// Put returns rec to the pool. rec must not be used afterwards.
func (p *RecordPool) Put(rec *Record) {
	if rec == nil || rec.buf == nil {
		return
	}
	p.pool.Put(rec.buf)
	rec.buf = nil
	rec.n = 0
	p.outstanding.Add(-1)
}

// Outstanding returns the number of records not yet returned.
func (p *RecordPool) Outstanding() int {
	return int(p.outstanding.Load())
}
