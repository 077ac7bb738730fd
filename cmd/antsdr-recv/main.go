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

// Command antsdr-recv receives the stream sent by antsdr-stream, validates
// and reassembles the packets, and reports throughput and loss. Payloads can
// be appended to a file for offline processing.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	antsdr "github.com/ZaparooProject/go-antsdr"
	"github.com/ZaparooProject/go-antsdr/pkg/wire"
)

// Package-level flag variables
var (
	flagListen   string
	flagOut      string
	flagInterval time.Duration
	flagWindow   int
	flagDebug    bool
)

func init() {
	flag.StringVar(&flagListen, "listen", ":12288", "UDP address to listen on")
	flag.StringVar(&flagOut, "out", "", "Append reassembled payloads to this file")
	flag.DurationVar(&flagInterval, "interval", time.Second, "Report interval")
	flag.IntVar(&flagWindow, "window", wire.DefaultWindow, "Frames kept for reassembly")
	flag.BoolVar(&flagDebug, "debug", false, "Log every malformed packet")
}

// receiver owns the reassembly state for one socket.
type receiver struct {
	reasm    *wire.Reassembler
	out      io.Writer
	log      zerolog.Logger
	bytes    uint64
	payloads uint64
}

func newReceiver(window int, out io.Writer) *receiver {
	return &receiver{
		reasm: wire.NewReassembler(window),
		out:   out,
		log:   antsdr.Logger().With().Str("component", "receiver").Logger(),
	}
}

// handle consumes one datagram.
func (r *receiver) handle(pkt []byte) error {
	f, err := r.reasm.Add(pkt)
	if err != nil {
		r.log.Debug().Err(err).Int("bytes", len(pkt)).Msg("dropped packet")
		return nil
	}
	if f == nil {
		return nil
	}
	r.payloads++
	r.bytes += uint64(len(f.Payload))
	if r.out != nil {
		if _, err := r.out.Write(f.Payload); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
	}
	return nil
}

func (r *receiver) report(elapsed time.Duration, prevBytes uint64) {
	st := r.reasm.Stats()
	rate := uint64(0)
	if s := elapsed.Seconds(); s > 0 {
		rate = uint64(float64(r.bytes-prevBytes) / s)
	}
	r.log.Info().
		Str("rate", humanize.Bytes(rate)+"/s").
		Str("payloads", humanize.Comma(int64(r.payloads))).
		Str("received", humanize.Bytes(r.bytes)).
		Uint64("packets", st.Packets).
		Uint64("lost_packets", st.LostPackets).
		Uint64("incomplete", st.Incomplete).
		Uint64("malformed", st.Malformed).
		Uint64("duplicates", st.Duplicates).
		Uint32("sender_missing_frames", st.LastMissing).
		Msg("receive status")
}

func run(ctx context.Context, conn *net.UDPConn, r *receiver, interval time.Duration) error {
	buf := make([]byte, wire.MaxPacketSize+1)
	last := time.Now()
	lastBytes := r.bytes
	for {
		if ctx.Err() != nil {
			r.report(time.Since(last), lastBytes)
			return ctx.Err()
		}
		if err := conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond)); err != nil {
			return err
		}
		n, _, err := conn.ReadFromUDPAddrPort(buf)
		var ne net.Error
		switch {
		case errors.As(err, &ne) && ne.Timeout():
		case err != nil:
			return fmt.Errorf("read: %w", err)
		default:
			if err := r.handle(buf[:n]); err != nil {
				return err
			}
		}
		if interval > 0 && time.Since(last) >= interval {
			r.report(time.Since(last), lastBytes)
			last, lastBytes = time.Now(), r.bytes
		}
	}
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	if flagDebug {
		antsdr.SetDebugEnabled(true)
	}
	addr, err := net.ResolveUDPAddr("udp4", flagListen)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetReadBuffer(8 << 20)

	var out io.Writer
	if flagOut != "" {
		f, err := os.OpenFile(flagOut, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	antsdr.Logger().Info().Stringer("listen", conn.LocalAddr()).Msg("receiving")
	if err := run(ctx, conn, newReceiver(flagWindow, out), flagInterval); err != nil && !errors.Is(err, context.Canceled) {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
