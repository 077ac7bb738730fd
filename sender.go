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
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"
)

// PacketConn is the datagram socket the sender writes to. *net.UDPConn
// satisfies it.
type PacketConn interface {
	WriteToUDPAddrPort(b []byte, addr netip.AddrPort) (int, error)
	Close() error
}

// openUDP opens an unconnected IPv4 socket, marking outgoing datagrams with
// tos when it is non-zero.
func openUDP(tos int) (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("open udp socket: %w", err)
	}
	if tos > 0 {
		if err := ipv4.NewConn(conn).SetTOS(tos); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set tos %#x: %w", tos, err)
		}
	}
	return conn, nil
}

// sendBatch sends up to SendBatch ring payloads and reports whether the ring
// still holds more. The first send failure abandons the rest of that payload
// and the rest of the batch.
func (p *Pipeline) sendBatch() bool {
	p.mu.Lock()
	dest := p.dest
	batch := p.config.SendBatch
	p.mu.Unlock()

	if !dest.IsValid() {
		return false
	}

	for range batch {
		n, ok := p.frames.Pop(p.sendBuf)
		if !ok {
			break
		}

		p.mu.Lock()
		missing := uint32(p.gaps.Missing())
		p.mu.Unlock()

		sent, err := p.packetizer.Packetize(p.sendBuf[:n], missing, func(pkt []byte) error {
			_, err := p.conn.WriteToUDPAddrPort(pkt, dest)
			return err
		})

		p.mu.Lock()
		p.stats.udpPacketsSent += uint64(sent)
		if err != nil {
			p.stats.errors++
		}
		p.mu.Unlock()

		if err != nil {
			p.lossEvent("sender").Err(err).Stringer("destination", dest).Msg("udp send failed, batch aborted")
			break
		}
	}
	return p.frames.Len() > 0
}
