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

package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	antsdr "github.com/ZaparooProject/go-antsdr"
)

// Config configures the monitor endpoint.
type Config struct {
	Addr string `yaml:"addr"`
	// Interval is the websocket push period.
	Interval time.Duration `yaml:"interval"`
}

// DefaultConfig listens on :9108 and pushes stats once a second.
func DefaultConfig() Config {
	return Config{Addr: ":9108", Interval: time.Second}
}

// Server serves the monitor endpoints.
type Server struct {
	src      StatsSource
	registry *prometheus.Registry
	upgrader websocket.Upgrader
	server   *http.Server
	done     chan struct{}
	clients  sync.WaitGroup
	config   Config
	once     sync.Once
}

// NewServer builds a server with its own registry holding the pipeline
// collector and the Go runtime collectors.
func NewServer(src StatsSource, config Config) *Server {
	if config.Interval <= 0 {
		config.Interval = time.Second
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(src),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s := &Server{
		src:      src,
		registry: reg,
		config:   config,
		done:     make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.server = &http.Server{
		Addr:              config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /ws/stats", s.handleStream)
	return mux
}

// Serve listens until ctx is cancelled, then shuts down.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	antsdr.Logger().Info().Str("component", "monitor").Stringer("addr", ln.Addr()).Msg("monitor listening")
	errc := make(chan error, 1)
	go func() { errc <- s.server.Serve(ln) }()

	select {
	case err := <-errc:
		s.close()
		return err
	case <-ctx.Done():
	}
	s.close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.server.Shutdown(shutdownCtx)
	s.clients.Wait()
	if err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.src.Stats()); err != nil {
		antsdr.Logger().Debug().Err(err).Str("component", "monitor").Msg("write stats")
	}
}

// handleStream pushes a stats snapshot on connect and every interval until
// the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		antsdr.Logger().Debug().Err(err).Str("component", "monitor").Msg("websocket upgrade")
		return
	}
	s.clients.Add(1)
	defer s.clients.Done()
	defer func() { _ = conn.Close() }()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(s.src.Stats()); err != nil {
			return
		}
		select {
		case <-ticker.C:
		case <-gone:
			return
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}
