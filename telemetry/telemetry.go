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

// Package telemetry publishes pipeline statistics to an MQTT broker.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	antsdr "github.com/ZaparooProject/go-antsdr"
)

// ErrNotConnected is returned by Publish while the broker is unreachable.
var ErrNotConnected = errors.New("telemetry: mqtt not connected")

// StatsSource is implemented by *antsdr.Pipeline.
type StatsSource interface {
	Stats() antsdr.Stats
	SessionID() uuid.UUID
}

// Config configures the publisher.
type Config struct {
	Broker      string        `yaml:"broker"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	TopicPrefix string        `yaml:"topic_prefix"`
	Interval    time.Duration `yaml:"interval"`
	QoS         byte          `yaml:"qos"`
	Retain      bool          `yaml:"retain"`
}

// DefaultConfig publishes every 5 seconds under "antsdr".
func DefaultConfig() Config {
	return Config{
		TopicPrefix: "antsdr",
		Interval:    5 * time.Second,
	}
}

// Message is the JSON document published on <prefix>/stats.
type Message struct {
	Time    time.Time    `json:"time"`
	Session string       `json:"session"`
	Client  string       `json:"client"`
	Stats   antsdr.Stats `json:"stats"`
}

// Publisher sends periodic stats snapshots.
type Publisher struct {
	client    mqtt.Client
	src       StatsSource
	clientID  string
	config    Config
	lastState antsdr.State
	published bool
}

// Connect dials the broker and returns a publisher. The client keeps
// reconnecting in the background after the first connection.
func Connect(src StatsSource, config Config) (*Publisher, error) {
	clientID := "antsdr-" + uuid.NewString()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(clientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
	}
	if config.Password != "" {
		opts.SetPassword(config.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	log := antsdr.Logger().With().Str("component", "telemetry").Str("broker", config.Broker).Logger()
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info().Msg("connected to broker")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("connection lost")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(30*time.Second) || token.Error() != nil {
		return nil, fmt.Errorf("telemetry: connect to %s: %w", config.Broker, token.Error())
	}
	return NewWithClient(client, clientID, src, config), nil
}

// NewWithClient wraps an already configured client.
func NewWithClient(client mqtt.Client, clientID string, src StatsSource, config Config) *Publisher {
	if config.TopicPrefix == "" {
		config.TopicPrefix = "antsdr"
	}
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}
	return &Publisher{client: client, clientID: clientID, src: src, config: config}
}

// Publish sends one stats message, and a retained state message when the
// streaming state changed since the last call.
func (p *Publisher) Publish() error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}
	st := p.src.Stats()
	msg := Message{
		Time:    time.Now().UTC(),
		Session: p.src.SessionID().String(),
		Client:  p.clientID,
		Stats:   st,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("telemetry: marshal: %w", err)
	}
	if err := p.send(p.config.TopicPrefix+"/stats", p.config.Retain, data); err != nil {
		return err
	}

	if !p.published || st.State != p.lastState {
		if err := p.send(p.config.TopicPrefix+"/state", true, []byte(st.State.String())); err != nil {
			return err
		}
		p.lastState = st.State
		p.published = true
	}
	return nil
}

func (p *Publisher) send(topic string, retain bool, payload []byte) error {
	token := p.client.Publish(topic, p.config.QoS, retain, payload)
	if !token.WaitTimeout(5*time.Second) {
		return fmt.Errorf("telemetry: publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("telemetry: publish %s: %w", topic, err)
	}
	return nil
}

// Run publishes every interval until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Publish(); err != nil {
				antsdr.Logger().Debug().Err(err).Str("component", "telemetry").Msg("publish skipped")
			}
		}
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
