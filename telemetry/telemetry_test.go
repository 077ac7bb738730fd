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

package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	antsdr "github.com/ZaparooProject/go-antsdr"
)

type doneToken struct {
	err error
}

func (*doneToken) Wait() bool                     { return true }
func (*doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Error() error                 { return t.err }
func (*doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	payload []byte
	retain  bool
}

type fakeClient struct {
	err          error
	messages     []published
	mu           sync.Mutex
	connected    bool
	disconnected bool
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
func (c *fakeClient) IsConnectionOpen() bool { return c.IsConnected() }
func (*fakeClient) Connect() mqtt.Token { return &doneToken{} }
func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.disconnected = true
}

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload any) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return &doneToken{err: c.err}
	}
	b, _ := payload.([]byte)
	c.messages = append(c.messages, published{topic: topic, payload: b, retain: retained})
	return &doneToken{}
}

func (*fakeClient) Subscribe(string, byte, mqtt.MessageHandler) mqtt.Token { return &doneToken{} }
func (*fakeClient) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return &doneToken{}
}
func (*fakeClient) Unsubscribe(...string) mqtt.Token { return &doneToken{} }
func (*fakeClient) AddRoute(string, mqtt.MessageHandler) {}
func (*fakeClient) OptionsReader() mqtt.ClientOptionsReader { return mqtt.ClientOptionsReader{} }

func (c *fakeClient) sent() []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]published(nil), c.messages...)
}

type fakeSource struct {
	stats   antsdr.Stats
	session uuid.UUID
}

func (f *fakeSource) Stats() antsdr.Stats { return f.stats }
func (f *fakeSource) SessionID() uuid.UUID { return f.session }

func TestPublish(t *testing.T) {
	t.Parallel()
	client := &fakeClient{connected: true}
	src := &fakeSource{
		stats:   antsdr.Stats{ValidFrames: 12, State: antsdr.StateStreaming},
		session: uuid.New(),
	}
	p := NewWithClient(client, "antsdr-test", src, Config{})

	require.NoError(t, p.Publish())
	msgs := client.sent()
	require.Len(t, msgs, 2)
	assert.Equal(t, "antsdr/stats", msgs[0].topic)
	assert.Equal(t, "antsdr/state", msgs[1].topic)
	assert.True(t, msgs[1].retain)
	assert.Equal(t, "streaming", string(msgs[1].payload))

	var m Message
	require.NoError(t, json.Unmarshal(msgs[0].payload, &m))
	assert.Equal(t, src.session.String(), m.Session)
	assert.Equal(t, "antsdr-test", m.Client)
	assert.Equal(t, uint64(12), m.Stats.ValidFrames)

	require.NoError(t, p.Publish())
	assert.Len(t, client.sent(), 3, "unchanged state is not republished")

	src.stats.State = antsdr.StateStandby
	require.NoError(t, p.Publish())
	msgs = client.sent()
	require.Len(t, msgs, 5)
	assert.Equal(t, "standby", string(msgs[4].payload))
}

func TestPublish_Errors(t *testing.T) {
	t.Parallel()
	client := &fakeClient{}
	p := NewWithClient(client, "id", &fakeSource{}, Config{TopicPrefix: "lab/sdr1"})
	require.ErrorIs(t, p.Publish(), ErrNotConnected)

	client.connected = true
	client.err = errors.New("broker rejected")
	err := p.Publish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lab/sdr1/stats")
}

func TestRunAndClose(t *testing.T) {
	t.Parallel()
	client := &fakeClient{connected: true}
	p := NewWithClient(client, "id", &fakeSource{}, Config{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return len(client.sent()) >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	<-done

	p.Close()
	assert.True(t, client.disconnected)
}
