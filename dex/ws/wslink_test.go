// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

type tConn struct {
	mtx     sync.Mutex
	in      chan []byte
	written [][]byte
	closed  bool
	wrote   chan struct{}
}

func newTConn() *tConn {
	return &tConn{
		in:    make(chan []byte, 4),
		wrote: make(chan struct{}, 16),
	}
}

func (c *tConn) Close() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if !c.closed {
		c.closed = true
		close(c.in)
	}
	return nil
}

func (c *tConn) SetReadDeadline(time.Time) error { return nil }
func (c *tConn) SetWriteDeadline(time.Time) error { return nil }

func (c *tConn) ReadMessage() (int, []byte, error) {
	b, ok := <-c.in
	if !ok {
		return 0, nil, io.EOF
	}
	return 1, b, nil
}

func (c *tConn) WriteMessage(_ int, b []byte) error {
	c.mtx.Lock()
	c.written = append(c.written, b)
	c.mtx.Unlock()
	c.wrote <- struct{}{}
	return nil
}

func (c *tConn) WriteControl(int, []byte, time.Time) error { return nil }

func (c *tConn) messages(t *testing.T) []*Message {
	t.Helper()
	c.mtx.Lock()
	defer c.mtx.Unlock()
	msgs := make([]*Message, 0, len(c.written))
	for _, b := range c.written {
		msg := new(Message)
		if err := json.Unmarshal(b, msg); err != nil {
			t.Fatalf("bad message written: %v", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func (c *tConn) waitWrites(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.wrote:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for write %d", i+1)
		}
	}
}

func TestWSLink(t *testing.T) {
	conn := newTConn()
	handled := make(chan *Message, 1)
	link := NewWSLink("127.0.0.1", conn, time.Minute, func(msg *Message) error {
		if msg.Route == "bad" {
			return errors.New("bad route")
		}
		handled <- msg
		return nil
	})
	if !link.Off() {
		t.Fatalf("link on before Connect")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg, err := link.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	if _, err = link.Connect(ctx); err == nil {
		t.Fatalf("no error for second Connect")
	}

	msg, err := NewMessage("notify", map[string]string{"subject": "hi"})
	if err != nil {
		t.Fatalf("NewMessage error: %v", err)
	}
	if err = link.SendNow(msg); err != nil {
		t.Fatalf("SendNow error: %v", err)
	}
	conn.waitWrites(t, 1)

	conn.in <- []byte(`{"route":"acknotes","payload":["a","b"]}`)
	select {
	case msg := <-handled:
		var ids []string
		if err := msg.Unmarshal(&ids); err != nil {
			t.Fatalf("payload decode error: %v", err)
		}
		if len(ids) != 2 || ids[1] != "b" {
			t.Fatalf("wrong payload %v", ids)
		}
	case <-time.After(time.Second):
		t.Fatalf("message not handled")
	}

	// Parse failures, empty routes and handler errors come back on the error
	// route.
	conn.in <- []byte(`not json`)
	conn.in <- []byte(`{"payload":1}`)
	conn.in <- []byte(`{"route":"bad"}`)
	conn.waitWrites(t, 3)
	msgs := conn.messages(t)
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages written, got %d", len(msgs))
	}
	if msgs[0].Route != "notify" {
		t.Fatalf("wrong first route %q", msgs[0].Route)
	}
	for _, msg := range msgs[1:] {
		if msg.Route != ErrorRoute {
			t.Fatalf("expected error route, got %q", msg.Route)
		}
	}
	var errText string
	if err := msgs[3].Unmarshal(&errText); err != nil || errText != "bad route" {
		t.Fatalf("wrong error text %q, %v", errText, err)
	}

	link.Disconnect()
	wg.Wait()
	if !link.Off() {
		t.Fatalf("link still on after Disconnect")
	}
	if err := link.Send(msg); !errors.Is(err, ErrPeerDisconnected) {
		t.Fatalf("expected ErrPeerDisconnected, got %v", err)
	}
}

func TestMessageUnmarshalEmpty(t *testing.T) {
	msg := &Message{Route: "acknotes"}
	var ids []string
	if err := msg.Unmarshal(&ids); err == nil {
		t.Fatalf("no error for empty payload")
	}
}
