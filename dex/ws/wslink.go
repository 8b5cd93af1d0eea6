// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package ws implements a websocket link that pushes routed JSON messages to a
// browser and hands incoming messages to a handler.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"miauswap.org/cdex/dex"
)

// outBufferSize is the size of the WSLink's buffered channel for outgoing
// messages.
const outBufferSize = 128

const writeWait = 5 * time.Second

// ErrorRoute is the route of the message sent back when a handler rejects an
// incoming message.
const ErrorRoute = "error"

var (
	log = dex.Disabled

	upgrader = websocket.Upgrader{}
)

// UseLogger sets the package logger.
func UseLogger(logger dex.Logger) {
	log = logger
}

// ErrPeerDisconnected will be returned if Send is called on a disconnected
// link.
const ErrPeerDisconnected = dex.ErrorKind("peer disconnected")

// Message is a routed message. Payload is any JSON.
type Message struct {
	Route   string          `json:"route"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage encodes the payload into a Message for the route.
func NewMessage(route string, payload any) (*Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error encoding %s payload: %w", route, err)
	}
	return &Message{Route: route, Payload: b}, nil
}

// Unmarshal decodes the payload into thing.
func (msg *Message) Unmarshal(thing any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("empty %s payload", msg.Route)
	}
	return json.Unmarshal(msg.Payload, thing)
}

// Connection represents a websocket connection to a remote peer. In practice,
// it is satisfied by *websocket.Conn. For testing, a stub can be used.
type Connection interface {
	Close() error

	SetReadDeadline(t time.Time) error
	ReadMessage() (int, []byte, error)

	SetWriteDeadline(t time.Time) error
	WriteMessage(int, []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

// WSLink is the local, per-connection representation of a browser
// connection.
type WSLink struct {
	ip   string
	conn Connection
	// on prevents multiple Close calls on the underlying connection.
	on      uint32
	quit    context.CancelFunc
	stopped chan struct{}
	// outChan sequences sent messages.
	outChan chan *sendData
	// The read, write and ping goroutines.
	wg         sync.WaitGroup
	handler    func(*Message) error
	pingPeriod time.Duration
}

type sendData struct {
	data []byte
	ret  chan<- error
}

// NewWSLink is a constructor for a new WSLink.
func NewWSLink(addr string, conn Connection, pingPeriod time.Duration, handler func(*Message) error) *WSLink {
	return &WSLink{
		ip:         addr,
		conn:       conn,
		outChan:    make(chan *sendData, outBufferSize),
		pingPeriod: pingPeriod,
		handler:    handler,
	}
}

// Send queues the Message for the peer. The actual write happens
// asynchronously, so a nil error only indicates that the link is believed to
// be up and the message was marshalled.
func (c *WSLink) Send(msg *Message) error {
	return c.send(msg, nil)
}

// SendNow is like Send, but it waits for the message to be written, returning
// any error from the write.
func (c *WSLink) SendNow(msg *Message) error {
	writeErrChan := make(chan error, 1)
	if err := c.send(msg, writeErrChan); err != nil {
		return err
	}
	return <-writeErrChan
}

func (c *WSLink) send(msg *Message, writeErr chan<- error) error {
	if c.Off() {
		return ErrPeerDisconnected
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case c.outChan <- &sendData{b, writeErr}:
	case <-c.stopped:
		return ErrPeerDisconnected
	}
	return nil
}

// SendError sends the error text on the error route.
func (c *WSLink) SendError(err error) {
	msg, _ := NewMessage(ErrorRoute, err.Error())
	if err := c.Send(msg); err != nil {
		log.Debugf("SendError: failed to send message to peer %s: %v", c.ip, err)
	}
}

// Connect begins processing input and output messages.
func (c *WSLink) Connect(ctx context.Context) (*sync.WaitGroup, error) {
	if !atomic.CompareAndSwapUint32(&c.on, 0, 1) {
		return nil, errors.New("attempted to start a running WSLink")
	}
	linkCtx, quit := context.WithCancel(ctx)
	c.quit = quit
	c.stopped = make(chan struct{})
	// The pong handler sets subsequent read deadlines.
	if err := c.conn.SetReadDeadline(time.Now().Add(c.pingPeriod * 2)); err != nil {
		return nil, fmt.Errorf("failed to set initial read deadline for %v: %w", c.ip, err)
	}

	log.Tracef("Starting websocket messaging with peer %s", c.ip)
	c.wg.Add(3)
	go c.inHandler(linkCtx)
	go c.outHandler(linkCtx)
	go c.pingHandler(linkCtx)
	return &c.wg, nil
}

func (c *WSLink) stop() bool {
	if !atomic.CompareAndSwapUint32(&c.on, 1, 0) {
		return false
	}
	close(c.stopped)
	c.quit()
	return true
}

// Disconnect begins shutdown of the WSLink. Queued messages are written before
// the connection closes. Shutdown is complete when the WaitGroup returned by
// Connect is Done.
func (c *WSLink) Disconnect() {
	if !c.stop() {
		log.Debugf("Disconnect attempted on stopped WSLink.")
	}
}

func (c *WSLink) inHandler(ctx context.Context) {
	defer c.wg.Done()
	defer c.stop()
	for ctx.Err() == nil {
		_, msgBytes, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway,
				websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Errorf("Websocket receive error from peer %s: %v", c.ip, err)
			}
			return
		}
		// A message that fails to decode is reported but does not end the
		// link.
		msg := new(Message)
		if err = json.Unmarshal(msgBytes, msg); err != nil {
			c.SendError(fmt.Errorf("failed to parse message: %w", err))
			continue
		}
		if msg.Route == "" {
			c.SendError(errors.New("message route cannot be empty"))
			continue
		}
		if err = c.handler(msg); err != nil {
			c.SendError(err)
		}
	}
}

func (c *WSLink) outHandler(ctx context.Context) {
	defer c.wg.Done()
	defer c.conn.Close()
	defer c.stop()

	write := func(sd *sendData) {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := c.conn.WriteMessage(websocket.TextMessage, sd.data)
		if sd.ret != nil {
			sd.ret <- err
		}
		if err != nil {
			c.stop()
		}
	}

	for {
		select {
		case sd := <-c.outChan:
			write(sd)
		case <-ctx.Done():
			// Write whatever was queued before the stop.
			var n int
			for {
				select {
				case sd := <-c.outChan:
					write(sd)
					n++
				default:
					log.Debugf("Shut down link for %v after flushing %d queued messages.", c.ip, n)
					return
				}
			}
		}
	}
}

func (c *WSLink) pingHandler(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()
	ping := []byte{}
	for {
		select {
		case <-ticker.C:
			err := c.conn.WriteControl(websocket.PingMessage, ping, time.Now().Add(writeWait))
			if err != nil {
				c.stop()
				log.Debugf("WriteMessage ping error: %v", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Off will return true if the link has disconnected.
func (c *WSLink) Off() bool {
	return atomic.LoadUint32(&c.on) == 0
}

// IP is the peer address passed to the constructor.
func (c *WSLink) IP() string {
	return c.ip
}

// NewConnection creates a new Connection by upgrading the http request to a
// websocket.
func NewConnection(w http.ResponseWriter, r *http.Request, readTimeout time.Duration) (Connection, error) {
	// Upgrade writes the http error response itself.
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		var hsErr websocket.HandshakeError
		if errors.As(err, &hsErr) {
			log.Errorf("Unexpected websocket error: %v", err)
		}
		return nil, err
	}
	reqAddr := r.RemoteAddr
	conn.SetPongHandler(func(string) error {
		log.Tracef("got pong from %v", reqAddr)
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	return conn, nil
}
