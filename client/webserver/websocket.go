// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package webserver

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"miauswap.org/cdex/dex/ws"
)

var (
	// Time allowed to read the next pong message from the peer. The
	// default is intended for production, but leaving as a var instead of const
	// to facilitate testing.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// A client id counter.
	cidCounter int32
)

// The routes the browser may send on the websocket.
const (
	ackNotesRoute = "acknotes"
	ackAllRoute   = "ackall"
	userRoute     = "user"
)

// wsHandlers is the map used by the server to locate the router handler for a
// request.
var wsHandlers = map[string]func(*WebServer, *wsClient, *ws.Message) error{
	ackNotesRoute: wsAckNotes,
	ackAllRoute:   wsAckAll,
	userRoute:     wsUser,
}

type wsClient struct {
	*ws.WSLink
	cid int32
}

func newWSClient(ip string, conn ws.Connection, hndlr func(msg *ws.Message) error) *wsClient {
	return &wsClient{
		WSLink: ws.NewWSLink(ip, conn, pingPeriod, hndlr),
		cid:    atomic.AddInt32(&cidCounter, 1),
	}
}

// handleWS handles the websocket connection request, creating a ws.Connection
// and a websocketHandler thread.
func (s *WebServer) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	wsConn, err := ws.NewConnection(w, r, pingPeriod+pongWait)
	if err != nil {
		log.Errorf("ws connection error: %v", err)
		return
	}
	go s.websocketHandler(wsConn, ip)
}

// websocketHandler handles a new websocket client by creating a new wsClient,
// starting it, and blocking until the connection closes. This method should be
// run as a goroutine.
func (s *WebServer) websocketHandler(conn ws.Connection, ip string) {
	log.Debugf("New websocket client %s", ip)
	var cl *wsClient
	cl = newWSClient(ip, conn, func(msg *ws.Message) error {
		return s.handleMessage(cl, msg)
	})
	// The link lives until the peer or the server disconnects it.
	wg, err := cl.Connect(context.Background())
	if err != nil {
		log.Errorf("websocketHandler client Connect: %v", err)
		return
	}
	s.mtx.Lock()
	s.clients[cl.cid] = cl
	s.mtx.Unlock()
	defer func() {
		s.mtx.Lock()
		delete(s.clients, cl.cid)
		s.mtx.Unlock()
	}()

	// Start the browser off with the account state.
	if err = wsUser(s, cl, nil); err != nil {
		log.Debugf("initial user send to %s failed: %v", ip, err)
	}

	wg.Wait()
	log.Tracef("Disconnected websocket client %s", ip)
}

// handleMessage handles the websocket message, calling the right handler for
// the route.
func (s *WebServer) handleMessage(conn *wsClient, msg *ws.Message) error {
	log.Tracef("message received for route %s", msg.Route)
	handler, found := wsHandlers[msg.Route]
	if !found {
		return fmt.Errorf("unknown route %q", msg.Route)
	}
	return handler(s, conn, msg)
}

// wsAckNotes marks the notifications with the payload's IDs read.
func wsAckNotes(s *WebServer, _ *wsClient, msg *ws.Message) error {
	var ids []string
	if err := msg.Unmarshal(&ids); err != nil {
		return fmt.Errorf("error decoding note IDs: %w", err)
	}
	s.core.AckNotes(ids)
	return nil
}

// wsAckAll marks every notification read.
func wsAckAll(s *WebServer, _ *wsClient, _ *ws.Message) error {
	s.core.AckAllNotes()
	return nil
}

// wsUser sends the account state to the client.
func wsUser(s *WebServer, cl *wsClient, _ *ws.Message) error {
	msg, err := ws.NewMessage(userRoute, s.core.User())
	if err != nil {
		return err
	}
	return cl.Send(msg)
}
