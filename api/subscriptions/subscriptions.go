// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams finalized outcomes to websocket clients.
package subscriptions

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/fluxprotocol/oracle/api/utils"
	"github.com/fluxprotocol/oracle/builtin/oracle"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/log"
	"github.com/fluxprotocol/oracle/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

var (
	logger = log.WithContext("pkg", "subscriptions")

	metricSubscribers = metrics.LazyLoadGauge("subscriptions_active_count")
	metricDropped     = metrics.LazyLoadCounter("subscriptions_dropped_count")
)

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	requester flux.AccountID
}

// Subscriptions is a hub of outcome subscribers. It implements the dispatcher
// Notifier so every delivered notification is broadcast.
type Subscriptions struct {
	upgrader *websocket.Upgrader
	mu       sync.RWMutex
	clients  map[*client]struct{}
	done     chan struct{}
	wg       sync.WaitGroup
}

func New(allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		clients: make(map[*client]struct{}),
		done:    make(chan struct{}),
	}
}

// Notify queues n for every subscriber interested in its requester.
// Slow subscribers lose messages rather than block the dispatcher.
func (s *Subscriptions) Notify(_ context.Context, n *oracle.Notification) error {
	msg, err := json.Marshal(n)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		if c.requester != "" && c.requester != n.Requester {
			continue
		}
		select {
		case c.send <- msg:
		default:
			metricDropped().Add(1)
			logger.Debug("dropping message for slow client", "request", n.RequestID)
		}
	}
	return nil
}

// Len is the number of connected subscribers.
func (s *Subscriptions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Subscriptions) add(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	s.clients[c] = struct{}{}
	metricSubscribers().Set(int64(len(s.clients)))
	return true
}

func (s *Subscriptions) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
		metricSubscribers().Set(int64(len(s.clients)))
	}
}

func (s *Subscriptions) handleSubscribeOutcomes(w http.ResponseWriter, req *http.Request) error {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader already responded
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	c := &client{
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		requester: flux.AccountID(req.URL.Query().Get("requester")),
	}
	if !s.add(c) {
		conn.Close()
		return nil
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.writePump(c)
	}()
	go func() {
		defer s.wg.Done()
		s.readPump(c)
	}()
	return nil
}

// readPump only handles control frames. It unregisters the client once the peer goes away.
func (s *Subscriptions) readPump(c *client) {
	defer s.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Subscriptions) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects all subscribers and waits for their goroutines.
func (s *Subscriptions) Close() {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return
	default:
	}
	close(s.done)
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	metricSubscribers().Set(0)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/outcomes").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeOutcomes))
}
