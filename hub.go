/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/Seednode/taprace/game"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

const (
	sendBuffer     = 64
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	id      string
	addr    string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

// Hub owns the live websocket connections and delivers game events to them.
// Commands are forwarded to the gateway on the event loop.
type Hub struct {
	cfg     *Config
	loop    *game.Loop
	gateway *game.Gateway

	mu      sync.RWMutex
	clients map[string]*Client
}

// newHub builds the hub and the gateway it feeds. The loop is the gateway's
// scheduler and the hub is its sink.
func newHub(cfg *Config, loop *game.Loop, opts game.Options) *Hub {
	h := &Hub{
		cfg:     cfg,
		loop:    loop,
		clients: make(map[string]*Client),
	}

	opts.Scheduler = loop
	opts.Sink = h
	h.gateway = game.NewGateway(opts)

	return h
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.id] = c
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Send implements game.Sink. A client whose buffer is full is disconnected
// rather than allowed to stall the loop.
func (h *Hub) Send(ids []string, ev game.Event) {
	msg, err := game.Encode(ev)
	if err != nil {
		logf(h.cfg, "ERROR: Failed to encode %s event: %v", ev.Kind(), err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, id := range ids {
		c, ok := h.clients[id]
		if !ok {
			continue
		}

		select {
		case c.send <- msg:
		default:
			logf(h.cfg, "SERVE: Dropping slow client %s (%s)", c.id, c.addr)
			_ = c.conn.Close()
		}
	}
}

// closeAll disconnects every client. Used on shutdown.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, id)
	}
}

func serveWS(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Websocket upgrade for %s failed: %v", realIP(r), err)
			return
		}

		client := &Client{
			id:      uuid.NewString(),
			addr:    realIP(r),
			conn:    conn,
			send:    make(chan []byte, sendBuffer),
			limiter: rate.NewLimiter(rate.Limit(cfg.rateLimit), cfg.rateBurst),
		}

		h.register(client)

		logf(cfg, "SERVE: Connected %s (%s)", client.id, client.addr)

		go client.writePump(h)
		client.readPump(h)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		h.loop.Call(func() { h.gateway.Disconnect(c.id) })
		_ = c.conn.Close()

		logf(h.cfg, "SERVE: Disconnected %s (%s)", c.id, c.addr)
	}()

	c.conn.SetReadLimit(maxMessageSize)

	extend := func() error {
		return c.conn.SetReadDeadline(time.Now().Add(h.cfg.idleTimeout))
	}

	_ = extend()
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = extend()

		if !c.limiter.Allow() {
			logf(h.cfg, "SERVE: Rate limited %s (%s)", c.id, c.addr)
			continue
		}

		cmd, err := game.DecodeCommand(raw)
		if err != nil {
			h.Send([]string{c.id}, game.Reason(err))
			continue
		}

		if !h.loop.Post(func() { h.gateway.Handle(c.id, cmd) }) {
			return
		}
	}
}

func (c *Client) writePump(h *Hub) {
	ticker := time.NewTicker(h.cfg.idleTimeout * 9 / 10)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
