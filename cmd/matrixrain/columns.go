// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/GermanBionicSystems/matrixrain/rain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type snapshot struct {
	Tick    int           `json:"tick"`
	Columns []rain.Column `json:"columns"`
}

// columnHub pushes the column state to websocket clients after every tick.
// A slow client misses snapshots instead of slowing the animation.
type columnHub struct {
	up websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func newColumnHub() *columnHub {
	return &columnHub{
		up:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients: map[*websocket.Conn]chan []byte{},
	}
}

func (h *columnHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.up.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("columns upgrade")
		return
	}
	send := make(chan []byte, 1)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()
	log.Info().Str("remote", r.RemoteAddr).Msg("columns client connected")

	go h.writeLoop(conn, send)
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *columnHub) writeLoop(conn *websocket.Conn, send chan []byte) {
	for b := range send {
		conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write columns")
			h.remove(conn)
			return
		}
	}
}

func (h *columnHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	send, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		close(send)
		conn.Close()
	}
}

// publish replaces the pending snapshot of every client.
func (h *columnHub) publish(tick int, cols []rain.Column) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}
	b, err := json.Marshal(snapshot{Tick: tick, Columns: cols})
	if err != nil {
		log.Error().Err(err).Msg("marshal columns")
		return
	}
	for _, send := range h.clients {
		select {
		case <-send:
		default:
		}
		select {
		case send <- b:
		default:
		}
	}
}

func (h *columnHub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *columnHub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		h.remove(c)
	}
}
