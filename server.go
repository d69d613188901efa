package main

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocket clients
var (
	wsClients   = make(map[*Client]bool)
	wsClientsMu sync.RWMutex
)

type Client struct {
	conn *websocket.Conn
	send chan interface{}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for msg := range c.send {
		switch v := msg.(type) {
		case []byte:
			if err := c.conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
				return
			}
		default:
			if err := c.conn.WriteJSON(v); err != nil {
				return
			}
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// runServer serves the live CFR-group stream and the control API on top
// of a running pipeline.
func runServer(port int, cfg Config, pipeline *Pipeline) {
	upgrader := websocket.Upgrader{
		CheckOrigin:     func(r *http.Request) bool { return true },
		ReadBufferSize:  1024,
		WriteBufferSize: 65536,
	}

	// API endpoints
	http.HandleFunc("/api/status", handleStatus)
	http.HandleFunc("/api/config", handleConfig(cfg))
	http.HandleFunc("/api/phase", handlePhase(pipeline))

	// WebSocket streaming endpoint
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("Upgrade:", err)
			return
		}

		log.Println("Client connected")

		client := &Client{conn: conn, send: make(chan interface{}, 256)}

		wsClientsMu.Lock()
		wsClients[client] = true
		wsClientsMu.Unlock()

		go client.writePump()

		defer func() {
			wsClientsMu.Lock()
			delete(wsClients, client)
			wsClientsMu.Unlock()
			close(client.send)
			log.Println("Client disconnected")
		}()

		// Read pump: clients may inject phase corrections over the socket
		for {
			var msg struct {
				Type    string  `json:"type"`
				Channel int     `json:"channel"`
				Delta   float64 `json:"delta"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type == "phase" {
				pipeline.InjectPhase(PhaseCorrection{Channel: msg.Channel, Delta: msg.Delta})
			}
		}
	})

	addr := fmt.Sprintf(":%d", port)
	log.Printf("CFR stream server listening on http://localhost%s", addr)
	log.Printf("Channels: %d | Sample rate: %.0f", cfg.Channels, cfg.SampleRate)
	log.Fatal(http.ListenAndServe(addr, nil))
}

// broadcast sends a binary frame to every connected client, dropping it
// for clients whose send buffer is full.
func broadcast(msg []byte) {
	wsClientsMu.RLock()
	defer wsClientsMu.RUnlock()

	for client := range wsClients {
		select {
		case client.send <- msg:
		default:
		}
	}
}

func broadcastJSON(msg interface{}) {
	wsClientsMu.RLock()
	defer wsClientsMu.RUnlock()

	for client := range wsClients {
		select {
		case client.send <- msg:
		default:
		}
	}
}
