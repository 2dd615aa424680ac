package service

import (
	"sync"

	"github.com/gorilla/websocket"
)

// ConnectionManager manages the WebSocket connections of online clients.
// Change cues are broadcast to every connection; a client that cares about a
// narrower scope refetches its own view anyway.
type ConnectionManager struct {
	connections map[*websocket.Conn]struct{}
	mu          sync.RWMutex
}

// NewConnectionManager creates a new ConnectionManager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[*websocket.Conn]struct{}),
	}
}

// Add registers a new connection.
func (m *ConnectionManager) Add(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn] = struct{}{}
}

// Remove removes a connection and closes it.
func (m *ConnectionManager) Remove(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.connections[conn]; ok {
		conn.Close()
		delete(m.connections, conn)
	}
}

// Count returns the number of registered connections.
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// Broadcast sends a message to every registered connection. Connections that
// fail the write are dropped; the client reconnects on its own.
func (m *ConnectionManager) Broadcast(message []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for conn := range m.connections {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			conn.Close()
			delete(m.connections, conn)
		}
	}
}
