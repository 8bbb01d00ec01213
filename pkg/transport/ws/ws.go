// Package ws bridges a display link over a websocket connection.
package ws

import (
	"net/http"

	"golang.org/x/net/websocket"
)

// Stream is a display link over one websocket connection. Writes go
// out as binary messages, reads carry net.Conn deadline semantics.
type Stream struct {
	*websocket.Conn
}

// New wraps an accepted connection.
func New(conn *websocket.Conn) *Stream {
	conn.PayloadType = websocket.BinaryFrame
	return &Stream{Conn: conn}
}

// Dial connects to a websocket endpoint, ws://host:port/path.
func Dial(url, origin string) (*Stream, error) {
	if origin == "" {
		origin = "http://localhost/"
	}
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// Handler adapts a per-connection serve function into an http.Handler.
// The connection closes when serve returns.
func Handler(serve func(*Stream)) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		serve(New(conn))
	})
}
