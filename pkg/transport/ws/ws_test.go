package ws

import (
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/featherforge/arcos.go/pkg/transport"
)

var _ transport.Stream = (*Stream)(nil)

func TestStreamRoundTrip(t *testing.T) {
	srv := httptest.NewServer(Handler(func(s *Stream) {
		buf := make([]byte, 256)
		for {
			n, err := s.Read(buf)
			if err != nil {
				return
			}
			if _, err := s.Write(buf[:n]); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	conn, err := Dial("ws"+strings.TrimPrefix(srv.URL, "http"), "")
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, byte(websocket.BinaryFrame), conn.PayloadType)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	sent := []byte{0xAA, 0x55, 0x01}
	_, err = conn.Write(sent)
	require.NoError(t, err)

	buf := make([]byte, 16)
	var got []byte
	for len(got) < len(sent) {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	require.Equal(t, sent, got)
}

func TestStreamDeadline(t *testing.T) {
	srv := httptest.NewServer(Handler(func(s *Stream) {
		buf := make([]byte, 16)
		for {
			if _, err := s.Read(buf); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	conn, err := Dial("ws"+strings.TrimPrefix(srv.URL, "http"), "")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(30*time.Millisecond)))
	_, err = conn.Read(make([]byte, 16))
	require.Error(t, err)
	require.True(t, os.IsTimeout(err))
}
