package lineproto

import (
	"context"
	"net"
	"testing"
	"time"

	"firestige.xyz/drift/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestNew_RequiresServers(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestSink_WriteDeliversToUDPServer(t *testing.T) {
	listener := listenUDP(t)
	s, err := New(Config{Servers: []string{listener.LocalAddr().String()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	group := core.EventGroup{
		StreamID: "stream-a",
		Start:    time.Now(),
		Events: []core.Event{
			{StreamID: "stream-a", Time: time.Now(), Severity: 50},
		},
	}
	require.NoError(t, s.Write(context.Background(), group))

	buf := make([]byte, 4096)
	require.NoError(t, listener.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := listener.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "stream=stream-a")
}

func TestSink_FlowStableRoutingIsConsistent(t *testing.T) {
	l1 := listenUDP(t)
	l2 := listenUDP(t)
	s, err := New(Config{Servers: []string{l1.LocalAddr().String(), l2.LocalAddr().String()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	first := s.connFor("stream-a")
	second := s.connFor("stream-a")
	assert.Equal(t, first, second)
}
