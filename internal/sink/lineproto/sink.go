// Package lineproto fans finalized EventGroups out to one of several
// configured line-protocol UDP endpoints (SPEC_FULL §6.6), selecting the
// target by hashing stream_id so all events for one stream land on one
// endpoint. Grounded on the teacher's plugins/reporter/hep HEPReporter
// flow-stable routing, repurposed from HEP frames to spec.md §6's
// line-protocol wire format.
package lineproto

import (
	"context"
	"fmt"
	"hash/fnv"
	"net"
	"sync/atomic"

	"firestige.xyz/drift/internal/core"
	"firestige.xyz/drift/internal/sink"
)

const Name = "lineproto"

const eventType = "changepoint"

// Config configures the line-protocol UDP sink.
type Config struct {
	Servers []string `mapstructure:"servers"`
}

// Sink holds one pre-dialed UDP connection per configured server.
type Sink struct {
	conns []*net.UDPConn

	sentCount  atomic.Uint64
	errorCount atomic.Uint64
}

func init() {
	sink.Register(Name, func(cfg any) (sink.Sink, error) {
		c, ok := cfg.(Config)
		if !ok {
			return nil, fmt.Errorf("lineproto sink: unexpected config type %T", cfg)
		}
		return New(c)
	})
}

// New dials a UDP connection to each configured server.
func New(cfg Config) (*Sink, error) {
	if len(cfg.Servers) == 0 {
		return nil, fmt.Errorf("lineproto sink: at least one server is required")
	}
	s := &Sink{conns: make([]*net.UDPConn, 0, len(cfg.Servers))}
	for _, addr := range cfg.Servers {
		udpAddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			s.closeConns()
			return nil, fmt.Errorf("lineproto sink: resolve %q: %w", addr, err)
		}
		conn, err := net.DialUDP("udp", nil, udpAddr)
		if err != nil {
			s.closeConns()
			return nil, fmt.Errorf("lineproto sink: dial %q: %w", addr, err)
		}
		s.conns = append(s.conns, conn)
	}
	return s, nil
}

func (s *Sink) closeConns() {
	for _, c := range s.conns {
		if c != nil {
			_ = c.Close()
		}
	}
	s.conns = nil
}

func (s *Sink) Write(_ context.Context, group core.EventGroup) error {
	for _, e := range group.Events {
		line := core.ChangepointEvent{
			StreamID:         e.StreamID,
			Severity:         e.Severity,
			Start:            e.Time,
			DetectionLatency: e.Latency,
			Description:      e.Desc,
			Tags:             e.Tags,
		}.LineProtocol(eventType)

		conn := s.connFor(e.StreamID)
		if _, err := conn.Write([]byte(line)); err != nil {
			s.errorCount.Add(1)
			return fmt.Errorf("lineproto sink: send to %s: %w", conn.RemoteAddr(), err)
		}
		s.sentCount.Add(1)
	}
	return nil
}

// connFor selects the connection owning streamID by FNV-32a hashing (spec
// §6 is silent on routing; this mirrors the teacher's flow-stable HEP
// routing so every event for one stream always reaches the same endpoint).
func (s *Sink) connFor(streamID string) *net.UDPConn {
	if len(s.conns) == 1 {
		return s.conns[0]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(streamID))
	idx := h.Sum32() % uint32(len(s.conns))
	return s.conns[idx]
}

func (s *Sink) Close() error {
	s.closeConns()
	return nil
}
