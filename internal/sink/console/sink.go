// Package console implements the line-protocol console sink (SPEC_FULL
// §6.6), grounded on the teacher's internal/sink/console.Sink.
package console

import (
	"context"
	"fmt"
	"io"
	"os"

	"firestige.xyz/drift/internal/core"
	"firestige.xyz/drift/internal/sink"
)

const Name = "console"

// eventType is the line-protocol measurement name for changepoint events
// (spec §6: "<eventType>,<tags> <fields> <nanos>").
const eventType = "changepoint"

// Sink writes each event's line-protocol encoding to an io.Writer,
// defaulting to stdout.
type Sink struct {
	out io.Writer
}

func init() {
	sink.Register(Name, func(cfg any) (sink.Sink, error) {
		return New(os.Stdout), nil
	})
}

// New builds a console Sink writing to out.
func New(out io.Writer) *Sink {
	return &Sink{out: out}
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
		if _, err := fmt.Fprintln(s.out, line); err != nil {
			return fmt.Errorf("console sink: write: %w", err)
		}
	}
	return nil
}

func (s *Sink) Close() error { return nil }
