// Package core defines core data structures with zero external dependencies.
package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Event is the minimal shape the temporal grouper coalesces: a stream, a
// time, and the rendered tags/fields a sink will eventually serialize. A
// ChangepointEvent converts to it with AsEvent.
type Event struct {
	StreamID string
	Time     time.Time
	Severity uint8
	Latency  time.Duration
	Desc     string
	Tags     Tags
}

// ChangepointEvent is the output of the changepoint processor (spec §3).
type ChangepointEvent struct {
	StreamID         string
	Severity         uint8
	Start            time.Time
	DetectionLatency time.Duration
	Description      string
	Tags             Tags
}

// AsEvent converts a ChangepointEvent into the grouper's Event shape.
func (e ChangepointEvent) AsEvent() Event {
	return Event{
		StreamID: e.StreamID,
		Time:     e.Start,
		Severity: e.Severity,
		Latency:  e.DetectionLatency,
		Desc:     e.Description,
		Tags:     e.Tags,
	}
}

// EventGroup aggregates consecutive events from one stream (spec §3). All
// Events share one StreamID; Events is non-decreasing in time; End is set
// only once the group is finalized.
type EventGroup struct {
	StreamID string
	Start    time.Time
	End      *time.Time
	Events   []Event
}

// Validate enforces the single-stream invariant (spec §7, MultiStreamGroup).
func (g EventGroup) Validate() error {
	for _, e := range g.Events {
		if e.StreamID != g.StreamID {
			return fmt.Errorf("%w: group stream %q, event stream %q", ErrMultiStreamGroup, g.StreamID, e.StreamID)
		}
	}
	return nil
}

// LineProtocol renders a ChangepointEvent bit-exactly per spec §6:
//
//	<eventType>,<sorted tag=value list> <sorted field=value list> <nanoseconds since epoch>
func (e ChangepointEvent) LineProtocol(eventType string) string {
	tags := make(Tags, len(e.Tags)+2)
	for k, v := range e.Tags {
		tags[k] = v
	}
	tags[TagStream] = e.StreamID
	tags[TagEventType] = eventType

	tagKeys := make([]string, 0, len(tags))
	for k := range tags {
		tagKeys = append(tagKeys, k)
	}
	sort.Strings(tagKeys)
	tagParts := make([]string, 0, len(tagKeys))
	for _, k := range tagKeys {
		tagParts = append(tagParts, k+"="+tags[k])
	}

	fields := map[string]string{
		"severity":          strconv.Itoa(int(e.Severity)) + "i",
		"detection_latency": strconv.FormatInt(e.DetectionLatency.Nanoseconds(), 10) + "i",
		"description":       `"` + escapeFieldString(e.Description) + `"`,
	}
	fieldKeys := make([]string, 0, len(fields))
	for k := range fields {
		fieldKeys = append(fieldKeys, k)
	}
	sort.Strings(fieldKeys)
	fieldParts := make([]string, 0, len(fieldKeys))
	for _, k := range fieldKeys {
		fieldParts = append(fieldParts, k+"="+fields[k])
	}

	return fmt.Sprintf("%s,%s %s %d",
		eventType,
		strings.Join(tagParts, ","),
		strings.Join(fieldParts, ","),
		e.Start.UnixNano(),
	)
}

func escapeFieldString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
