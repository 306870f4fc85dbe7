// Package core defines core types with zero external dependencies.
package core

import "time"

// Measurement is an immutable value observed on one stream. Sources produce
// it; the changepoint processor consumes it. A Measurement with Lossy set
// must be filtered before it reaches the processor (spec §3, §6).
type Measurement struct {
	StreamID     string
	Time         time.Time
	TypeTag      string
	DefaultValue *float64
	Lossy        bool
}

// Value returns the scalar the detector observes, or false if the
// measurement carries no default value.
func (m Measurement) Value() (float64, bool) {
	if m.DefaultValue == nil {
		return 0, false
	}
	return *m.DefaultValue, true
}

// NewMeasurement builds a Measurement carrying a default value.
func NewMeasurement(streamID, typeTag string, at time.Time, value float64) Measurement {
	v := value
	return Measurement{StreamID: streamID, Time: at, TypeTag: typeTag, DefaultValue: &v}
}
