// Package grouping implements the per-stream temporal event grouper (spec
// §4.3): it coalesces consecutive changepoint events into EventGroups,
// bounded by a maximum span and a maximum inter-event gap.
package grouping

import (
	"fmt"
	"time"

	"firestige.xyz/drift/internal/core"
)

// Config holds the grouper's tunables, named to match the core's dotted
// configuration keys (spec §6): eventGrouping.time.maximumEventLength and
// eventGrouping.time.maximumEventInterval.
type Config struct {
	MaxSpanSec uint32        `mapstructure:"maximumEventLength"`
	MaxSpan    time.Duration `mapstructure:"-"`
	MaxGapSec  uint32        `mapstructure:"maximumEventInterval"`
	MaxGap     time.Duration `mapstructure:"-"`
}

// DefaultConfig returns spec §4.3's published defaults.
func DefaultConfig() Config {
	return Config{
		MaxSpanSec: 60,
		MaxSpan:    60 * time.Second,
		MaxGapSec:  10,
		MaxGap:     10 * time.Second,
	}
}

// Validate resolves the *Sec duration fields.
func (c *Config) Validate() error {
	if c.MaxSpanSec == 0 {
		return fmt.Errorf("%w: eventGrouping.time.maximumEventLength must be > 0", core.ErrConfiguration)
	}
	c.MaxSpan = time.Duration(c.MaxSpanSec) * time.Second
	c.MaxGap = time.Duration(c.MaxGapSec) * time.Second
	return nil
}
