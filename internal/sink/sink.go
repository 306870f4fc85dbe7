// Package sink defines the minimal interface finalized EventGroups are
// handed to (SPEC_FULL §6.6), plus a name-keyed factory registry in the
// teacher's plugin-registry idiom.
package sink

import (
	"context"
	"fmt"

	"firestige.xyz/drift/internal/core"
)

// Sink is the minimal interface the temporal grouper's finalized
// EventGroups are written to.
type Sink interface {
	Write(ctx context.Context, group core.EventGroup) error
	Close() error
}

// Factory builds a Sink from its already-decoded configuration.
type Factory func(cfg any) (Sink, error)

var registry = make(map[string]Factory)

// Register adds a named sink factory to the global registry. It panics on
// an empty name, a nil factory, or a duplicate name, matching the
// teacher's pkg/plugin.Register* convention (a collision is a compile-time
// wiring bug, not a runtime condition to recover from).
func Register(name string, factory Factory) {
	if name == "" {
		panic("sink: name cannot be empty")
	}
	if factory == nil {
		panic("sink: factory cannot be nil")
	}
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("sink: %q already registered", name))
	}
	registry[name] = factory
}

// Get returns the factory registered under name.
func Get(name string) (Factory, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("sink %q: %w", name, core.ErrPluginNotFound)
	}
	return f, nil
}
