package console

import (
	"bytes"
	"context"
	"testing"
	"time"

	"firestige.xyz/drift/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_WriteRendersLineProtocol(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)

	group := core.EventGroup{
		StreamID: "stream-a",
		Start:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Events: []core.Event{
			{StreamID: "stream-a", Time: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Severity: 42, Desc: "jump"},
		},
	}

	require.NoError(t, s.Write(context.Background(), group))
	assert.Contains(t, buf.String(), "changepoint,")
	assert.Contains(t, buf.String(), "stream=stream-a")
	assert.Contains(t, buf.String(), "severity=42i")
}
