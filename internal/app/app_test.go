package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/drift/internal/changepoint"
	"firestige.xyz/drift/internal/checkpoint"
	"firestige.xyz/drift/internal/core"
	"firestige.xyz/drift/internal/dataflow"
	"firestige.xyz/drift/internal/distribution"
	"firestige.xyz/drift/internal/enrichment/mysql"
	"firestige.xyz/drift/internal/grouping"
	"firestige.xyz/drift/internal/ingestion"
	"firestige.xyz/drift/internal/metrics"
	"firestige.xyz/drift/internal/sink"
	"firestige.xyz/drift/internal/sink/console"
)

func writeMeasurementFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "measurements.lp")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

// stubEnricher is a test double for mysql.Enricher that returns a fixed tag
// set without touching a database.
type stubEnricher map[string]string

func (s stubEnricher) Tags(ctx context.Context, streamID string) (map[string]string, error) {
	return s, nil
}

type failingEnricher struct{}

func (failingEnricher) Tags(ctx context.Context, streamID string) (map[string]string, error) {
	return nil, errors.New("enrichment: lookup failed")
}

// newTestApp wires an App without touching Redis, Kafka, or the network,
// mirroring what app.New assembles but with test doubles for every
// collaborator that has an external dependency.
func newTestApp(t *testing.T, path string, out *bytes.Buffer, enricher mysql.Enricher) *App {
	t.Helper()

	cpCfg := changepoint.DefaultConfig()
	cpCfg.TriggerCount = 1
	cpCfg.MinEventIntervalSec = 0
	grCfg := grouping.DefaultConfig()

	factory := dataflow.NewFlowFactory(cpCfg, grCfg, distribution.NewNormalDistribution(nil),
		metrics.ChangepointObserver{}, metrics.GroupingObserver{})

	src, err := ingestion.NewFileSource(path)
	require.NoError(t, err)

	if enricher == nil {
		enricher, err = mysql.Open(mysql.Config{})
		require.NoError(t, err)
	}

	return &App{
		logger:     logrus.New(),
		shard:      dataflow.NewShard("test-shard"),
		factory:    factory,
		store:      checkpoint.NewMemoryStore(),
		sinks:      []sink.Sink{console.New(out)},
		source:     src,
		enricher:   enricher,
		metricsSrv: metrics.NewServer(":0", "", logrus.NewEntry(logrus.New())),
	}
}

func TestApp_RunDrainsSource(t *testing.T) {
	path := writeMeasurementFile(t,
		"stream-a,latency_ms value=50,lossy=false 1000000000",
		"stream-a,latency_ms value=51,lossy=false 2000000000",
		"stream-a,latency_ms value=52,lossy=false 3000000000",
	)
	var out bytes.Buffer
	a := newTestApp(t, path, &out, nil)

	err := a.Run(context.Background())
	require.NoError(t, err)

	_, err = a.source.Next(context.Background())
	assert.ErrorIs(t, err, core.ErrSourceClosed)
}

func TestApp_ProcessCheckspointsEveryMeasurement(t *testing.T) {
	path := writeMeasurementFile(t, "stream-a,latency_ms value=50,lossy=false 1000000000")
	var out bytes.Buffer
	a := newTestApp(t, path, &out, nil)

	m, err := a.source.Next(context.Background())
	require.NoError(t, err)
	require.NoError(t, a.process(context.Background(), m))

	_, ok, err := a.store.Load(context.Background(), "stream-a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApp_DispatchEnrichesEventTagsBeforeWritingSinks(t *testing.T) {
	path := writeMeasurementFile(t, "stream-a,latency_ms value=50,lossy=false 1000000000")
	var out bytes.Buffer
	a := newTestApp(t, path, &out, stubEnricher{"region": "us-east"})

	group := core.EventGroup{
		StreamID: "stream-a",
		Start:    time.Unix(0, 1000000000),
		Events: []core.Event{
			{StreamID: "stream-a", Time: time.Unix(0, 1000000000), Tags: core.Tags{"custom": "kept"}},
		},
	}

	require.NoError(t, a.dispatch(context.Background(), group))
	assert.Contains(t, out.String(), "region=us-east")
	assert.Contains(t, out.String(), "custom=kept")
}

func TestApp_EnrichTagsLeavesGroupUnchangedWhenLookupFails(t *testing.T) {
	path := writeMeasurementFile(t, "stream-a,latency_ms value=50,lossy=false 1000000000")
	var out bytes.Buffer
	a := newTestApp(t, path, &out, failingEnricher{})

	group := core.EventGroup{
		StreamID: "stream-a",
		Events:   []core.Event{{StreamID: "stream-a", Tags: core.Tags{"custom": "kept"}}},
	}

	enriched := a.enrichTags(context.Background(), group)
	assert.Equal(t, group, enriched)
}
