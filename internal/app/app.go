// Package app wires the detector, grouper, checkpoint store, sinks, and
// metrics server into a runnable pipeline (SPEC_FULL §6.8), the way the
// teacher's cmd layer wires a pipeline.Pipeline from a GlobalConfig.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"firestige.xyz/drift/internal/checkpoint"
	"firestige.xyz/drift/internal/config"
	"firestige.xyz/drift/internal/core"
	"firestige.xyz/drift/internal/dataflow"
	"firestige.xyz/drift/internal/distribution"
	"firestige.xyz/drift/internal/enrichment/mysql"
	"firestige.xyz/drift/internal/ingestion"
	"firestige.xyz/drift/internal/log"
	"firestige.xyz/drift/internal/metrics"
	"firestige.xyz/drift/internal/sink"
	"firestige.xyz/drift/internal/sink/console"
	"firestige.xyz/drift/internal/sink/kafka"
	"firestige.xyz/drift/internal/sink/lineproto"
)

// App owns one shard's worth of dataflow state plus its collaborators. A
// production deployment would run one App per dataflow.Shard behind the
// consistent-hash ring (SPEC_FULL §5); this CLI runs a single shard, which
// is sufficient to exercise the full pipeline end to end.
type App struct {
	cfg    *config.GlobalConfig
	logger *logrus.Logger

	shard      *dataflow.Shard
	factory    func(streamID string) func() *dataflow.Flow
	store      checkpoint.Store
	sinks      []sink.Sink
	source     ingestion.Source
	enricher   mysql.Enricher
	metricsSrv *metrics.Server
}

// New constructs an App from configuration. sourcePath selects the demo
// file source (SPEC_FULL §6.5); the core algorithm has no knowledge of it.
func New(cfg *config.GlobalConfig, sourcePath string) (*App, error) {
	logger, err := log.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	cpCfg, err := cfg.Changepoint()
	if err != nil {
		return nil, err
	}
	grCfg, err := cfg.Grouping()
	if err != nil {
		return nil, err
	}

	initial := distribution.NewNormalDistribution(nil)
	factory := dataflow.NewFlowFactory(cpCfg, grCfg, initial, metrics.ChangepointObserver{}, metrics.GroupingObserver{})

	store := checkpoint.NewRedisStore(cfg.Checkpoint)

	sinks, err := buildSinks(cfg.Sink)
	if err != nil {
		return nil, err
	}

	source, err := ingestion.NewFileSource(sourcePath)
	if err != nil {
		return nil, err
	}

	enricher, err := mysql.Open(cfg.Enrichment)
	if err != nil {
		return nil, fmt.Errorf("app: enrichment: %w", err)
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		shard:      dataflow.NewShard("shard-0"),
		factory:    factory,
		store:      store,
		sinks:      sinks,
		source:     source,
		enricher:   enricher,
		metricsSrv: metrics.NewServer(cfg.Metrics.ListenAddr, "", logger.WithField("component", "metrics")),
	}, nil
}

func buildSinks(cfg config.SinkConfig) ([]sink.Sink, error) {
	var sinks []sink.Sink
	if len(cfg.KafkaBrokers) > 0 {
		s, err := kafka.New(cfg.Kafka)
		if err != nil {
			return nil, fmt.Errorf("app: kafka sink: %w", err)
		}
		sinks = append(sinks, s)
	}
	if len(cfg.LineProtocolServers) > 0 {
		s, err := lineproto.New(cfg.LineProto)
		if err != nil {
			return nil, fmt.Errorf("app: lineproto sink: %w", err)
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 0 {
		sinks = append(sinks, console.New(os.Stdout))
	}
	return sinks, nil
}

// Run drives the source until it is exhausted or ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	if err := a.metricsSrv.Start(ctx); err != nil {
		return fmt.Errorf("app: metrics server: %w", err)
	}
	defer func() { _ = a.metricsSrv.Stop(context.Background()) }()
	defer a.closeSinks()
	defer a.closeEnricher()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		m, err := a.source.Next(ctx)
		if errors.Is(err, core.ErrSourceClosed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("app: source: %w", err)
		}

		if err := a.process(ctx, m); err != nil {
			a.logger.WithError(err).WithField("stream", m.StreamID).Warn("measurement processing failed")
		}

		for _, fired := range a.shard.Watermark.Advance(m.Time) {
			a.fireTimer(ctx, fired)
		}
	}
}

func (a *App) process(ctx context.Context, m core.Measurement) error {
	flow := a.shard.Registry.GetOrCreate(m.StreamID, a.factory(m.StreamID))

	ev, err := flow.Processor.Update(m)
	if err != nil {
		return err
	}
	if err := a.store.Save(ctx, m.StreamID, flow.Processor.Snapshot()); err != nil {
		a.logger.WithError(err).WithField("stream", m.StreamID).Debug("checkpoint save failed")
	}
	if ev == nil {
		return nil
	}

	group := core.EventGroup{StreamID: m.StreamID, Start: ev.Start, Events: []core.Event{ev.AsEvent()}}
	finalized, err := flow.Grouper.Add(group)
	if err != nil {
		return err
	}
	if deadline, ok := flow.Grouper.Deadline(); ok {
		a.shard.Watermark.Register(m.StreamID, deadline)
	}
	if finalized != nil {
		return a.dispatch(ctx, *finalized)
	}
	return nil
}

func (a *App) fireTimer(ctx context.Context, streamID string) {
	flow, ok := a.shard.Registry.Get(streamID)
	if !ok {
		return
	}
	deadline, _ := flow.Grouper.Deadline()
	if finalized := flow.Grouper.Advance(deadline); finalized != nil {
		if err := a.dispatch(ctx, *finalized); err != nil {
			a.logger.WithError(err).WithField("stream", streamID).Warn("sink dispatch failed")
		}
	}
}

// dispatch builds the final tag list for group's events (SPEC_FULL §6.7:
// the enricher is consulted here, once per group, not per measurement) and
// hands the enriched group to every configured sink.
func (a *App) dispatch(ctx context.Context, group core.EventGroup) error {
	group = a.enrichTags(ctx, group)

	var firstErr error
	for _, s := range a.sinks {
		if err := s.Write(ctx, group); err != nil {
			a.logger.WithError(err).Warn("sink write failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("%w", core.ErrSinkUnavailable)
			}
		}
	}
	return firstErr
}

// enrichTags looks up group.StreamID's descriptive tags once and merges
// them into every event's Tags, a caller-supplied tag taking precedence
// over an enrichment one with the same key. A lookup failure is logged and
// the group is dispatched with its original tags (enrichment never
// participates in detection and must not block emission).
func (a *App) enrichTags(ctx context.Context, group core.EventGroup) core.EventGroup {
	tags, err := a.enricher.Tags(ctx, group.StreamID)
	if err != nil {
		a.logger.WithError(err).WithField("stream", group.StreamID).Debug("enrichment lookup failed")
		return group
	}
	if len(tags) == 0 {
		return group
	}

	events := make([]core.Event, len(group.Events))
	for i, e := range group.Events {
		merged := make(core.Tags, len(tags)+len(e.Tags))
		for k, v := range tags {
			merged[k] = v
		}
		for k, v := range e.Tags {
			merged[k] = v
		}
		e.Tags = merged
		events[i] = e
	}
	group.Events = events
	return group
}

func (a *App) closeSinks() {
	for _, s := range a.sinks {
		_ = s.Close()
	}
}

// closeEnricher closes the enricher if it holds a closeable resource; the
// Enricher interface itself carries no Close method since test doubles
// rarely own one.
func (a *App) closeEnricher() {
	if closer, ok := a.enricher.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
