// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"firestige.xyz/drift/internal/changepoint"
	"firestige.xyz/drift/internal/checkpoint"
	"firestige.xyz/drift/internal/core"
	"firestige.xyz/drift/internal/enrichment/mysql"
	"firestige.xyz/drift/internal/grouping"
	"firestige.xyz/drift/internal/log"
	"firestige.xyz/drift/internal/metrics"
	"firestige.xyz/drift/internal/sink/kafka"
	"firestige.xyz/drift/internal/sink/lineproto"
)

// GlobalConfig is the top-level static configuration (SPEC_FULL §6.1). It
// maps onto a nested YAML document; the flat dotted keys spec.md §6 lists
// for the changepoint detector and the temporal grouper live under
// `detector.changepoint` and `eventGrouping.time` respectively.
type GlobalConfig struct {
	Detector   DetectorConfig    `mapstructure:"detector"`
	EventGroup EventGroupConfig  `mapstructure:"eventGrouping"`
	Checkpoint checkpoint.Config `mapstructure:"checkpoint"`
	Enrichment mysql.Config      `mapstructure:"enrichment"`
	Sink       SinkConfig        `mapstructure:"sink"`
	Log        log.Config        `mapstructure:"log"`
	Metrics    metrics.Config    `mapstructure:"metrics"`
}

// DetectorConfig wraps the changepoint tunables under the `detector.`
// prefix spec.md §6 documents.
type DetectorConfig struct {
	Changepoint ChangepointSection `mapstructure:"changepoint"`
}

// ChangepointSection mirrors changepoint.Config's mapstructure tags. It is
// kept distinct from changepoint.Config so the detector package has no
// dependency on the config package's import graph; Changepoint copies it over.
type ChangepointSection struct {
	MaxHistory          uint32 `mapstructure:"maxHistory"`
	TriggerCount        uint32 `mapstructure:"triggerCount"`
	IgnoreOutlierAfter  uint32 `mapstructure:"ignoreOutlierAfter"`
	InactivityPurgeSec  uint32 `mapstructure:"inactivityPurgeSec"`
	MinEventIntervalSec uint32 `mapstructure:"minEventIntervalSec"`
	SeverityThreshold   uint8  `mapstructure:"severityThreshold"`
}

// EventGroupConfig wraps the grouper tunables under `eventGrouping.time.`.
type EventGroupConfig struct {
	Time EventGroupTimeSection `mapstructure:"time"`
}

// EventGroupTimeSection mirrors grouping.Config's mapstructure tags.
type EventGroupTimeSection struct {
	MaxSpanSec uint32 `mapstructure:"maximumEventLength"`
	MaxGapSec  uint32 `mapstructure:"maximumEventInterval"`
}

// SinkConfig selects and configures the output fan-out (SPEC_FULL §6.6).
type SinkConfig struct {
	KafkaBrokers        []string         `mapstructure:"kafkaBrokers"`
	KafkaTopic          string           `mapstructure:"kafkaTopic"`
	LineProtocolServers []string         `mapstructure:"lineProtocolServers"`
	Kafka               kafka.Config     `mapstructure:"-"`
	LineProto           lineproto.Config `mapstructure:"-"`
}

// configRoot is the YAML document's implicit root; the file itself is the
// GlobalConfig (no outer wrapper key, unlike the teacher's capture-agent
// layout, since this module has a single top-level concern).
type configRoot = GlobalConfig

// Load reads, defaults, and validates configuration from path. A key the
// file omits takes its default from setDefaults; an out-of-range value is
// reported as core.ErrConfiguration and Load returns nil (spec.md §7:
// configuration errors are fatal at startup).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("drift")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg configRoot
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Sink.Kafka = kafka.Config{Brokers: cfg.Sink.KafkaBrokers, Topic: cfg.Sink.KafkaTopic}
	cfg.Sink.LineProto = lineproto.Config{Servers: cfg.Sink.LineProtocolServers}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("detector.changepoint.maxHistory", 20)
	v.SetDefault("detector.changepoint.triggerCount", 10)
	v.SetDefault("detector.changepoint.ignoreOutlierAfter", 1)
	v.SetDefault("detector.changepoint.inactivityPurgeSec", 60)
	v.SetDefault("detector.changepoint.minEventIntervalSec", 10)
	v.SetDefault("detector.changepoint.severityThreshold", 30)

	v.SetDefault("eventGrouping.time.maximumEventLength", 60)
	v.SetDefault("eventGrouping.time.maximumEventInterval", 10)

	v.SetDefault("checkpoint.redisAddr", "127.0.0.1:6379")
	v.SetDefault("checkpoint.namespace", "drift")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("metrics.listenAddr", ":9090")
}

// Validate checks the detector and grouper bounds and the metrics address
// directly on the raw config sections. It does not call the detector and
// grouper packages' own Validate; Changepoint and Grouping do that when
// they convert those sections.
func (cfg *GlobalConfig) Validate() error {
	if cfg.Detector.Changepoint.MaxHistory == 0 {
		return fmt.Errorf("%w: detector.changepoint.maxHistory must be > 0", core.ErrConfiguration)
	}
	if cfg.Detector.Changepoint.TriggerCount == 0 {
		return fmt.Errorf("%w: detector.changepoint.triggerCount must be > 0", core.ErrConfiguration)
	}
	if cfg.Detector.Changepoint.SeverityThreshold > 100 {
		return fmt.Errorf("%w: detector.changepoint.severityThreshold must be <= 100", core.ErrConfiguration)
	}
	if cfg.EventGroup.Time.MaxSpanSec == 0 {
		return fmt.Errorf("%w: eventGrouping.time.maximumEventLength must be > 0", core.ErrConfiguration)
	}
	if cfg.Metrics.ListenAddr == "" {
		return fmt.Errorf("%w: metrics.listenAddr must be set", core.ErrConfiguration)
	}
	return nil
}

// Changepoint converts the config section into a changepoint.Config with
// its derived duration fields resolved.
func (cfg *GlobalConfig) Changepoint() (changepoint.Config, error) {
	s := cfg.Detector.Changepoint
	cc := changepoint.Config{
		MaxHistory:          s.MaxHistory,
		TriggerCount:        s.TriggerCount,
		IgnoreOutlierAfter:  s.IgnoreOutlierAfter,
		InactivityPurgeSec:  s.InactivityPurgeSec,
		MinEventIntervalSec: s.MinEventIntervalSec,
		SeverityThreshold:   s.SeverityThreshold,
	}
	if err := cc.Validate(); err != nil {
		return changepoint.Config{}, err
	}
	return cc, nil
}

// Grouping converts the config section into a grouping.Config with its
// derived duration fields resolved.
func (cfg *GlobalConfig) Grouping() (grouping.Config, error) {
	gc := grouping.Config{
		MaxSpanSec: cfg.EventGroup.Time.MaxSpanSec,
		MaxGapSec:  cfg.EventGroup.Time.MaxGapSec,
	}
	if err := gc.Validate(); err != nil {
		return grouping.Config{}, err
	}
	return gc, nil
}
