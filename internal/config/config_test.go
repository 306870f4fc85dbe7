package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/drift/internal/core"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_AppliesDefaultsWhenSectionsOmitted(t *testing.T) {
	path := writeConfigFile(t, "metrics:\n  listenAddr: :9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.EqualValues(t, 20, cfg.Detector.Changepoint.MaxHistory)
	assert.EqualValues(t, 10, cfg.Detector.Changepoint.TriggerCount)
	assert.EqualValues(t, 30, cfg.Detector.Changepoint.SeverityThreshold)
	assert.EqualValues(t, 60, cfg.EventGroup.Time.MaxSpanSec)
	assert.EqualValues(t, 10, cfg.EventGroup.Time.MaxGapSec)
	assert.Equal(t, "127.0.0.1:6379", cfg.Checkpoint.RedisAddr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_OverridesDefaultsFromFile(t *testing.T) {
	path := writeConfigFile(t, ""+
		"detector:\n  changepoint:\n    maxHistory: 50\n    severityThreshold: 75\n"+
		"metrics:\n  listenAddr: :9999\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.EqualValues(t, 50, cfg.Detector.Changepoint.MaxHistory)
	assert.EqualValues(t, 75, cfg.Detector.Changepoint.SeverityThreshold)
	assert.Equal(t, ":9999", cfg.Metrics.ListenAddr)
}

func TestLoad_WiresSinkConfigsFromFlatKeys(t *testing.T) {
	path := writeConfigFile(t, ""+
		"metrics:\n  listenAddr: :9090\n"+
		"sink:\n  kafkaBrokers: [\"broker-1:9092\"]\n  kafkaTopic: changepoints\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"broker-1:9092"}, cfg.Sink.Kafka.Brokers)
	assert.Equal(t, "changepoints", cfg.Sink.Kafka.Topic)
}

func TestLoad_RejectsZeroMaxHistory(t *testing.T) {
	path := writeConfigFile(t, ""+
		"detector:\n  changepoint:\n    maxHistory: 0\n"+
		"metrics:\n  listenAddr: :9090\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestLoad_RejectsSeverityThresholdAboveHundred(t *testing.T) {
	path := writeConfigFile(t, ""+
		"detector:\n  changepoint:\n    severityThreshold: 150\n"+
		"metrics:\n  listenAddr: :9090\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestLoad_RejectsEmptyMetricsListenAddr(t *testing.T) {
	path := writeConfigFile(t, ""+
		"detector:\n  changepoint:\n    maxHistory: 5\n"+
		"metrics:\n  listenAddr: \"\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	require.Error(t, err)
}
