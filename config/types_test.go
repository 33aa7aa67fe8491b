package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("ninety")))
}

func TestDurationYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 15s")

	var back Config
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, cfg.Build.Timeout, back.Build.Timeout)
}

func TestUnmarshalExtensionMissingKey(t *testing.T) {
	cfg := Default()
	target := struct {
		Level string `yaml:"level"`
	}{Level: "info"}
	require.NoError(t, cfg.UnmarshalExtension("logging", &target))
	assert.Equal(t, "info", target.Level)
}
