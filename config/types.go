package config

import (
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// Config is the adapter configuration read from hspdebug.yml or hspdebug.toml.
type Config struct {
	Version string        `yaml:"version,omitempty" toml:"version,omitempty" json:"version,omitempty" jsonschema:"description=Configuration version (e.g. '1.0')"`
	Channel ChannelConfig `yaml:"channel,omitempty" toml:"channel,omitempty" json:"channel,omitempty" jsonschema:"description=Websocket endpoint the debuggee connects to"`
	Build   BuildConfig   `yaml:"build,omitempty" toml:"build,omitempty" json:"build,omitempty" jsonschema:"description=External build pipeline settings"`
	Session SessionConfig `yaml:"session,omitempty" toml:"session,omitempty" json:"session,omitempty" jsonschema:"description=Debug session timing"`

	// Extensions holds every other top-level section (e.g. "logging"),
	// decoded on demand with UnmarshalExtension.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-"`
}

// ChannelConfig configures the debuggee websocket endpoint.
type ChannelConfig struct {
	Host           string   `yaml:"host,omitempty" toml:"host,omitempty" json:"host,omitempty" jsonschema:"description=Interface to listen on (default 127.0.0.1)"`
	Port           int      `yaml:"port,omitempty" toml:"port,omitempty" json:"port,omitempty" jsonschema:"minimum=0,maximum=65535,description=Port the debuggee connects to (default 8089)"`
	Subprotocol    string   `yaml:"subprotocol,omitempty" toml:"subprotocol,omitempty" json:"subprotocol,omitempty" jsonschema:"description=Websocket subprotocol offered to the debuggee"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty" toml:"allowed_origins,omitempty" json:"allowed_origins,omitempty" jsonschema:"description=Origins accepted from the debuggee; empty accepts all"`
}

// Addr returns host:port.
func (c ChannelConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BuildConfig configures the build pipeline.
type BuildConfig struct {
	Timeout        Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=Ceiling for every external tool invocation (default 15s)"`
	PollAttempts   int      `yaml:"poll_attempts,omitempty" toml:"poll_attempts,omitempty" json:"poll_attempts,omitempty" jsonschema:"minimum=0,description=Polling attempts while waiting for the helper object file (default 30)"`
	PollInterval   Duration `yaml:"poll_interval,omitempty" toml:"poll_interval,omitempty" json:"poll_interval,omitempty" jsonschema:"description=Delay between polling attempts (default 100ms)"`
	DefaultRuntime string   `yaml:"default_runtime,omitempty" toml:"default_runtime,omitempty" json:"default_runtime,omitempty" jsonschema:"description=Runtime used when the compiler output names none (default hsp3.exe)"`
}

// ArtifactWait is the total time spent waiting for the helper object file.
func (c BuildConfig) ArtifactWait() time.Duration {
	return time.Duration(c.PollAttempts) * c.PollInterval.Duration()
}

// SessionConfig configures debug session timing.
type SessionConfig struct {
	ConfigurationTimeout Duration `yaml:"configuration_timeout,omitempty" toml:"configuration_timeout,omitempty" json:"configuration_timeout,omitempty" jsonschema:"description=How long launch waits for configurationDone (default 1s)"`
	SettleDelay          Duration `yaml:"settle_delay,omitempty" toml:"settle_delay,omitempty" json:"settle_delay,omitempty" jsonschema:"description=Delay between starting the channel and spawning the runtime (default 500ms)"`
}

// Duration is a time.Duration that reads and writes as "15s" in config files.
type Duration time.Duration

// Duration returns the value as a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// JSONSchema describes Duration as a Go duration string.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:    "string",
		Pattern: `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
	}
}

// SetDefaults fills every unset field.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Channel.Host == "" {
		c.Channel.Host = "127.0.0.1"
	}
	if c.Channel.Port == 0 {
		c.Channel.Port = 8089
	}
	if c.Build.Timeout == 0 {
		c.Build.Timeout = Duration(15 * time.Second)
	}
	if c.Build.PollAttempts == 0 {
		c.Build.PollAttempts = 30
	}
	if c.Build.PollInterval == 0 {
		c.Build.PollInterval = Duration(100 * time.Millisecond)
	}
	if c.Build.DefaultRuntime == "" {
		c.Build.DefaultRuntime = "hsp3.exe"
	}
	if c.Session.ConfigurationTimeout == 0 {
		c.Session.ConfigurationTimeout = Duration(time.Second)
	}
	if c.Session.SettleDelay == 0 {
		c.Session.SettleDelay = Duration(500 * time.Millisecond)
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded hspdebug.yml into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// A missing key leaves the target zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
