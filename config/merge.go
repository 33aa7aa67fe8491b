package config

// mergeConfigs merges override configuration into base.
// Zero values in override leave the base value untouched.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}

	// Merge channel
	if override.Channel.Host != "" {
		result.Channel.Host = override.Channel.Host
	}
	if override.Channel.Port != 0 {
		result.Channel.Port = override.Channel.Port
	}
	if override.Channel.Subprotocol != "" {
		result.Channel.Subprotocol = override.Channel.Subprotocol
	}
	if len(override.Channel.AllowedOrigins) > 0 {
		result.Channel.AllowedOrigins = append([]string(nil), override.Channel.AllowedOrigins...)
	}

	// Merge build
	if override.Build.Timeout != 0 {
		result.Build.Timeout = override.Build.Timeout
	}
	if override.Build.PollAttempts != 0 {
		result.Build.PollAttempts = override.Build.PollAttempts
	}
	if override.Build.PollInterval != 0 {
		result.Build.PollInterval = override.Build.PollInterval
	}
	if override.Build.DefaultRuntime != "" {
		result.Build.DefaultRuntime = override.Build.DefaultRuntime
	}

	// Merge session
	if override.Session.ConfigurationTimeout != 0 {
		result.Session.ConfigurationTimeout = override.Session.ConfigurationTimeout
	}
	if override.Session.SettleDelay != 0 {
		result.Session.SettleDelay = override.Session.SettleDelay
	}

	// Merge extensions, override wins per top-level key
	if len(override.Extensions) > 0 {
		merged := make(map[string]interface{}, len(base.Extensions)+len(override.Extensions))
		for k, v := range base.Extensions {
			merged[k] = v
		}
		for k, v := range override.Extensions {
			merged[k] = v
		}
		result.Extensions = merged
	}

	return &result
}
