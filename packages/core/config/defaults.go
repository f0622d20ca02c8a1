package config

const (
	// DefaultHost is the host requests are addressed to when a URL has none
	DefaultHost = "localhost"
	// DefaultMaxRedirects caps automatic redirect following
	DefaultMaxRedirects = 10
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Host:            DefaultHost,
		FollowRedirects: BoolPtr(false),
		MaxRedirects:    DefaultMaxRedirects,
		LogLevel:        "info",
		Verbose:         BoolPtr(false),
		NoColor:         BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Host == defaults.Host &&
		len(c.Headers) == 0 &&
		c.RelativeTo == defaults.RelativeTo &&
		c.Charset == defaults.Charset &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.LogLevel == defaults.LogLevel &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor()
}
