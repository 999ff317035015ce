package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			PollInterval:     5000,
			StalenessWindow:  15000,
			EventResubscribe: 5000,
		},
		HTTP: HTTPConfig{
			Timeout:        5000,
			InputCacheTTL:  300,
			InputCacheSize: 1024 * 1024,
		},
		Events: EventsConfig{
			Listen: ":0",
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8080",
		},
		Tail: TailConfig{
			Emoji:     true,
			Timestamp: true,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Engine
	if c.Engine.PollInterval == 0 {
		c.Engine.PollInterval = d.Engine.PollInterval
	}
	if c.Engine.StalenessWindow == 0 {
		c.Engine.StalenessWindow = 3 * c.Engine.PollInterval
	}
	if c.Engine.EventResubscribe == 0 {
		c.Engine.EventResubscribe = d.Engine.EventResubscribe
	}

	// Devices
	for i := range c.Devices {
		if c.Devices[i].ID == "" {
			c.Devices[i].ID = c.Devices[i].Host
		}
		if c.Devices[i].Port == 0 {
			if c.Devices[i].HTTPS {
				c.Devices[i].Port = 443
			} else {
				c.Devices[i].Port = 80
			}
		}
	}

	// HTTP
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = d.HTTP.Timeout
	}
	if c.HTTP.InputCacheTTL == 0 {
		c.HTTP.InputCacheTTL = d.HTTP.InputCacheTTL
	}
	if c.HTTP.InputCacheSize == 0 {
		c.HTTP.InputCacheSize = d.HTTP.InputCacheSize
	}

	// Events
	if c.Events.Listen == "" {
		c.Events.Listen = d.Events.Listen
	}

	// Server
	if c.Server.Listen == "" {
		c.Server.Listen = d.Server.Listen
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
