package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Engine  EngineConfig   `toml:"engine"`
	Devices []DeviceConfig `toml:"devices"`
	HTTP    HTTPConfig     `toml:"http"`
	Events  EventsConfig   `toml:"events"`
	Server  ServerConfig   `toml:"server"`
	Tail    TailConfig     `toml:"tail"`
	TUI     TUIConfig      `toml:"tui"`
	Log     LogConfig      `toml:"log"`
}

// EngineConfig holds state reconciliation settings. Durations are in milliseconds.
type EngineConfig struct {
	PollInterval     int `toml:"poll_interval"`
	StalenessWindow  int `toml:"staleness_window"`
	EventResubscribe int `toml:"event_resubscribe"`
}

// PollEvery returns the poll interval as a duration.
func (c EngineConfig) PollEvery() time.Duration {
	return time.Duration(c.PollInterval) * time.Millisecond
}

// Window returns the staleness window as a duration.
func (c EngineConfig) Window() time.Duration {
	return time.Duration(c.StalenessWindow) * time.Millisecond
}

// ResubscribeDelay returns the pause before an event subscription is retried.
func (c EngineConfig) ResubscribeDelay() time.Duration {
	return time.Duration(c.EventResubscribe) * time.Millisecond
}

// DeviceConfig describes one managed speaker.
type DeviceConfig struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	HTTPS    bool   `toml:"https"`
	Insecure bool   `toml:"insecure"`
	// Events enables UPnP event subscriptions in addition to polling.
	Events bool `toml:"events"`
}

// DisplayName returns the configured name, falling back to the ID.
func (d DeviceConfig) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// HTTPConfig holds device HTTP client settings.
type HTTPConfig struct {
	Timeout        int `toml:"timeout"`
	InputCacheTTL  int `toml:"input_cache_ttl"`
	InputCacheSize int `toml:"input_cache_size"`
}

// EventsConfig holds settings for the UPnP event callback server.
type EventsConfig struct {
	CallbackHost string `toml:"callback_host"`
	Listen       string `toml:"listen"`
}

// ServerConfig holds the REST and websocket server settings.
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// TailConfig holds settings for tail/follow mode.
type TailConfig struct {
	Emoji     bool   `toml:"emoji"`
	Timestamp bool   `toml:"timestamp"`
	Format    string `toml:"format"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"`
	RefreshInterval int    `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}
