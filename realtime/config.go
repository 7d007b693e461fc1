package realtime

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultTickRate is 60 ticks per second.
	DefaultTickRate = 16667 * time.Microsecond
	// DefaultMaxRequestsPerTick bounds the request batch.
	DefaultMaxRequestsPerTick = 1000
)

// Config configures a Runner.
type Config struct {
	TickRate           time.Duration `yaml:"tick_rate"`             // Fixed tick rate (e.g., 16.67ms for 60 FPS)
	MaxRequestsPerTick int           `yaml:"max_requests_per_tick"` // Request batch capacity
}

func (c Config) withDefaults() Config {
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	if c.MaxRequestsPerTick <= 0 {
		c.MaxRequestsPerTick = DefaultMaxRequestsPerTick
	}
	return c
}

// ParseConfig decodes YAML such as "tick_rate: 10ms". Missing fields take
// their defaults.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return c.withDefaults(), nil
}

// LoadConfig reads and decodes a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseConfig(data)
}
