package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the console configuration. Service base URLs are
// environment-provided deployment facts, never business logic.
type Config struct {
	Services struct {
		CoreURL      string `koanf:"core_url"`
		MessagingURL string `koanf:"messaging_url"`
	} `koanf:"services"`

	// Poll intervals in seconds, one per remote resource. Jobs poll
	// fastest since posting runs are short-lived; listings and stats
	// change slowly.
	Poll struct {
		Listings      int `koanf:"listings"`
		Jobs          int `koanf:"jobs"`
		Conversations int `koanf:"conversations"`
		Transactions  int `koanf:"transactions"`
		Stats         int `koanf:"stats"`
	} `koanf:"poll"`

	Dashboard struct {
		Port int `koanf:"port"`
	} `koanf:"dashboard"`

	Client struct {
		RequestsPerSecond float64 `koanf:"requests_per_second"`
	} `koanf:"client"`
}

// LoadConfig loads the configuration from a file, layered under
// environment variables with the CROSSPOST_ prefix.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"services.core_url":          "http://localhost:8000",
		"services.messaging_url":     "http://localhost:8001",
		"poll.listings":              10,
		"poll.jobs":                  5,
		"poll.conversations":         10,
		"poll.transactions":          5,
		"poll.stats":                 15,
		"dashboard.port":             3080,
		"client.requests_per_second": 10.0,
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./crosspost.toml", "$HOME/.crosspost.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix CROSSPOST_
	k.Load(env.Provider("CROSSPOST_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "CROSSPOST_")), "_", ".", 1)
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# Crosspost console configuration

[services]
core_url = "http://localhost:8000"
messaging_url = "http://localhost:8001"

# Poll intervals in seconds, per resource.
[poll]
listings = 10
jobs = 5
conversations = 10
transactions = 5
stats = 15

[dashboard]
port = 3080

[client]
requests_per_second = 10.0
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Services.CoreURL == "" {
		return fmt.Errorf("core service URL is required")
	}
	if config.Services.MessagingURL == "" {
		return fmt.Errorf("messaging service URL is required")
	}
	for name, secs := range map[string]int{
		"poll.listings":      config.Poll.Listings,
		"poll.jobs":          config.Poll.Jobs,
		"poll.conversations": config.Poll.Conversations,
		"poll.transactions":  config.Poll.Transactions,
		"poll.stats":         config.Poll.Stats,
	} {
		if secs <= 0 {
			return fmt.Errorf("%s must be a positive number of seconds", name)
		}
	}
	if config.Dashboard.Port <= 0 || config.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard port %d is out of range", config.Dashboard.Port)
	}
	if config.Client.RequestsPerSecond <= 0 {
		return fmt.Errorf("client.requests_per_second must be positive")
	}
	return nil
}

// Interval converts a per-resource poll setting to a duration.
func Interval(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
