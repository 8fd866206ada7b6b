package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cashumints/directory/pkg/fetcher"
	"github.com/cashumints/directory/pkg/profiles"
	"github.com/cashumints/directory/pkg/utils/logger"
	"github.com/nbd-wtf/go-nostr"
)

// The configuration parameters of the engine and its collaborators.
type Config struct {
	Log           *logger.Aggregate
	LogWriter     io.Writer
	Relays        []string
	ProfileRelays []string
	FallbackRelay string
	RedisAddress  string // empty disables the Redis profile backing
	FetchTimeout  time.Duration
}

// NewConfig() returns a config with default parameters.
func NewConfig() *Config {
	return &Config{
		LogWriter:     os.Stdout,
		Relays:        fetcher.DefaultRelays,
		ProfileRelays: profiles.DefaultRelays,
		FallbackRelay: fetcher.FallbackRelay,
		FetchTimeout:  fetcher.FetchTimeout,
	}
}

func (c *Config) Print() {
	fmt.Println("Config:")
	fmt.Printf("  LogWriter: %T\n", c.LogWriter)
	fmt.Printf("  Relays: %v\n", c.Relays)
	fmt.Printf("  ProfileRelays: %v\n", c.ProfileRelays)
	fmt.Printf("  FallbackRelay: %s\n", c.FallbackRelay)
	fmt.Printf("  RedisAddress: %s\n", c.RedisAddress)
	fmt.Printf("  FetchTimeout: %v\n", c.FetchTimeout)
}

// LoadConfig() reads the variables from the environment and parses them
// into a config struct.
func LoadConfig() (*Config, error) {
	var config = NewConfig()
	var err error

	for _, item := range os.Environ() {
		keyVal := strings.SplitN(item, "=", 2)
		key, val := keyVal[0], keyVal[1]

		switch key {
		case "LOGS":
			// LogWriter gets updated if a .log file is specified; otherwise it remains os.Stdout
			if strings.HasSuffix(val, ".log") {
				config.LogWriter, err = os.OpenFile(val, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
				if err != nil {
					return nil, fmt.Errorf("error opening file \"%v\": %v", val, err)
				}
			}

		case "RELAYS":
			config.Relays, err = parseRelays(val)
			if err != nil {
				return nil, err
			}

		case "PROFILE_RELAYS":
			config.ProfileRelays, err = parseRelays(val)
			if err != nil {
				return nil, err
			}

		case "FALLBACK_RELAY":
			if !nostr.IsValidRelayURL(val) {
				return nil, fmt.Errorf("fallback relay \"%s\" is not a valid url", val)
			}
			config.FallbackRelay = val

		case "REDIS_ADDRESS":
			config.RedisAddress = val

		case "FETCH_TIMEOUT":
			seconds, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}
			config.FetchTimeout = time.Duration(seconds) * time.Second
		}
	}

	config.Log = logger.New(config.LogWriter)
	return config, nil
}

// parseRelays splits and validates a comma-separated relay list.
func parseRelays(val string) ([]string, error) {
	relays := strings.Split(val, ",")
	if len(relays) == 0 {
		return nil, fmt.Errorf("list of relays is empty")
	}

	for _, rel := range relays {
		if !nostr.IsValidRelayURL(rel) {
			return nil, fmt.Errorf("relay \"%s\" is not a valid url", rel)
		}
	}

	return relays, nil
}
