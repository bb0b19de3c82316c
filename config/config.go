// Package config loads the service configuration from the environment.
package config

import (
	"encoding/hex"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/civicgraph/ballotbox/votecrypt"
)

// Config holds the runtime configuration of the ballot service.
type Config struct {
	Host     string `env:"BALLOTBOX_HOST" envDefault:"0.0.0.0"`
	Port     int    `env:"BALLOTBOX_PORT" envDefault:"8080"`
	DataDir  string `env:"BALLOTBOX_DATADIR" envDefault:".ballotbox"`
	LogLevel string `env:"BALLOTBOX_LOG_LEVEL" envDefault:"info"`
	// BallotKey is the process-wide symmetric key that seals ballot
	// payloads, hex encoded (64 chars). Left empty, the daemon generates an
	// ephemeral one, which makes previously stored ballots undecodable
	// after a restart.
	BallotKey string `env:"BALLOTBOX_BALLOT_KEY"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Key decodes the configured ballot key. Returns nil when unset.
func (c *Config) Key() ([]byte, error) {
	if c.BallotKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.BallotKey)
	if err != nil {
		return nil, fmt.Errorf("decode ballot key: %w", err)
	}
	if len(key) != votecrypt.KeySize {
		return nil, fmt.Errorf("ballot key must be %d bytes, got %d", votecrypt.KeySize, len(key))
	}
	return key, nil
}
