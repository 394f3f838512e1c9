// Package config loads the videoproc configuration from TOML, applying
// defaults for anything the file leaves out.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Temporal holds the connection settings for the Temporal cluster.
type Temporal struct {
	HostPort  string `toml:"host_port"`
	Namespace string `toml:"namespace"`
}

// Processing holds the simulated media-processing knobs.
type Processing struct {
	Bitrates      []int  `toml:"bitrates"`
	IntroLocation string `toml:"intro_location"`
}

// Email holds the approval-email settings. PublicHost is the externally
// reachable base URL the Approve/Reject links in the email point at.
type Email struct {
	ApproverEmail string `toml:"approver_email"`
	SenderEmail   string `toml:"sender_email"`
	PublicHost    string `toml:"public_host"`
}

// API holds the HTTP trigger server settings.
type API struct {
	Bind         string `toml:"bind"`
	DatabasePath string `toml:"database_path"`
}

// Config is the root configuration document.
type Config struct {
	Temporal   Temporal   `toml:"temporal"`
	Processing Processing `toml:"processing"`
	Email      Email      `toml:"email"`
	API        API        `toml:"api"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Temporal: Temporal{
			HostPort:  "localhost:7233",
			Namespace: "default",
		},
		Processing: Processing{
			Bitrates:      []int{1080, 720},
			IntroLocation: "intro.mp4",
		},
		Email: Email{
			ApproverEmail: "approver@example.com",
			SenderEmail:   "videoproc@example.com",
			PublicHost:    "http://localhost:8686",
		},
		API: API{
			Bind:         "127.0.0.1:8686",
			DatabasePath: "approvals.db",
		},
	}
}

// Load reads the configuration at path, layered over the defaults. A missing
// file is not an error when path is empty; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the workflows cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Temporal.HostPort) == "" {
		return errors.New("temporal.host_port is required")
	}
	if strings.TrimSpace(c.Temporal.Namespace) == "" {
		return errors.New("temporal.namespace is required")
	}
	if len(c.Processing.Bitrates) == 0 {
		return errors.New("processing.bitrates must list at least one bitrate")
	}
	for _, b := range c.Processing.Bitrates {
		if b <= 0 {
			return fmt.Errorf("processing.bitrates contains invalid bitrate %d", b)
		}
	}
	if strings.TrimSpace(c.API.Bind) == "" {
		return errors.New("api.bind is required")
	}
	if strings.TrimSpace(c.API.DatabasePath) == "" {
		return errors.New("api.database_path is required")
	}
	return nil
}
