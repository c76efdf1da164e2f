// Package config loads the swap core's runtime configuration from
// environment variables (with an optional .env file), mirroring
// cmd/server/main.go's flag+env-default pattern.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"solana-swap-agent/internal/quotestream"
	"solana-swap-agent/internal/submitter"
)

// Config holds every externally-supplied setting the swap core needs.
type Config struct {
	WireEndpoint  string
	WireAuthToken string
	ChainRPCURL   string

	FirstBatchDeadline time.Duration
	SubmitPollInterval time.Duration
	SubmitDeadline     time.Duration

	MetricsAddr string
}

// Load reads configuration from the environment, loading a .env file
// first (without overriding already-set variables), and applies
// defaults for anything optional.
func Load() (Config, error) {
	loadEnvFile()

	cfg := Config{
		WireEndpoint:       os.Getenv("WIRE_ENDPOINT"),
		WireAuthToken:      os.Getenv("WIRE_AUTH_TOKEN"),
		ChainRPCURL:        os.Getenv("CHAIN_RPC_URL"),
		FirstBatchDeadline: quotestream.DefaultFirstBatchDeadline,
		SubmitPollInterval: submitter.DefaultPollInterval,
		SubmitDeadline:     submitter.DefaultConfirmDeadline,
		MetricsAddr:        envOr("METRICS_ADDR", ":9090"),
	}

	if v := os.Getenv("FIRST_BATCH_DEADLINE_MS"); v != "" {
		d, err := parseMillis(v)
		if err != nil {
			return Config{}, fmt.Errorf("FIRST_BATCH_DEADLINE_MS: %w", err)
		}
		cfg.FirstBatchDeadline = d
	}
	if v := os.Getenv("SUBMIT_POLL_INTERVAL_MS"); v != "" {
		d, err := parseMillis(v)
		if err != nil {
			return Config{}, fmt.Errorf("SUBMIT_POLL_INTERVAL_MS: %w", err)
		}
		cfg.SubmitPollInterval = d
	}
	if v := os.Getenv("SUBMIT_DEADLINE_MS"); v != "" {
		d, err := parseMillis(v)
		if err != nil {
			return Config{}, fmt.Errorf("SUBMIT_DEADLINE_MS: %w", err)
		}
		cfg.SubmitDeadline = d
	}

	if cfg.WireEndpoint == "" {
		return Config{}, fmt.Errorf("WIRE_ENDPOINT is required")
	}
	if cfg.WireAuthToken == "" {
		return Config{}, fmt.Errorf("WIRE_AUTH_TOKEN is required")
	}
	if cfg.ChainRPCURL == "" {
		return Config{}, fmt.Errorf("CHAIN_RPC_URL is required")
	}

	return cfg, nil
}

func parseMillis(v string) (time.Duration, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Millisecond, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
