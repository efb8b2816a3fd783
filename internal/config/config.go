// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all relay and simulation settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP/WebSocket server settings.
type ServerConfig struct {
	Host         string        // Bind address
	Port         int           // Listen port
	PingInterval time.Duration // WebSocket keepalive ping interval
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8787,
		PingInterval: 20 * time.Second,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
// Environment variables take precedence over defaults.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if h := os.Getenv("HOST"); h != "" {
		cfg.Host = h
	}
	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if ms := getEnvInt("PING_INTERVAL_MS", 0); ms > 0 {
		cfg.PingInterval = time.Duration(ms) * time.Millisecond
	}

	return cfg
}

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds the per-room simulation settings.
// Width/Height define the authoritative canvas; clients rescale snapshots
// using the sw/sh fields of the world document.
type SimConfig struct {
	Width        float64       // Authoritative canvas width in pixels
	Height       float64       // Authoritative canvas height in pixels
	TickInterval time.Duration // Scheduler cadence for every active room
	MinStep      time.Duration // Lower clamp on per-tick elapsed time
	MaxStep      time.Duration // Upper clamp on per-tick elapsed time
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		Width:        1280,
		Height:       720,
		TickInterval: 33 * time.Millisecond,
		MinStep:      8 * time.Millisecond,
		MaxStep:      50 * time.Millisecond,
	}
}

// SimFromEnv returns simulation configuration with environment variable overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if ms := getEnvInt("TICK_MS", 0); ms > 0 {
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits controls the caps that bound per-room bandwidth and memory.
// They exist to contain a malicious or buggy client, not to tune gameplay.
type ResourceLimits struct {
	MaxZombies      int // World snapshot zombie cap
	MaxBullets      int // World snapshot bullet cap
	MaxBursts       int // World snapshot burst cap
	MaxShotsPerTick int // Queued client shots fired in a single tick
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxZombies:      24,
		MaxBullets:      42,
		MaxBursts:       26,
		MaxShotsPerTick: 4,
	}
}

// LimitsFromEnv returns resource limits with environment variable overrides.
func LimitsFromEnv() ResourceLimits {
	cfg := DefaultLimits()

	if n := getEnvInt("MAX_ZOMBIES", 0); n > 0 {
		cfg.MaxZombies = n
	}
	if n := getEnvInt("MAX_BULLETS", 0); n > 0 {
		cfg.MaxBullets = n
	}
	if n := getEnvInt("MAX_BURSTS", 0); n > 0 {
		cfg.MaxBursts = n
	}
	if n := getEnvInt("MAX_SHOTS_PER_TICK", 0); n > 0 {
		cfg.MaxShotsPerTick = n
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server ServerConfig
	Sim    SimConfig
	Limits ResourceLimits
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server: ServerFromEnv(),
		Sim:    SimFromEnv(),
		Limits: LimitsFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
