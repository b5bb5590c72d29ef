// FILE: config.go
// Package main – Runtime configuration model and loader.
//
// This file defines:
//   • Config        – process knobs (ports, bridge, journal, logging)
//   • PolicyConfig  – the one parameter record the quoting policy and the
//                     order lifecycle controller run on
//   • named presets – "adaptive" and "steady", the two tunings the desk ran
//
// Typical flow (see main.go):
//   loadBotEnv(".env")
//   cfg, err := loadConfigFromEnv()
//
// Precedence for policy knobs: preset < POLICY_FILE (YAML) < per-knob env.
package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// VolBand maps a volatility ceiling to spread half-widths in ticks.
type VolBand struct {
	Max float64 `yaml:"max"`
	K1  float64 `yaml:"k1"`
	K2  float64 `yaml:"k2"`
}

// PolicyConfig is the full tuning of one quoting strategy.
type PolicyConfig struct {
	Name               string    `yaml:"name"`
	LotSize            int64     `yaml:"lot_size"`
	ImbalanceThreshold float64   `yaml:"imbalance_threshold"`
	WaitSeconds        float64   `yaml:"wait_seconds"`    // grace after the other side's terminal
	RequoteSeconds     float64   `yaml:"requote_seconds"` // min age of both quotes before a full requote
	InventoryScalar    float64   `yaml:"inventory_scalar"`
	FarSkew            float64   `yaml:"far_skew"`  // multiplier on K2 for the pressured side
	NearSkew           float64   `yaml:"near_skew"` // multiplier on K1 for the tightened side
	RollingWindow      int       `yaml:"rolling_window"`
	VolatilityBands    []VolBand `yaml:"volatility_bands"`
}

// Wait is WaitSeconds as a duration.
func (p PolicyConfig) Wait() time.Duration { return secondsToDuration(p.WaitSeconds) }

// Requote is RequoteSeconds as a duration.
func (p PolicyConfig) Requote() time.Duration { return secondsToDuration(p.RequoteSeconds) }

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// ---- Presets ----

const (
	PresetAdaptive = "adaptive"
	PresetSteady   = "steady"
)

// AdaptivePolicy widens with volatility and leans hard on imbalance.
func AdaptivePolicy() PolicyConfig {
	return PolicyConfig{
		Name:               PresetAdaptive,
		LotSize:            50,
		ImbalanceThreshold: 0.2,
		WaitSeconds:        0.25,
		RequoteSeconds:     0.25,
		InventoryScalar:    -0.05,
		FarSkew:            1,
		NearSkew:           0.5,
		RollingWindow:      4,
		VolatilityBands: []VolBand{
			{Max: 50, K1: 4, K2: 4},
			{Max: 100, K1: 6, K2: 6},
			{Max: math.Inf(1), K1: 8, K2: 8},
		},
	}
}

// SteadyPolicy quotes a fixed 4/8 tick ladder and requotes slowly.
func SteadyPolicy() PolicyConfig {
	return PolicyConfig{
		Name:               PresetSteady,
		LotSize:            30,
		ImbalanceThreshold: 0.5,
		WaitSeconds:        0.3,
		RequoteSeconds:     1,
		InventoryScalar:    -0.05,
		FarSkew:            0.5,
		NearSkew:           0,
		RollingWindow:      4,
		VolatilityBands: []VolBand{
			{Max: math.Inf(1), K1: 4, K2: 8},
		},
	}
}

// PresetPolicy returns a named preset.
func PresetPolicy(name string) (PolicyConfig, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetAdaptive:
		return AdaptivePolicy(), nil
	case PresetSteady:
		return SteadyPolicy(), nil
	default:
		return PolicyConfig{}, fmt.Errorf("unknown strategy preset %q", name)
	}
}

// LoadPolicyFile overlays a YAML file on base. Keys absent from the file keep
// the base value.
func LoadPolicyFile(path string, base PolicyConfig) (PolicyConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read policy file: %w", err)
	}
	out := base
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return base, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return out, nil
}

// Validate reports every problem with the policy at once.
func (p PolicyConfig) Validate() error {
	var errs []error
	if p.LotSize <= 0 {
		errs = append(errs, fmt.Errorf("lot_size must be > 0 (got %d)", p.LotSize))
	}
	if p.ImbalanceThreshold < 0 || p.ImbalanceThreshold >= 1 {
		errs = append(errs, fmt.Errorf("imbalance_threshold must be in [0,1) (got %.3f)", p.ImbalanceThreshold))
	}
	if p.WaitSeconds < 0 {
		errs = append(errs, fmt.Errorf("wait_seconds must be >= 0 (got %.3f)", p.WaitSeconds))
	}
	if p.RequoteSeconds < 0 {
		errs = append(errs, fmt.Errorf("requote_seconds must be >= 0 (got %.3f)", p.RequoteSeconds))
	}
	if p.InventoryScalar > 0 {
		errs = append(errs, fmt.Errorf("inventory_scalar must be <= 0 (got %.3f)", p.InventoryScalar))
	}
	if p.FarSkew < 0 || p.NearSkew < 0 {
		errs = append(errs, fmt.Errorf("skews must be >= 0 (far=%.3f near=%.3f)", p.FarSkew, p.NearSkew))
	}
	if p.RollingWindow < 1 {
		errs = append(errs, fmt.Errorf("rolling_window must be >= 1 (got %d)", p.RollingWindow))
	}
	if len(p.VolatilityBands) == 0 {
		errs = append(errs, errors.New("volatility_bands must not be empty"))
	}
	if !sort.SliceIsSorted(p.VolatilityBands, func(i, j int) bool {
		return p.VolatilityBands[i].Max < p.VolatilityBands[j].Max
	}) {
		errs = append(errs, errors.New("volatility_bands must be sorted by ascending max"))
	}
	for i, b := range p.VolatilityBands {
		if b.K1 < 0 || b.K2 < 0 {
			errs = append(errs, fmt.Errorf("volatility_bands[%d]: k1/k2 must be >= 0", i))
		}
	}
	return errors.Join(errs...)
}

// ---- Process config ----

// Config holds all runtime knobs for the agent process.
type Config struct {
	Policy PolicyConfig

	// Ops
	Port        int
	BridgeURL   string // ws://127.0.0.1:8787/ws ; empty means no live market data
	DryRun      bool   // route commands to the paper gateway
	JournalFile string // JSONL journal of events and commands; empty disables
	EventBuffer int    // inbound channel capacity

	// Bridge connection
	BridgeReadTimeout time.Duration
	BridgePing        time.Duration

	// Logging
	LogLevel string
	LogDev   bool
}

// loadConfigFromEnv reads the process env (already hydrated by loadBotEnv())
// and returns a validated Config.
func loadConfigFromEnv() (Config, error) {
	pol, err := PresetPolicy(getEnv("STRATEGY_PRESET", PresetAdaptive))
	if err != nil {
		return Config{}, err
	}
	if path := getEnv("POLICY_FILE", ""); path != "" {
		if pol, err = LoadPolicyFile(path, pol); err != nil {
			return Config{}, err
		}
	}

	// Per-knob overrides (unprefixed; universal)
	pol.LotSize = int64(getEnvInt("LOT_SIZE", int(pol.LotSize)))
	pol.ImbalanceThreshold = getEnvFloat("IMBAL_THRESHOLD", pol.ImbalanceThreshold)
	pol.WaitSeconds = getEnvFloat("WAIT_SECONDS", pol.WaitSeconds)
	pol.RequoteSeconds = getEnvFloat("REQUOTE_SECONDS", pol.RequoteSeconds)
	pol.InventoryScalar = getEnvFloat("INV_SCALAR", pol.InventoryScalar)
	pol.FarSkew = getEnvFloat("FAR_SKEW", pol.FarSkew)
	pol.NearSkew = getEnvFloat("NEAR_SKEW", pol.NearSkew)
	pol.RollingWindow = getEnvInt("ROLLING_WINDOW", pol.RollingWindow)

	if err := pol.Validate(); err != nil {
		return Config{}, fmt.Errorf("policy %q: %w", pol.Name, err)
	}

	cfg := Config{
		Policy: pol,

		Port:        getEnvInt("PORT", 8080),
		BridgeURL:   getEnv("BRIDGE_URL", "ws://127.0.0.1:8787/ws"),
		DryRun:      getEnvBool("DRY_RUN", true),
		JournalFile: getEnv("JOURNAL_FILE", ""),
		EventBuffer: getEnvInt("EVENT_BUFFER", 1024),

		BridgeReadTimeout: getEnvDuration("BRIDGE_READ_TIMEOUT_SEC", 60*time.Second),
		BridgePing:        getEnvDuration("BRIDGE_PING_SEC", 15*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogDev:   getEnvBool("LOG_DEV", false),
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 1
	}
	if cfg.BridgeReadTimeout <= 0 {
		cfg.BridgeReadTimeout = 60 * time.Second
	}
	return cfg, nil
}
