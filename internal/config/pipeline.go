// Package config loads the pipeline's locked-threshold configuration
// bundle (spec §6.5) from YAML, with viper binding environment overrides
// for deployment knobs the YAML file does not carry (database DSN, log
// level).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// DSAScenarioConfig mirrors models.DSAScenario for YAML round-tripping
// without internal/config importing internal/models.
type DSAScenarioConfig struct {
	Name  string  `yaml:"name"`
	RAdj  float64 `yaml:"r_adj"`
	GAdj  float64 `yaml:"g_adj"`
	PBAdj float64 `yaml:"pb_adj"`
}

// DominanceWeightsConfig mirrors models.DominanceWeights.
type DominanceWeightsConfig struct {
	DebtLevel     float64 `yaml:"debt_level"`
	RGSpread      float64 `yaml:"r_g_spread"`
	PBTrend       float64 `yaml:"pb_trend"`
	CBCredibility float64 `yaml:"cb_credibility"`
}

// CompositeWeights carries the FX and fiscal composite tables; other
// agents' weights are single-model or equal-weight by construction and are
// not configurable.
type CompositeWeights struct {
	FX     map[string]float64 `yaml:"fx"`
	Fiscal map[string]float64 `yaml:"fiscal"`
}

// PipelineConfig is the YAML-backed configuration bundle spec §6.5 names.
type PipelineConfig struct {
	ConvictionMin                float64                 `yaml:"conviction_min"`
	FlipThreshold                float64                 `yaml:"flip_threshold"`
	MaxProposalsPerDay           int                     `yaml:"max_proposals_per_day"`
	ConflictDampening            float64                 `yaml:"conflict_dampening"`
	ClassifyStrengthThresholds   []float64               `yaml:"classify_strength_thresholds"`
	AgentExecutionOrder          []string                `yaml:"agent_execution_order"`
	AgentWallClockBudgetSeconds  int                     `yaml:"agent_wall_clock_budget_seconds"`
	ConvictionExpiryBusinessDays int                     `yaml:"conviction_expiry_business_days"`
	DSAScenarios                 []DSAScenarioConfig     `yaml:"dsa_scenarios"`
	CompositeWeights             CompositeWeights        `yaml:"composite_weights"`
	DominanceWeights             DominanceWeightsConfig  `yaml:"dominance_weights"`

	// Deployment knobs, bound from the environment via viper rather than
	// checked into the YAML file.
	DatabaseDSN string `yaml:"-"`
	LogLevel    string `yaml:"-"`
}

// GetDefaultPipelineConfig returns the locked defaults from spec §6.5.
func GetDefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		ConvictionMin:               0.55,
		FlipThreshold:               0.60,
		MaxProposalsPerDay:          5,
		ConflictDampening:           0.70,
		ClassifyStrengthThresholds:  []float64{0.35, 0.60, 0.85},
		AgentExecutionOrder:          []string{"inflation", "monetary", "fiscal", "fx", "cross_asset"},
		AgentWallClockBudgetSeconds:  60,
		ConvictionExpiryBusinessDays: 2,
		DSAScenarios: []DSAScenarioConfig{
			{Name: "baseline", RAdj: 0, GAdj: 0, PBAdj: 0},
			{Name: "stress", RAdj: 0.02, GAdj: -0.01, PBAdj: -0.005},
			{Name: "adjustment", RAdj: 0, GAdj: 0, PBAdj: 0.015},
			{Name: "tailwind", RAdj: -0.01, GAdj: 0.01, PBAdj: 0},
		},
		CompositeWeights: CompositeWeights{
			FX: map[string]float64{
				"fx_beer":  0.40,
				"fx_carry": 0.30,
				"fx_flow":  0.20,
				"fx_cip":   0.10,
			},
			Fiscal: map[string]float64{
				"fiscal_dsa":       1.0 / 3,
				"fiscal_impulse":   1.0 / 3,
				"fiscal_dominance": 1.0 / 3,
			},
		},
		DominanceWeights: DominanceWeightsConfig{DebtLevel: 0.35, RGSpread: 0.30, PBTrend: 0.20, CBCredibility: 0.15},
		LogLevel:         "info",
	}
}

// LoadPipelineConfig reads configPath as YAML, falling back to
// GetDefaultPipelineConfig for any field the file omits, then overlays
// environment-bound deployment knobs via viper.
func LoadPipelineConfig(configPath string) (*PipelineConfig, error) {
	cfg := GetDefaultPipelineConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read pipeline config %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse pipeline config %s: %w", configPath, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("MACROSIGNAL")
	v.AutomaticEnv()
	v.SetDefault("database_dsn", "")
	v.SetDefault("log_level", cfg.LogLevel)

	cfg.DatabaseDSN = v.GetString("database_dsn")
	if level := v.GetString("log_level"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}

// SavePipelineConfig writes cfg as YAML to configPath, creating parent
// directories as needed.
func SavePipelineConfig(cfg *PipelineConfig, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal pipeline config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write pipeline config %s: %w", configPath, err)
	}
	return nil
}

// ValidatePipelineConfig checks the invariants spec §7 treats as fatal:
// composite weights summing to 1.0 and locked thresholds within [0,1].
func ValidatePipelineConfig(cfg *PipelineConfig) []string {
	var violations []string

	if cfg.ConvictionMin < 0 || cfg.ConvictionMin > 1 {
		violations = append(violations, fmt.Sprintf("conviction_min %.4f outside [0,1]", cfg.ConvictionMin))
	}
	if cfg.FlipThreshold < 0 || cfg.FlipThreshold > 1 {
		violations = append(violations, fmt.Sprintf("flip_threshold %.4f outside [0,1]", cfg.FlipThreshold))
	}
	if cfg.ConflictDampening < 0 || cfg.ConflictDampening > 1 {
		violations = append(violations, fmt.Sprintf("conflict_dampening %.4f outside [0,1]", cfg.ConflictDampening))
	}
	if cfg.MaxProposalsPerDay <= 0 {
		violations = append(violations, fmt.Sprintf("max_proposals_per_day %d must be positive", cfg.MaxProposalsPerDay))
	}
	if cfg.ConvictionExpiryBusinessDays <= 0 {
		violations = append(violations, fmt.Sprintf("conviction_expiry_business_days %d must be positive", cfg.ConvictionExpiryBusinessDays))
	}
	if len(cfg.ClassifyStrengthThresholds) != 3 {
		violations = append(violations, fmt.Sprintf("classify_strength_thresholds must have exactly 3 entries, got %d", len(cfg.ClassifyStrengthThresholds)))
	}

	violations = append(violations, validateWeightSum("composite_weights.fx", cfg.CompositeWeights.FX)...)
	violations = append(violations, validateWeightSum("composite_weights.fiscal", cfg.CompositeWeights.Fiscal)...)

	dominanceSum := cfg.DominanceWeights.DebtLevel + cfg.DominanceWeights.RGSpread + cfg.DominanceWeights.PBTrend + cfg.DominanceWeights.CBCredibility
	if dominanceSum < 0.999 || dominanceSum > 1.001 {
		violations = append(violations, fmt.Sprintf("dominance_weights sum to %.6f, want 1.0", dominanceSum))
	}

	return violations
}

func validateWeightSum(label string, weights map[string]float64) []string {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total < 0.999 || total > 1.001 {
		return []string{fmt.Sprintf("%s weights sum to %.6f, want 1.0", label, total)}
	}
	return nil
}
