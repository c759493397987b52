package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RiskConfig carries the business thresholds applied by the pipeline.
type RiskConfig struct {
	Thresholds RAGThresholds    `mapstructure:"thresholds"`
	Validation ValidationConfig `mapstructure:"validation"`
}

// RAGThresholds are the month-over-month growth boundaries, in percent.
// A change >= Red classifies RED, >= Amber classifies AMBER, anything
// below (including negative growth) is GREEN.
type RAGThresholds struct {
	Red   float64 `mapstructure:"red"`
	Amber float64 `mapstructure:"amber"`
}

// ValidationConfig tunes the validation rule chain. StaleOrderDays = 0
// keeps the STALE_ORDER_DATE rule disabled, which is the documented
// behavior of the upstream rule set.
type ValidationConfig struct {
	StaleOrderDays int `mapstructure:"staleOrderDays"`
}

func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		Thresholds: RAGThresholds{
			Red:   50,
			Amber: 30,
		},
		Validation: ValidationConfig{
			StaleOrderDays: 0,
		},
	}
}

// RiskConfigHolder exposes the current risk config and hot-reloads it
// when the backing file changes.
type RiskConfigHolder struct {
	current atomic.Value // holds RiskConfig
}

func NewRiskConfigHolder() (*RiskConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("risk")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/orderpulse/config")
	v.AddConfigPath("/etc/orderpulse")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ORDERPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultRiskConfig()
		v.SetDefault("risk.thresholds", defaults.Thresholds)
		v.SetDefault("risk.validation", defaults.Validation)
	}

	var cfg RiskConfig
	if err := v.UnmarshalKey("risk", &cfg); err != nil {
		return nil, err
	}
	cfg = withRiskDefaults(cfg)
	if err := validateRiskConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RiskConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RiskConfig
		if err := v.UnmarshalKey("risk", &updated); err != nil {
			log.Printf("[risk-config] reload failed: %v", err)
			return
		}
		updated = withRiskDefaults(updated)
		if err := validateRiskConfig(updated); err != nil {
			log.Printf("[risk-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[risk-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *RiskConfigHolder) Get() RiskConfig {
	return h.current.Load().(RiskConfig)
}

// NewStaticRiskConfigHolder returns a holder pinned to cfg, for tests.
func NewStaticRiskConfigHolder(cfg RiskConfig) *RiskConfigHolder {
	holder := &RiskConfigHolder{}
	holder.current.Store(withRiskDefaults(cfg))
	return holder
}

func withRiskDefaults(cfg RiskConfig) RiskConfig {
	defaults := DefaultRiskConfig()
	if cfg.Thresholds.Red == 0 {
		cfg.Thresholds.Red = defaults.Thresholds.Red
	}
	if cfg.Thresholds.Amber == 0 {
		cfg.Thresholds.Amber = defaults.Thresholds.Amber
	}
	return cfg
}

func validateRiskConfig(cfg RiskConfig) error {
	if cfg.Thresholds.Amber <= 0 {
		return errors.New("risk.thresholds.amber must be positive")
	}
	if cfg.Thresholds.Red <= cfg.Thresholds.Amber {
		return errors.New("risk.thresholds.red must be greater than amber")
	}
	if cfg.Validation.StaleOrderDays < 0 {
		return errors.New("risk.validation.staleOrderDays cannot be negative")
	}
	return nil
}
