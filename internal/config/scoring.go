package config

import (
	"errors"
	"log"
	"math"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// HealthWeights are the dimension weights of the overall health score.
type HealthWeights struct {
	Usage      float64 `mapstructure:"usage"`
	Support    float64 `mapstructure:"support"`
	Engagement float64 `mapstructure:"engagement"`
}

// ScoringConfig carries the recognized tunables of the scoring engine.
type ScoringConfig struct {
	CurrentWindowDays   int `mapstructure:"currentWindowDays"`
	ActivityWindowWeeks int `mapstructure:"activityWindowWeeks"`
	RollingWindowWeeks  int `mapstructure:"rollingWindowWeeks"`
	RollingSeriesWeeks  int `mapstructure:"rollingSeriesWeeks"`
	TrendWindowWeeks    int `mapstructure:"trendWindowWeeks"`

	HealthWeights HealthWeights `mapstructure:"healthWeights"`

	CustomerLimit int `mapstructure:"customerLimit"`
	CohortLimit   int `mapstructure:"cohortLimit"`
	MinCohortSize int `mapstructure:"minCohortSize"`
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		CurrentWindowDays:   30,
		ActivityWindowWeeks: 8,
		RollingWindowWeeks:  4,
		RollingSeriesWeeks:  12,
		TrendWindowWeeks:    4,
		HealthWeights: HealthWeights{
			Usage:      0.40,
			Support:    0.30,
			Engagement: 0.30,
		},
		CustomerLimit: 100,
		CohortLimit:   24,
		MinCohortSize: 5,
	}
}

// ScoringConfigHolder serves the current scoring config and hot-reloads it
// when the backing file changes.
type ScoringConfigHolder struct {
	current atomic.Value // holds ScoringConfig
}

func NewScoringConfigHolder() (*ScoringConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("scoring")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/pulse/config") // Volume-mounted config
	v.AddConfigPath("/etc/pulse")            // System config
	v.AddConfigPath(".")                     // Current directory (dev mode)

	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultScoringConfig()
	v.SetDefault("scoring", defaults)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := defaults
	if err := v.UnmarshalKey("scoring", &cfg); err != nil {
		return nil, err
	}
	if err := validateScoringConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ScoringConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultScoringConfig()
		if err := v.UnmarshalKey("scoring", &updated); err != nil {
			log.Printf("[scoring-config] reload failed: %v", err)
			return
		}
		if err := validateScoringConfig(updated); err != nil {
			log.Printf("[scoring-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[scoring-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticScoringConfigHolder returns a holder pinned to cfg. Used in tests.
func NewStaticScoringConfigHolder(cfg ScoringConfig) *ScoringConfigHolder {
	holder := &ScoringConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *ScoringConfigHolder) Get() ScoringConfig {
	return h.current.Load().(ScoringConfig)
}

func validateScoringConfig(cfg ScoringConfig) error {
	if cfg.CurrentWindowDays <= 0 {
		return errors.New("scoring.currentWindowDays must be positive")
	}
	if cfg.ActivityWindowWeeks <= 0 || cfg.RollingWindowWeeks <= 0 || cfg.RollingSeriesWeeks <= 0 || cfg.TrendWindowWeeks <= 0 {
		return errors.New("scoring window sizes must be positive")
	}
	w := cfg.HealthWeights
	if w.Usage < 0 || w.Support < 0 || w.Engagement < 0 {
		return errors.New("scoring.healthWeights must be non-negative")
	}
	if math.Abs(w.Usage+w.Support+w.Engagement-1.0) > 1e-9 {
		return errors.New("scoring.healthWeights must sum to 1.0")
	}
	if cfg.CustomerLimit <= 0 || cfg.CohortLimit <= 0 {
		return errors.New("scoring output limits must be positive")
	}
	if cfg.MinCohortSize <= 0 {
		return errors.New("scoring.minCohortSize must be positive")
	}
	return nil
}
