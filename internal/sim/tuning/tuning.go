// Package tuning holds the numeric knobs of the resolution engine. Values
// load from tuning.yaml over defaults, so a scenario only overrides what it
// cares about.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	// Fundraising: seeded success roll, then a haircut on the ask.
	FundraiseSuccessProb float64 `yaml:"fundraise_success_prob"`
	FundraiseHaircut     float64 `yaml:"fundraise_haircut"`

	// Capital conversion rates (budget->capital and back).
	InvestConversion float64 `yaml:"invest_conversion"`
	DivestConversion float64 `yaml:"divest_conversion"`

	// Espionage success scales with committed budget up to a ceiling.
	EspionageBaseProb    float64 `yaml:"espionage_base_prob"`
	EspionageBudgetScale float64 `yaml:"espionage_budget_scale"`
	EspionageMaxProb     float64 `yaml:"espionage_max_prob"`

	// Talent poaching.
	PoachBaseProb     float64 `yaml:"poach_base_prob"`
	PoachBudgetScale  float64 `yaml:"poach_budget_scale"`
	PoachMaxProb      float64 `yaml:"poach_max_prob"`
	PoachTransferFrac float64 `yaml:"poach_transfer_frac"`
	PoachTransferMax  float64 `yaml:"poach_transfer_max"`

	LobbyBackfireProb float64 `yaml:"lobby_backfire_prob"`

	// Per-round probabilities for information leaks and external events.
	LeakProb        float64 `yaml:"leak_prob"`
	RandomEventProb float64 `yaml:"random_event_prob"`

	// Research progress per round: min(base + human/scale, max), plus a
	// seeded non-negative jitter fraction of the rate.
	ResearchBaseRate   float64 `yaml:"research_base_rate"`
	ResearchHumanScale float64 `yaml:"research_human_scale"`
	ResearchMaxRate    float64 `yaml:"research_max_rate"`
	ResearchJitter     float64 `yaml:"research_jitter"`

	// Cancelled projects refund this fraction of committed assets.
	CancelRefundFrac float64 `yaml:"cancel_refund_frac"`
}

func Defaults() Tuning {
	return Tuning{
		FundraiseSuccessProb: 0.7,
		FundraiseHaircut:     0.8,
		InvestConversion:     0.9,
		DivestConversion:     0.7,
		EspionageBaseProb:    0.3,
		EspionageBudgetScale: 1_000_000,
		EspionageMaxProb:     0.8,
		PoachBaseProb:        0.2,
		PoachBudgetScale:     500_000,
		PoachMaxProb:         0.6,
		PoachTransferFrac:    0.1,
		PoachTransferMax:     5.0,
		LobbyBackfireProb:    0.1,
		LeakProb:             0.05,
		RandomEventProb:      0.1,
		ResearchBaseRate:     0.1,
		ResearchHumanScale:   100,
		ResearchMaxRate:      0.3,
		ResearchJitter:       0.1,
		CancelRefundFrac:     0.5,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	probs := map[string]float64{
		"fundraise_success_prob": t.FundraiseSuccessProb,
		"espionage_base_prob":    t.EspionageBaseProb,
		"espionage_max_prob":     t.EspionageMaxProb,
		"poach_base_prob":        t.PoachBaseProb,
		"poach_max_prob":         t.PoachMaxProb,
		"lobby_backfire_prob":    t.LobbyBackfireProb,
		"leak_prob":              t.LeakProb,
		"random_event_prob":      t.RandomEventProb,
	}
	for name, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, p)
		}
	}
	fracs := map[string]float64{
		"fundraise_haircut":   t.FundraiseHaircut,
		"invest_conversion":   t.InvestConversion,
		"divest_conversion":   t.DivestConversion,
		"poach_transfer_frac": t.PoachTransferFrac,
		"cancel_refund_frac":  t.CancelRefundFrac,
	}
	for name, f := range fracs {
		if f < 0 || f > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, f)
		}
	}
	if t.ResearchBaseRate < 0 || t.ResearchMaxRate <= 0 || t.ResearchHumanScale <= 0 {
		return fmt.Errorf("research rates must be positive")
	}
	if t.ResearchJitter < 0 || t.ResearchJitter > 1 {
		return fmt.Errorf("research_jitter must be in [0,1]")
	}
	return nil
}
