package config

import (
	"encoding/json"
)

type GuardConfig struct {
	// Note: The `json` tag does *not* use `default`, but `envconfig` will. This gives 3 levels of config:
	// default, process/instance, and per-request JSON.
	//
	// Pointer types let a request set "negative" values like `competitor_check_enabled: false`.

	ToxicLanguageEnabled   *bool     `json:"toxic_language_enabled,omitempty" envconfig:"toxic_language_enabled" default:"true"`
	ToxicLanguageThreshold *float64  `json:"toxic_language_threshold,omitempty" envconfig:"toxic_language_threshold" default:"0.5"`
	ToxicLanguageMethod    *string   `json:"toxic_language_method,omitempty" envconfig:"toxic_language_method" default:"sentence"`
	CompetitorCheckEnabled *bool     `json:"competitor_check_enabled,omitempty" envconfig:"competitor_check_enabled" default:"true"`
	Competitors            *[]string `json:"competitors,omitempty" envconfig:"competitors" default:"OpenAI,Anthropic,Google"`
}

func (c *GuardConfig) Clone() (*GuardConfig, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	clone := &GuardConfig{}
	err = json.Unmarshal(b, &clone)
	if err != nil {
		return nil, err
	}
	return clone, nil
}
