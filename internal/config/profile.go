package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Profile is a reusable set of analysis parameters for the CLI. Any format
// viper understands (yaml, json, toml) can be used.
type Profile struct {
	DataFile      string   `mapstructure:"data_file"`
	Countries     []string `mapstructure:"countries"`
	Months        int      `mapstructure:"months" validate:"omitempty,min=1,max=24"`
	TotalBudget   float64  `mapstructure:"total_budget" validate:"omitempty,gt=0"`
	MinPerCountry float64  `mapstructure:"min_per_country" validate:"gte=0"`
	MaxPerCountry float64  `mapstructure:"max_per_country" validate:"gte=0"`
	ExpectedROI   float64  `mapstructure:"expected_roi" validate:"gte=0"`
	Selection     string   `mapstructure:"selection" validate:"omitempty,oneof=top_revenue most_orders top_avg_revenue"`
	SelectCount   int      `mapstructure:"select_count" validate:"gte=0"`
}

func LoadProfile(profilePath string) (*Profile, error) {
	v := viper.New()
	v.SetConfigFile(profilePath)
	v.SetEnvPrefix("RETAIL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p Profile
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := validator.New().Struct(&p); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", profilePath, err)
	}
	return &p, nil
}
