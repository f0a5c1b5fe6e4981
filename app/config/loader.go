package config

import (
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of rerun profiles
type Loader struct {
	path string
}

// NewLoader creates a new profile loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads, defaults and validates the profile file
func (l *Loader) Load() (*Profile, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&profile)

	if err := l.validate(&profile); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", l.path, err)
	}

	return &profile, nil
}

// setDefaults applies default values to the profile
func (l *Loader) setDefaults(profile *Profile) {
	if profile.Schedule.BatchSize == 0 {
		profile.Schedule.BatchSize = 1
	}
	if profile.Output.Path == "" {
		profile.Output.Path = profile.Feed.Path
	}
}

// validate validates the profile
func (l *Loader) validate(profile *Profile) error {
	if profile.Feed.Path == "" {
		return fmt.Errorf("feed path is required")
	}

	if profile.Schedule.BatchSize < 0 {
		return fmt.Errorf("batch size must be non-negative")
	}

	switch profile.Schedule.Order {
	case "", "chronological", "shuffled":
	default:
		return fmt.Errorf("invalid order: %s", profile.Schedule.Order)
	}

	if profile.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(profile.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid cron spec %q: %w", profile.Schedule.Cron, err)
		}
	}

	return nil
}
