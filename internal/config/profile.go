package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/example/refab/internal/core/queue"
)

// StageProfile is a YAML document that sets accumulation periods for one
// factory in a single import. Operators keep these files in version
// control and apply them with `refab config import`.
//
//	factory: F1
//	stages:
//	  pre_acceptance: 30
//	  pre_inspection: 0
//	  post_inspection: 0
type StageProfile struct {
	Factory string           `yaml:"factory"`
	Stages  map[string]int64 `yaml:"stages"`
}

// LoadStageProfile reads and validates a stage profile file.
func LoadStageProfile(path string) (*StageProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage profile: %w", err)
	}
	return ParseStageProfile(data)
}

// ParseStageProfile validates a YAML stage profile document.
func ParseStageProfile(data []byte) (*StageProfile, error) {
	var p StageProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse stage profile: %w", err)
	}
	if p.Factory == "" {
		return nil, fmt.Errorf("stage profile missing factory")
	}
	if len(p.Stages) == 0 {
		return nil, fmt.Errorf("stage profile has no stages")
	}
	for name, minutes := range p.Stages {
		if _, err := queue.ParseStage(name); err != nil {
			return nil, fmt.Errorf("stage profile: %w", err)
		}
		if minutes < 0 {
			return nil, fmt.Errorf("stage profile: %s minutes must be >= 0, got %d", name, minutes)
		}
	}
	return &p, nil
}

// ReleaseAfterMinutes resolves the profile's stage names to typed stages.
func (p *StageProfile) ReleaseAfterMinutes() (map[queue.Stage]int64, error) {
	out := make(map[queue.Stage]int64, len(p.Stages))
	for name, minutes := range p.Stages {
		stage, err := queue.ParseStage(name)
		if err != nil {
			return nil, err
		}
		out[stage] = minutes
	}
	return out, nil
}
