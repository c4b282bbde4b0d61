package app

import (
	"context"
	"fmt"

	"github.com/example/refab/internal/ports/primary"
	"github.com/example/refab/internal/ports/secondary"
)

// ConfigServiceImpl implements the ConfigService interface.
type ConfigServiceImpl struct {
	configRepo secondary.StageConfigRepository
}

// NewConfigService creates a ConfigService with an injected repository.
func NewConfigService(configRepo secondary.StageConfigRepository) *ConfigServiceImpl {
	return &ConfigServiceImpl{configRepo: configRepo}
}

// GetConfig retrieves all stage settings of a factory, seeding defaults
// for stages that have none yet.
func (s *ConfigServiceImpl) GetConfig(ctx context.Context, factoryID string) (*primary.FactoryConfig, error) {
	if err := s.configRepo.Ensure(ctx, factoryID); err != nil {
		return nil, fmt.Errorf("failed to ensure stage config: %w", err)
	}

	configs, err := s.configRepo.List(ctx, factoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage configs: %w", err)
	}

	resp := &primary.FactoryConfig{FactoryID: factoryID}
	for _, cfg := range configs {
		resp.Stages = append(resp.Stages, primary.StageSetting{
			Stage:           cfg.Stage,
			ReleaseAfterMin: cfg.ReleaseAfterMin,
			BatchStartMin:   cfg.BatchStartMin,
		})
	}
	return resp, nil
}

// UpdateConfig applies new accumulation periods per stage. Setting a stage
// to 0 while its window is open switches it to immediate release; the
// stale window marker is cleared by the next release, not here.
func (s *ConfigServiceImpl) UpdateConfig(ctx context.Context, req primary.UpdateConfigRequest) (*primary.FactoryConfig, error) {
	if err := s.configRepo.Ensure(ctx, req.FactoryID); err != nil {
		return nil, fmt.Errorf("failed to ensure stage config: %w", err)
	}

	for stage, minutes := range req.ReleaseAfterMin {
		if !stage.Valid() {
			return nil, fmt.Errorf("invalid stage %q", stage)
		}
		if minutes < 0 {
			return nil, fmt.Errorf("release after minutes must be >= 0, got %d for %s", minutes, stage.Short())
		}
		if err := s.configRepo.SetReleaseAfter(ctx, req.FactoryID, stage, minutes); err != nil {
			return nil, fmt.Errorf("failed to update %s config: %w", stage.Short(), err)
		}
	}

	return s.GetConfig(ctx, req.FactoryID)
}
