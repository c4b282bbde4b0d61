package primary

import (
	"context"

	"github.com/example/refab/internal/core/queue"
)

// ConfigService defines the primary port for per-factory stage settings.
type ConfigService interface {
	// GetConfig retrieves all stage settings of a factory, seeding
	// defaults for stages that have none yet.
	GetConfig(ctx context.Context, factoryID string) (*FactoryConfig, error)

	// UpdateConfig applies new accumulation periods per stage. Setting a
	// stage to 0 while its window is open switches it to immediate
	// release; the stale window is cleared on the next release.
	UpdateConfig(ctx context.Context, req UpdateConfigRequest) (*FactoryConfig, error)
}

// FactoryConfig is the primary-port view of a factory's stage settings.
type FactoryConfig struct {
	FactoryID string
	Stages    []StageSetting
}

// StageSetting is one stage's settings.
type StageSetting struct {
	Stage           queue.Stage
	ReleaseAfterMin int64
	BatchStartMin   *int64 // non-nil while a batch window is open
}

// UpdateConfigRequest carries the per-stage accumulation periods to apply.
// Stages absent from the map keep their current setting.
type UpdateConfigRequest struct {
	FactoryID       string
	ReleaseAfterMin map[queue.Stage]int64
}
