package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/refab/internal/ports/primary"
)

// ConfigAdapter translates config CLI operations to ConfigService calls.
type ConfigAdapter struct {
	service primary.ConfigService
	out     io.Writer
}

// NewConfigAdapter creates a new ConfigAdapter with the given service.
func NewConfigAdapter(service primary.ConfigService, out io.Writer) *ConfigAdapter {
	return &ConfigAdapter{
		service: service,
		out:     out,
	}
}

// Show renders all stage settings of a factory.
func (a *ConfigAdapter) Show(ctx context.Context, factoryID string) (*primary.FactoryConfig, error) {
	cfg, err := a.service.GetConfig(ctx, factoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	fmt.Fprintf(a.out, "Factory %s\n", cfg.FactoryID)
	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "STAGE\tRELEASE AFTER\tWINDOW")
	fmt.Fprintln(w, "-----\t-------------\t------")
	for _, s := range cfg.Stages {
		window := "closed"
		if s.BatchStartMin != nil {
			window = fmt.Sprintf("open since minute %d", *s.BatchStartMin)
		}
		mode := "immediate"
		if s.ReleaseAfterMin > 0 {
			mode = fmt.Sprintf("%d min", s.ReleaseAfterMin)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Stage.Short(), mode, window)
	}
	w.Flush()
	return cfg, nil
}

// Update applies new accumulation periods and renders the result.
func (a *ConfigAdapter) Update(ctx context.Context, req primary.UpdateConfigRequest) (*primary.FactoryConfig, error) {
	if _, err := a.service.UpdateConfig(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to update config: %w", err)
	}
	return a.Show(ctx, req.FactoryID)
}
