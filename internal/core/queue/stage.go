// Package queue contains the pure scheduling logic for stage queues.
// Functions here evaluate release eligibility, batch-window state, and
// per-entry readiness without side effects; persistence lives in adapters.
package queue

import "fmt"

// Stage identifies one of the three sequential scheduling stages.
type Stage string

const (
	// StagePreAcceptance buffers work ahead of acceptance (PAP).
	StagePreAcceptance Stage = "pre_acceptance"
	// StagePreInspection buffers work ahead of inspection (PIP).
	StagePreInspection Stage = "pre_inspection"
	// StagePostInspection buffers work after inspection (PIPO).
	StagePostInspection Stage = "post_inspection"
)

// Stages lists all stages in pipeline order.
func Stages() []Stage {
	return []Stage{StagePreAcceptance, StagePreInspection, StagePostInspection}
}

// ParseStage normalizes a user-supplied stage name.
// Accepts the canonical names plus the short factory-floor aliases.
func ParseStage(s string) (Stage, error) {
	switch s {
	case "pre_acceptance", "pre-acceptance", "pap":
		return StagePreAcceptance, nil
	case "pre_inspection", "pre-inspection", "pip":
		return StagePreInspection, nil
	case "post_inspection", "post-inspection", "pipo":
		return StagePostInspection, nil
	}
	return "", fmt.Errorf("unknown stage %q (want pap, pip or pipo)", s)
}

// Short returns the factory-floor alias for the stage.
func (s Stage) Short() string {
	switch s {
	case StagePreAcceptance:
		return "pap"
	case StagePreInspection:
		return "pip"
	case StagePostInspection:
		return "pipo"
	}
	return string(s)
}

// Valid reports whether s is one of the three known stages.
func (s Stage) Valid() bool {
	switch s {
	case StagePreAcceptance, StagePreInspection, StagePostInspection:
		return true
	}
	return false
}
