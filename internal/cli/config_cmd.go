package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/refab/internal/config"
	"github.com/example/refab/internal/core/queue"
	"github.com/example/refab/internal/ports/primary"
	"github.com/example/refab/internal/wire"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage per-factory stage settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stage settings of a factory",
	RunE: func(cmd *cobra.Command, args []string) error {
		factory, err := resolveFactory(cmd)
		if err != nil {
			return err
		}
		_, err = wire.ConfigAdapter().Show(NewContext(), factory)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [stage=minutes ...]",
	Short: "Set accumulation periods per stage",
	Long: `Set how long a stage accumulates entries before a batch release,
in simulation minutes. 0 means immediate release. Stages not named keep
their current setting.

  refab config set pap=30 pip=0`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		factory, err := resolveFactory(cmd)
		if err != nil {
			return err
		}

		minutes := make(map[queue.Stage]int64, len(args))
		for _, arg := range args {
			name, raw, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("invalid setting %q, want stage=minutes", arg)
			}
			stage, err := queue.ParseStage(name)
			if err != nil {
				return err
			}
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid minutes in %q: %w", arg, err)
			}
			minutes[stage] = v
		}

		_, err = wire.ConfigAdapter().Update(NewContext(), primary.UpdateConfigRequest{
			FactoryID:       factory,
			ReleaseAfterMin: minutes,
		})
		return err
	},
}

var configImportCmd = &cobra.Command{
	Use:   "import [profile.yaml]",
	Short: "Import a YAML stage profile",
	Long: `Apply the accumulation periods of a YAML stage profile to its
factory. The profile names the factory itself:

  factory: F1
  stages:
    pre_acceptance: 30
    pre_inspection: 0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := config.LoadStageProfile(args[0])
		if err != nil {
			return err
		}
		minutes, err := profile.ReleaseAfterMinutes()
		if err != nil {
			return err
		}

		_, err = wire.ConfigAdapter().Update(NewContext(), primary.UpdateConfigRequest{
			FactoryID:       profile.Factory,
			ReleaseAfterMin: minutes,
		})
		return err
	},
}

// ConfigCmd returns the config command group.
func ConfigCmd() *cobra.Command {
	configShowCmd.Flags().StringP("factory", "f", "", "factory ID (default from config)")
	configSetCmd.Flags().StringP("factory", "f", "", "factory ID (default from config)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configImportCmd)
	return configCmd
}
