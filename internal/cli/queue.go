package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/refab/internal/ports/primary"
	"github.com/example/refab/internal/wire"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [order-id]",
	Short: "Add an order to a stage queue",
	Long: `Add an order to a stage queue at the given simulation minute.
A duplicate pending order is skipped, not duplicated. A previously
released entry for the same order is retired and replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, err := resolveStage(cmd)
		if err != nil {
			return err
		}
		factory, err := resolveFactory(cmd)
		if err != nil {
			return err
		}
		minute, _ := cmd.Flags().GetInt64("minute")
		possibleSequence, _ := cmd.Flags().GetString("possible-sequence")
		processTimes, _ := cmd.Flags().GetString("process-times")

		_, err = wire.QueueAdapter().Enqueue(NewContext(), primary.EnqueueRequest{
			Stage:            stage,
			FactoryID:        factory,
			OrderID:          args[0],
			SimMinute:        minute,
			PossibleSequence: possibleSequence,
			ProcessTimes:     processTimes,
		})
		return err
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release the oldest due entry of a stage",
	Long: `Release the single oldest entry whose per-item accumulation period
has elapsed and that is not on hold. Batch windows are ignored; use
"refab batch-check" for windowed release.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, err := resolveStage(cmd)
		if err != nil {
			return err
		}
		factory, err := resolveFactory(cmd)
		if err != nil {
			return err
		}
		minute, _ := cmd.Flags().GetInt64("minute")

		_, err = wire.QueueAdapter().ReleaseNext(NewContext(), primary.ReleaseNextRequest{
			Stage:     stage,
			FactoryID: factory,
			SimMinute: minute,
		})
		return err
	},
}

var batchCheckCmd = &cobra.Command{
	Use:   "batch-check",
	Short: "Run a batched release cycle for a stage",
	Long: `Check whether the stage's batch window is due and, if so, run the
full release cycle: hold partitioning, optimizer invocation,
reconciliation, atomic release, ETA propagation and log append.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, err := resolveStage(cmd)
		if err != nil {
			return err
		}
		factory, err := resolveFactory(cmd)
		if err != nil {
			return err
		}
		minute, _ := cmd.Flags().GetInt64("minute")

		_, err = wire.QueueAdapter().CheckBatch(NewContext(), primary.BatchCheckRequest{
			Stage:     stage,
			FactoryID: factory,
			SimMinute: minute,
		})
		return err
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pending entries and readiness of a stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, err := resolveStage(cmd)
		if err != nil {
			return err
		}
		factory, err := resolveFactory(cmd)
		if err != nil {
			return err
		}
		minute, _ := cmd.Flags().GetInt64("minute")

		_, err = wire.QueueAdapter().Status(NewContext(), primary.StatusRequest{
			Stage:     stage,
			FactoryID: factory,
			SimMinute: minute,
		})
		return err
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all pending entries of a factory",
	Long: `Drop every pending entry of a factory across all stages and close
every batch window. Released history, delivery dates and the scheduling
log are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		factory, err := resolveFactory(cmd)
		if err != nil {
			return err
		}
		_, err = wire.QueueAdapter().Clear(NewContext(), factory)
		return err
	},
}

// EnqueueCmd returns the enqueue command.
func EnqueueCmd() *cobra.Command {
	addStageFlags(enqueueCmd)
	enqueueCmd.Flags().String("possible-sequence", "", "optional JSON payload forwarded to the optimizer")
	enqueueCmd.Flags().String("process-times", "", "optional JSON payload forwarded to the optimizer")
	return enqueueCmd
}

// ReleaseCmd returns the release command.
func ReleaseCmd() *cobra.Command {
	addStageFlags(releaseCmd)
	return releaseCmd
}

// BatchCheckCmd returns the batch-check command.
func BatchCheckCmd() *cobra.Command {
	addStageFlags(batchCheckCmd)
	return batchCheckCmd
}

// StatusCmd returns the status command.
func StatusCmd() *cobra.Command {
	addStageFlags(statusCmd)
	return statusCmd
}

// ClearCmd returns the clear command.
func ClearCmd() *cobra.Command {
	clearCmd.Flags().StringP("factory", "f", "", "factory ID (default from config)")
	return clearCmd
}
