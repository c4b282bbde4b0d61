package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/refab/internal/ports/primary"
	"github.com/example/refab/internal/wire"
)

var holdCmd = &cobra.Command{
	Use:   "hold",
	Short: "Manage release holds on queued orders",
}

var holdSetCmd = &cobra.Command{
	Use:   "set [order-id]",
	Short: "Suppress an order's release until a minute",
	Long: `Place a hold on a pending order. The order is skipped by release
cycles until the hold minute passes, then rejoins automatically. A
repeated hold overwrites the previous one.`,
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
		until, _ := cmd.Flags().GetInt64("until")
		reason, _ := cmd.Flags().GetString("reason")

		return wire.HoldAdapter().Set(NewContext(), primary.SetHoldRequest{
			Stage:        stage,
			FactoryID:    factory,
			OrderID:      args[0],
			HoldUntilMin: until,
			Reason:       reason,
			SimMinute:    minute,
		})
	},
}

var holdClearCmd = &cobra.Command{
	Use:   "clear [order-id]",
	Short: "Remove an order's hold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, err := resolveStage(cmd)
		if err != nil {
			return err
		}
		factory, err := resolveFactory(cmd)
		if err != nil {
			return err
		}

		return wire.HoldAdapter().Clear(NewContext(), primary.ClearHoldRequest{
			Stage:     stage,
			FactoryID: factory,
			OrderID:   args[0],
		})
	},
}

var holdSetMultiCmd = &cobra.Command{
	Use:   "set-multi [order-id:until ...]",
	Short: "Apply several holds in one call",
	Long: `Apply holds to several orders at once, best-effort: a failing hold
never blocks the others. Each argument is order-id:until-minute.`,
	Args: cobra.MinimumNArgs(1),
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
		reason, _ := cmd.Flags().GetString("reason")

		var holds []primary.HoldSpec
		for _, arg := range args {
			id, untilRaw, ok := strings.Cut(arg, ":")
			if !ok {
				return fmt.Errorf("invalid hold %q, want order-id:until-minute", arg)
			}
			until, err := strconv.ParseInt(untilRaw, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid hold minute in %q: %w", arg, err)
			}
			holds = append(holds, primary.HoldSpec{OrderID: id, HoldUntilMin: until, Reason: reason})
		}

		_, err = wire.HoldAdapter().SetMultiple(NewContext(), primary.SetMultipleHoldsRequest{
			Stage:     stage,
			FactoryID: factory,
			Holds:     holds,
			SimMinute: minute,
		})
		return err
	},
}

// HoldCmd returns the hold command group.
func HoldCmd() *cobra.Command {
	addStageFlags(holdSetCmd)
	holdSetCmd.Flags().Int64("until", 0, "suppress release until this simulation minute")
	holdSetCmd.Flags().String("reason", "", "free-text hold reason")

	addStageFlags(holdClearCmd)

	addStageFlags(holdSetMultiCmd)
	holdSetMultiCmd.Flags().String("reason", "", "free-text hold reason applied to every order")

	holdCmd.AddCommand(holdSetCmd)
	holdCmd.AddCommand(holdClearCmd)
	holdCmd.AddCommand(holdSetMultiCmd)
	return holdCmd
}
