// Package cli provides the cobra commands of the refab application.
package cli

import (
	gocontext "context"
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/example/refab/internal/core/queue"
	"github.com/example/refab/internal/ctxutil"
	"github.com/example/refab/internal/wire"
)

// globalActorID stores the detected actor ID for the current CLI
// invocation. Set once at startup by DetectAndStoreActor().
var globalActorID string

// DetectAndStoreActor resolves the actor recorded on scheduling-log
// entries. REFAB_ACTOR wins over the OS user. Should be called once at
// CLI startup in PersistentPreRun.
func DetectAndStoreActor() {
	if actor := os.Getenv("REFAB_ACTOR"); actor != "" {
		globalActorID = actor
		return
	}
	if u, err := user.Current(); err == nil {
		globalActorID = u.Username
	}
}

// NewContext creates a context.Background() with the current actor ID
// embedded. CLI commands should use this instead of context.Background()
// directly.
func NewContext() gocontext.Context {
	ctx := gocontext.Background()
	if globalActorID != "" {
		return ctxutil.WithActorID(ctx, globalActorID)
	}
	return ctx
}

// addStageFlags registers the flags shared by every queue command.
func addStageFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("stage", "s", "", "stage: pap, pip or pipo")
	cmd.Flags().StringP("factory", "f", "", "factory ID (default from config)")
	cmd.Flags().Int64P("minute", "m", 0, "current simulation minute")
}

// resolveStage parses the --stage flag.
func resolveStage(cmd *cobra.Command) (queue.Stage, error) {
	raw, _ := cmd.Flags().GetString("stage")
	if raw == "" {
		return "", fmt.Errorf("--stage is required (pap, pip or pipo)")
	}
	return queue.ParseStage(raw)
}

// resolveFactory resolves the --factory flag, falling back to the config
// default.
func resolveFactory(cmd *cobra.Command) (string, error) {
	factory, _ := cmd.Flags().GetString("factory")
	if factory == "" {
		factory = wire.AppConfig().DefaultFactory
	}
	if factory == "" {
		return "", fmt.Errorf("--factory is required (or set default_factory in .refab/config.json)")
	}
	return factory, nil
}
