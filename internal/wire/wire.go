// Package wire provides dependency injection for the refab application.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"log"
	"os"
	"sync"

	cliadapter "github.com/example/refab/internal/adapters/cli"
	"github.com/example/refab/internal/adapters/logging"
	"github.com/example/refab/internal/adapters/optimizer"
	"github.com/example/refab/internal/adapters/sqlite"
	"github.com/example/refab/internal/app"
	"github.com/example/refab/internal/config"
	"github.com/example/refab/internal/db"
	"github.com/example/refab/internal/ports/primary"
	"github.com/example/refab/internal/ports/secondary"
)

var (
	appConfig         *config.Config
	schedulingService primary.SchedulingService
	configService     primary.ConfigService
	logService        primary.LogService
	once              sync.Once
)

// SchedulingService returns the singleton SchedulingService instance.
func SchedulingService() primary.SchedulingService {
	once.Do(initServices)
	return schedulingService
}

// ConfigService returns the singleton ConfigService instance.
func ConfigService() primary.ConfigService {
	once.Do(initServices)
	return configService
}

// LogService returns the singleton LogService instance.
func LogService() primary.LogService {
	once.Do(initServices)
	return logService
}

// AppConfig returns the loaded application config.
func AppConfig() *config.Config {
	once.Do(initServices)
	return appConfig
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to resolve working directory: %v", err)
	}
	appConfig, err = config.LoadConfig(cwd)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if appConfig.DBPath != "" {
		os.Setenv("REFAB_DB", appConfig.DBPath)
	}

	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Repository adapters (secondary ports) with injected DB
	queueRepo := sqlite.NewQueueRepository(database)
	stageConfigRepo := sqlite.NewStageConfigRepository(database)
	deliveryRepo := sqlite.NewDeliveryDateRepository(database)
	logRepo := sqlite.NewSchedulingLogRepository(database)

	observer := logging.New(os.Stderr, os.Getenv("REFAB_LOG_LEVEL"))

	// Services (primary ports implementation)
	sched := app.NewSchedulingService(queueRepo, stageConfigRepo, deliveryRepo, logRepo, buildOptimizer(appConfig), observer)
	if epoch, err := appConfig.Epoch(); err != nil {
		log.Fatalf("invalid calendar epoch: %v", err)
	} else if !epoch.IsZero() {
		sched.SetCalendarEpoch(epoch)
	}
	schedulingService = sched
	configService = app.NewConfigService(stageConfigRepo)
	logService = app.NewLogService(logRepo)
}

// buildOptimizer constructs the configured optimizer bridge, or nil for
// FIFO-only operation.
func buildOptimizer(cfg *config.Config) secondary.Optimizer {
	switch cfg.Optimizer.Kind {
	case config.OptimizerExec:
		return optimizer.NewExecBridge(cfg.Optimizer.Command, nil, cfg.Optimizer.Timeout())
	case config.OptimizerHTTP:
		return optimizer.NewHTTPBridge("http", cfg.Optimizer.URL, cfg.Optimizer.Timeout())
	}
	return nil
}

// QueueAdapter returns a new QueueAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func QueueAdapter() *cliadapter.QueueAdapter {
	return QueueAdapterWithOutput(os.Stdout)
}

// QueueAdapterWithOutput returns a new QueueAdapter writing to the given
// output. This variant allows testing or alternate output destinations.
func QueueAdapterWithOutput(out io.Writer) *cliadapter.QueueAdapter {
	once.Do(initServices)
	return cliadapter.NewQueueAdapter(schedulingService, out)
}

// HoldAdapter returns a new HoldAdapter writing to stdout.
func HoldAdapter() *cliadapter.HoldAdapter {
	return HoldAdapterWithOutput(os.Stdout)
}

// HoldAdapterWithOutput returns a new HoldAdapter writing to the given output.
func HoldAdapterWithOutput(out io.Writer) *cliadapter.HoldAdapter {
	once.Do(initServices)
	return cliadapter.NewHoldAdapter(schedulingService, out)
}

// ConfigAdapter returns a new ConfigAdapter writing to stdout.
func ConfigAdapter() *cliadapter.ConfigAdapter {
	return ConfigAdapterWithOutput(os.Stdout)
}

// ConfigAdapterWithOutput returns a new ConfigAdapter writing to the given output.
func ConfigAdapterWithOutput(out io.Writer) *cliadapter.ConfigAdapter {
	once.Do(initServices)
	return cliadapter.NewConfigAdapter(configService, out)
}

// LogAdapter returns a new LogAdapter writing to stdout.
func LogAdapter() *cliadapter.LogAdapter {
	return LogAdapterWithOutput(os.Stdout)
}

// LogAdapterWithOutput returns a new LogAdapter writing to the given output.
func LogAdapterWithOutput(out io.Writer) *cliadapter.LogAdapter {
	once.Do(initServices)
	return cliadapter.NewLogAdapter(logService, out)
}
