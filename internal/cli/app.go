package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/opforge/ies4ctl/internal/model"
	"github.com/opforge/ies4ctl/internal/notify"
	"github.com/opforge/ies4ctl/internal/store"
)

// app bundles the pieces a command needs. It is built per invocation from
// the resolved configuration; nothing here is package-level mutable state.
type app struct {
	cfg      *model.Config
	log      *zap.SugaredLogger
	store    *store.Store
	notifier *notify.Notifier
}

// loadConfig resolves the effective configuration: defaults, then config
// file and environment via viper, then flags.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if v := viper.GetString("data_dir"); v != "" {
		cfg.DataDir = v
	}
	if v := viper.GetString("service.base_url"); v != "" {
		cfg.Service.BaseURL = v
	}
	if viper.IsSet("service.enabled") {
		cfg.Service.Enabled = viper.GetBool("service.enabled")
	}
	if viper.IsSet("service.repeat_delay") {
		cfg.Service.RepeatDelay = viper.GetDuration("service.repeat_delay")
	}
	if viper.IsSet("backup.enabled") {
		cfg.Backup.Enabled = viper.GetBool("backup.enabled")
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if viper.IsSet("cache.ttl") {
		cfg.Cache.TTL = viper.GetDuration("cache.ttl")
	}
	if viper.IsSet("concurrency.workers") {
		cfg.Concurrency.Workers = viper.GetInt("concurrency.workers")
	}

	// Flags win over file and environment.
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if serviceURL != "" {
		cfg.Service.BaseURL = serviceURL
	}
	if noNotify {
		cfg.Service.Enabled = false
	}
	if noBackup {
		cfg.Backup.Enabled = false
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	cfg.Output.Verbose = verbose

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data directory not configured: pass --data-dir, set IES4CTL_DATA_DIR, or put data_dir in the config file")
	}
	return cfg, nil
}

// newLogger builds the structured logger: development output at --verbose,
// warnings-only otherwise so normal runs stay quiet on the console.
func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	var zc zap.Config
	if verbose {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	zc.OutputPaths = []string{"stderr"}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	return logger.Sugar(), nil
}

// newApp builds the store and notifier from the resolved configuration.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.DataDir, cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, store: st}
	if cfg.Service.Enabled {
		client := notify.NewClient(cfg.Service, log)
		a.notifier = notify.NewNotifier(client, cfg.Service, log)
	}
	return a, nil
}

// Close blocks until any outstanding delayed notification has run, then
// flushes the logger. Without the wait a one-shot invocation would exit
// before the delayed analyze fires.
func (a *app) Close() {
	if a.notifier != nil {
		a.notifier.Wait()
	}
	_ = a.log.Sync()
}

// notifyChange runs the best-effort notification sequence and reports its
// outcome on the console. Failures here never fail the command: the local
// write already happened.
func (a *app) notifyChange(ctx context.Context, databaseName string) {
	if a.notifier == nil {
		if a.cfg.Output.Verbose {
			fmt.Fprintln(os.Stderr, "Service notification disabled, skipping")
		}
		return
	}
	seq := a.notifier.NotifyChange(ctx, databaseName)
	if !seq.Reachable {
		fmt.Fprintf(os.Stderr, "Warning: analyzer service at %s unreachable; local file updated, reload it manually\n", a.cfg.Service.BaseURL)
		return
	}
	if failed := seq.Failed(); failed > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d notification step(s) failed; local file updated regardless\n", failed)
	} else if a.cfg.Output.Verbose {
		fmt.Fprintln(os.Stderr, "Analyzer service notified")
	}
}
