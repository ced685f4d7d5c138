package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/archive"
	"github.com/glorpus-work/apprepo/pkg/config"
	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/execute"
	"github.com/glorpus-work/apprepo/pkg/hook"
	"github.com/glorpus-work/apprepo/pkg/index"
	"github.com/glorpus-work/apprepo/pkg/indexer"
	"github.com/glorpus-work/apprepo/pkg/metrics"
	"github.com/glorpus-work/apprepo/pkg/orchestrator"
	"github.com/glorpus-work/apprepo/pkg/signing"
	"github.com/glorpus-work/apprepo/pkg/tasks"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	LogLevel   *string
	LogFormat  *string
)

// InitLogging configures the process logger from the global flags.
func InitLogging() {
	level := config.DefaultLogLevel
	if LogLevel != nil && *LogLevel != "" {
		level = *LogLevel
	}
	format := logger.FormatText
	if LogFormat != nil && *LogFormat == string(logger.FormatJSON) {
		format = logger.FormatJSON
	}
	logger.InitLogger(level, format)
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err.Error()})
		return ""
	}
	return defaultPath
}

// loadConfig reads the configuration and applies its log level unless the
// --log-level flag overrides it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if LogLevel == nil || *LogLevel == "" {
		logger.InitLogger(cfg.Settings.LogLevel, currentFormat())
	}
	return cfg, nil
}

func currentFormat() logger.OutputFormat {
	if LogFormat != nil && *LogFormat == string(logger.FormatJSON) {
		return logger.FormatJSON
	}
	return logger.FormatText
}

// serviceOptions select the optional parts of a service.
type serviceOptions struct {
	// requireKey loads the signing key and fails when there is none.
	requireKey bool
	metrics    prometheus.Registerer
	events     orchestrator.Events
}

// service is the orchestrator together with the collaborators built from
// the configuration.
type service struct {
	cfg     *config.Config
	keyring *signing.Keyring
	orch    *orchestrator.Orchestrator
}

func openService(cfg *config.Config, opts serviceOptions) (*service, error) {
	runner := execute.NewExecRunner(execute.Options{
		Concurrency: cfg.Settings.ToolConcurrency,
		Timeout:     cfg.Settings.ToolTimeout,
		Env:         []string{"HOME=" + cfg.HomeDirectory},
	})
	keyring := signing.NewKeyring(cfg.HomeDirectory, signing.KeyConfig{
		Name:      cfg.Settings.Key.Name,
		Comment:   cfg.Settings.Key.Comment,
		Email:     cfg.Settings.Key.Email,
		Algorithm: cfg.Settings.Key.Algorithm,
		Bits:      cfg.Settings.Key.Bits,
	}, runner, cfg.Settings.FixEntropy)
	if opts.requireKey {
		if err := keyring.Load(); err != nil {
			if errors.Is(err, errutils.ErrKeyMissing) {
				return nil, fmt.Errorf("%w: run 'apprepo setup' first", err)
			}
			return nil, err
		}
	}
	signer := signing.NewSigner(keyring, runner, cfg.Settings.RPMSignTimeout)

	registry, err := index.NewRegistry(cfg.Indexes, indexer.Options{
		PackagesDir:   cfg.PackagesDir(),
		BaseDirectory: cfg.BaseDirectory,
		BaseURL:       cfg.Settings.BaseURL,
		Origin:        cfg.Settings.Origin,
		Label:         cfg.Settings.Label,
		Runner:        runner,
		Signer:        signer,
		Archive:       archive.NewManager(),
	})
	if err != nil {
		return nil, err
	}

	hooks := hook.NewManager()
	if err := hook.LoadDir(hooks, cfg.HooksDir()); err != nil {
		return nil, err
	}

	layout := orchestrator.Layout{
		BaseDirectory: cfg.BaseDirectory,
		PackagesDir:   cfg.PackagesDir(),
		IncomingRoot:  cfg.IncomingRoot(),
		RejectedRoot:  cfg.RejectedRoot(),
	}
	orchOpts := []orchestrator.Option{
		orchestrator.WithHooks(hooks),
		orchestrator.WithEvents(opts.events),
		orchestrator.WithSignConcurrency(cfg.Settings.SignConcurrency),
	}
	if opts.metrics != nil {
		orchOpts = append(orchOpts, orchestrator.WithMetrics(metrics.NewRecorder(opts.metrics)))
	}
	orch := orchestrator.New(layout, registry, keyring, signer, tasks.NewLock(cfg.LockPath()), orchOpts...)
	return &service{cfg: cfg, keyring: keyring, orch: orch}, nil
}

// progress prints orchestrator events to w.
func progress(w io.Writer) orchestrator.Events {
	return orchestrator.Events{OnEvent: func(e orchestrator.Event) {
		switch {
		case e.File != "" && e.Msg != "":
			_, _ = fmt.Fprintf(w, "%s: %s (%s)\n", e.Phase, e.File, e.Msg)
		case e.File != "":
			_, _ = fmt.Fprintf(w, "%s: %s\n", e.Phase, e.File)
		case e.Index != "":
			_, _ = fmt.Fprintf(w, "%s: %s %s\n", e.Phase, e.Index, e.Msg)
		default:
			_, _ = fmt.Fprintf(w, "%s: %s\n", e.Phase, e.Msg)
		}
	}}
}
