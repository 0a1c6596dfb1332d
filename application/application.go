package application

import (
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/graph-serializer/pkg/log"
	"github.com/lk2023060901/graph-serializer/pkg/metrics"
	"github.com/lk2023060901/graph-serializer/pkg/serializer"
)

const (
	defaultConfigPath = "./serializer.yaml"
	configPathEnv     = "GRAPHSER_CONFIG_FILE_PATH"
)

// Application is the runtime container that owns configuration,
// logging and the Serializer built from them.
type Application struct {
	cfg        *serializer.Config
	serializer *serializer.Serializer
	registerer prometheus.Registerer
	opts       []serializer.Option
}

// New creates a new Application. opts are passed to serializer.New after
// the configuration option.
func New(opts ...serializer.Option) *Application {
	return &Application{opts: opts, registerer: prometheus.DefaultRegisterer}
}

// WithRegisterer overrides the Prometheus registerer used for metrics.
func (a *Application) WithRegisterer(r prometheus.Registerer) *Application {
	a.registerer = r
	return a
}

// Run loads configuration using the following priority:
//  1. Default: ./serializer.yaml (skipped when absent)
//  2. Env: GRAPHSER_CONFIG_FILE_PATH
//  3. CLI: --config <path> or --config=<path>
//
// then initializes logging, metrics and the Serializer.
func (a *Application) Run() error {
	return a.RunWithArgs(os.Args[1:])
}

func (a *Application) RunWithArgs(args []string) error {
	path, err := resolveConfigPath(args)
	if err != nil {
		return err
	}
	cfg, err := serializer.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %q: %w", path, err)
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}
	if a.registerer != nil {
		metrics.Register(a.registerer)
	}

	opts := append([]serializer.Option{serializer.WithConfig(cfg)}, a.opts...)
	ser, err := serializer.New(opts...)
	if err != nil {
		return fmt.Errorf("build serializer: %w", err)
	}
	a.serializer = ser
	log.Info("serializer ready",
		log.FieldFormat(cfg.DefaultFormat),
		log.FieldComponent("application"))
	return nil
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *serializer.Config {
	return a.cfg
}

// Serializer returns the Serializer built by Run.
func (a *Application) Serializer() *serializer.Serializer {
	return a.serializer
}

// Close releases the Serializer and flushes the logger.
func (a *Application) Close() {
	if a.serializer != nil {
		a.serializer.Close()
	}
	_ = log.Sync()
}

func resolveConfigPath(args []string) (string, error) {
	configPath := ""
	if _, err := os.Stat(defaultConfigPath); err == nil {
		configPath = defaultConfigPath
	}

	if envPath := strings.TrimSpace(os.Getenv(configPathEnv)); envPath != "" {
		configPath = envPath
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return "", fmt.Errorf("missing value after --config")
			}
			configPath = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--config=") {
			val := strings.TrimPrefix(arg, "--config=")
			if val != "" {
				configPath = val
			}
			continue
		}
	}
	return configPath, nil
}

// initLogging configures the process-wide logger from the "log" section.
func (a *Application) initLogging() error {
	logger, props, err := log.InitLogger(&a.cfg.Log)
	if err != nil {
		return fmt.Errorf("init global logger: %w", err)
	}
	log.ReplaceGlobals(logger, props)
	return nil
}
