// Package config assembles the run configuration from flags, environment,
// config file and defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"zbench/internal/registry"
)

// EnvPrefix is prepended to every environment override, e.g. ZBENCH_RUNS.
const EnvPrefix = "ZBENCH"

// DefaultConfigName is looked up in the working directory when no --config is given.
const DefaultConfigName = "zbench"

// Config is the fully resolved run configuration.
type Config struct {
	Levels               []int  `mapstructure:"levels" validate:"min=1,dive,min=0,max=9"`
	CompressIterations   int    `mapstructure:"compress_iterations" validate:"min=1"`
	DecompressIterations int    `mapstructure:"decompress_iterations" validate:"min=1"`
	Runs                 int    `mapstructure:"runs" validate:"min=1"`
	DecompressLevel      int    `mapstructure:"decompress_level" validate:"min=0,max=9"`
	Jobs                 int    `mapstructure:"jobs" validate:"min=0"`
	Output               string `mapstructure:"output"`
	OutputFormat         string `mapstructure:"output_format" validate:"oneof=pretty json html"`
	Load                 string `mapstructure:"load"`
	ForceRecompile       bool   `mapstructure:"force_recompile"`
	Quiet                bool   `mapstructure:"quiet"`
	Verbose              bool   `mapstructure:"verbose"`
	Corpus               string `mapstructure:"corpus" validate:"required"`
	Pattern              string `mapstructure:"pattern" validate:"required"`
	WorkDir              string `mapstructure:"work_dir" validate:"required"`
	Baseline             string `mapstructure:"baseline" validate:"required"`
	HistoryDB            string `mapstructure:"history_db"`
	HistoryType          string `mapstructure:"history_type" validate:"oneof=sqlite postgres"`
	MetricsAddr          string `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	MetricsTextfile      string `mapstructure:"metrics_textfile"`
	LogFile              string `mapstructure:"log_file"`
	Color                string `mapstructure:"color" validate:"oneof=auto always never"`

	Variants []registry.Variant `mapstructure:"-"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("levels", []int{1, 6, 9})
	v.SetDefault("compress_iterations", 5)
	v.SetDefault("decompress_iterations", 20)
	v.SetDefault("runs", 5)
	v.SetDefault("decompress_level", 6)
	v.SetDefault("jobs", 0)
	v.SetDefault("output_format", "pretty")
	v.SetDefault("corpus", "corpus")
	v.SetDefault("pattern", "*")
	v.SetDefault("work_dir", "work")
	v.SetDefault("baseline", registry.BaselineName)
	v.SetDefault("history_type", "sqlite")
	v.SetDefault("color", "auto")
}

// Key maps a flag name to its configuration key.
func Key(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// Load resolves the configuration. Precedence, highest first: flags that were
// set, ZBENCH_* environment variables, the config file, defaults. A missing
// default config file is not an error; a missing explicit one is.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(DefaultConfigName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if f.Name == "config" || f.Name == "help" {
				return
			}
			if err := v.BindPFlag(Key(f.Name), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		slog.Debug("using config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	variants, err := registry.Load(v, cfg.Baseline)
	if err != nil {
		return nil, err
	}
	cfg.Variants = variants
	return &cfg, nil
}
