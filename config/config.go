package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes environment variables read by [Loader]. Nested keys are
// separated by a double underscore: KREATE__LOG__LEVEL sets log.level.
const EnvPrefix = "KREATE"

var (
	// ErrInvalidConfig indicates a configuration that failed to load or
	// validate.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrConfigNotFound indicates a config file that does not exist.
	ErrConfigNotFound = errors.New("config file not found")
)

// Output formats.
const (
	OutputJSON       = "json"
	OutputYAML       = "yaml"
	OutputJSONSchema = "jsonschema"
)

// Config is the CLI configuration.
type Config struct {
	// Kubeconfig is the kubeconfig file. Empty selects client-go's default
	// loading rules.
	Kubeconfig string `koanf:"kubeconfig"`
	// Context overrides the kubeconfig's current-context.
	Context string `koanf:"context"`
	Log     Log    `koanf:"log"`
	Output  Output `koanf:"output"`
	// Timeout bounds each command's cluster requests. Zero disables it.
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

// Log configures logging.
type Log struct {
	Level  string `koanf:"level"  validate:"oneof=error warn info debug"`
	Format string `koanf:"format" validate:"oneof=json logfmt text"`
}

// Output configures how results are printed.
type Output struct {
	Format string `koanf:"format" validate:"oneof=json yaml jsonschema"`
	// Indent is the number of spaces per JSON indentation level. Zero picks
	// two spaces when writing to a terminal and compact output otherwise.
	Indent int `koanf:"indent" validate:"gte=0,lte=8"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Timeout: 30 * time.Second,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Output: Output{
			Format: OutputJSON,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Loader merges configuration sources. Later sources override earlier ones:
// defaults, then the config file, then environment variables, then flags
// that were set explicitly.
//
// Create instances with [NewLoader].
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
}

// NewLoader creates a new [Loader]. envPrefix is given without the trailing
// delimiter, e.g. [EnvPrefix].
func NewLoader(envPrefix string) *Loader {
	return &Loader{
		k:         koanf.New("."),
		envPrefix: envPrefix + "__",
	}
}

// Load reads defaults, the YAML file at configPath if set, and the
// environment.
func (l *Loader) Load(defaults Config, configPath string) error {
	err := l.k.Load(structs.Provider(defaults, "koanf"), nil)
	if err != nil {
		return fmt.Errorf("%w: load defaults: %w", ErrInvalidConfig, err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}

		err = l.k.Load(file.Provider(configPath), koanfyaml.Parser())
		if err != nil {
			return fmt.Errorf("%w: load %s: %w", ErrInvalidConfig, configPath, err)
		}
	}

	envProvider := env.Provider(l.envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, l.envPrefix))

		return strings.ReplaceAll(key, "__", ".")
	})

	err = l.k.Load(envProvider, nil)
	if err != nil {
		return fmt.Errorf("%w: load environment: %w", ErrInvalidConfig, err)
	}

	return nil
}

// LoadFlags applies flags that were set explicitly. mappings maps flag
// names to config keys; unmapped flags are ignored.
func (l *Loader) LoadFlags(flags *pflag.FlagSet, mappings map[string]string) error {
	var errs []error

	flags.Visit(func(f *pflag.Flag) {
		key, ok := mappings[f.Name]
		if !ok {
			return
		}

		if err := l.k.Set(key, f.Value.String()); err != nil {
			errs = append(errs, fmt.Errorf("flag %s: %w", f.Name, err))
		}
	})

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// Config returns the merged, validated configuration.
func (l *Loader) Config() (*Config, error) {
	cfg := &Config{}

	err := l.k.Unmarshal("", cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	err = validate.Struct(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return cfg, nil
}
