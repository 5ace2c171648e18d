package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/kreate/config"
)

func TestLoaderDefaults(t *testing.T) {
	t.Parallel()

	loader := config.NewLoader("KREATE_TEST_DEFAULTS")
	require.NoError(t, loader.Load(config.Default(), ""))

	cfg, err := loader.Config()
	require.NoError(t, err)

	want := config.Default()
	assert.Equal(t, &want, cfg)
}

func TestLoaderConfigFile(t *testing.T) {
	t.Parallel()

	loader := config.NewLoader("KREATE_TEST_FILE")
	require.NoError(t, loader.Load(config.Default(), filepath.Join("testdata", "config.yaml")))

	cfg, err := loader.Config()
	require.NoError(t, err)

	assert.Equal(t, "/etc/kreate/kubeconfig", cfg.Kubeconfig)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset keys keep their defaults")
	assert.Equal(t, config.OutputYAML, cfg.Output.Format)
	assert.Equal(t, 0, cfg.Output.Indent)
}

func TestLoaderMissingConfigFile(t *testing.T) {
	t.Parallel()

	loader := config.NewLoader("KREATE_TEST_MISSING")
	err := loader.Load(config.Default(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestLoaderEnvironment(t *testing.T) {
	t.Setenv("KREATE_TEST_ENV__LOG__FORMAT", "json")
	t.Setenv("KREATE_TEST_ENV__OUTPUT__INDENT", "4")
	t.Setenv("KREATE_TEST_ENV__TIMEOUT", "1m")

	loader := config.NewLoader("KREATE_TEST_ENV")
	require.NoError(t, loader.Load(config.Default(), filepath.Join("testdata", "config.yaml")))

	cfg, err := loader.Config()
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Output.Indent)
	assert.Equal(t, time.Minute, cfg.Timeout)
}

func TestLoaderFlags(t *testing.T) {
	t.Parallel()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.String("output", "json", "")
	flags.Duration("timeout", 0, "")
	flags.Bool("unmapped", false, "")

	require.NoError(t, flags.Parse([]string{"--output", "jsonschema", "--unmapped"}))

	loader := config.NewLoader("KREATE_TEST_FLAGS")
	require.NoError(t, loader.Load(config.Default(), filepath.Join("testdata", "config.yaml")))
	require.NoError(t, loader.LoadFlags(flags, map[string]string{
		"log-level": "log.level",
		"output":    "output.format",
		"timeout":   "timeout",
	}))

	cfg, err := loader.Config()
	require.NoError(t, err)

	assert.Equal(t, config.OutputJSONSchema, cfg.Output.Format)
	assert.Equal(t, "debug", cfg.Log.Level, "flags left at their default do not override the file")
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoaderValidation(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		path  string
		flags []string
	}{
		"invalid output format in file": {
			path: filepath.Join("testdata", "invalid.yaml"),
		},
		"invalid log level flag": {
			flags: []string{"--log-level", "verbose"},
		},
		"negative indent flag": {
			flags: []string{"--indent=-1"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags.String("log-level", "info", "")
			flags.Int("indent", 2, "")
			require.NoError(t, flags.Parse(tc.flags))

			loader := config.NewLoader("KREATE_TEST_VALIDATION")
			require.NoError(t, loader.Load(config.Default(), tc.path))
			require.NoError(t, loader.LoadFlags(flags, map[string]string{
				"log-level": "log.level",
				"indent":    "output.indent",
			}))

			_, err := loader.Config()
			require.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}
