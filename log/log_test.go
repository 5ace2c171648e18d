package log_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/kreate/log"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]log.Level{
		"error":   log.LevelError,
		"warning": log.LevelWarn,
		"INFO":    log.LevelInfo,
		"debug":   log.LevelDebug,
	} {
		got, err := log.ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := log.ParseLevel("trace")
	require.ErrorIs(t, err, log.ErrUnknownLogLevel)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	got, err := log.ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, log.FormatJSON, got)

	_, err = log.ParseFormat("xml")
	require.ErrorIs(t, err, log.ErrUnknownLogFormat)
}

func TestNewHandler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		level  log.Level
		format log.Format
		want   []string
	}{
		"json": {
			level:  log.LevelInfo,
			format: log.FormatJSON,
			want:   []string{`"level":"INFO"`, `"msg":"resolved schema"`, `"kind":"Deployment"`},
		},
		"logfmt": {
			level:  log.LevelInfo,
			format: log.FormatLogfmt,
			want:   []string{"level=INFO", `msg="resolved schema"`, "kind=Deployment"},
		},
		"text": {
			level:  log.LevelInfo,
			format: log.FormatText,
			want:   []string{"INFO", "resolved schema", "kind=Deployment"},
		},
		"debug level keeps debug records": {
			level:  log.LevelDebug,
			format: log.FormatJSON,
			want:   []string{`"msg":"cache hit"`, `"msg":"resolved schema"`},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			logger := slog.New(log.NewHandler(&buf, tc.level, tc.format))
			logger.Debug("cache hit")
			logger.Info("resolved schema", slog.String("kind", "Deployment"))

			for _, want := range tc.want {
				assert.Contains(t, buf.String(), want)
			}

			if tc.level != log.LevelDebug {
				assert.NotContains(t, buf.String(), "cache hit")
			}
		})
	}
}

func TestNewHandlerFromStringsErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err    error
		level  string
		format string
	}{
		"unknown level": {
			level:  "trace",
			format: "json",
			err:    log.ErrUnknownLogLevel,
		},
		"unknown format": {
			level:  "info",
			format: "xml",
			err:    log.ErrUnknownLogFormat,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := log.NewHandlerFromStrings(&bytes.Buffer{}, tc.level, tc.format)
			require.ErrorIs(t, err, log.ErrInvalidArgument)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestConfig(t *testing.T) {
	t.Parallel()

	cfg := log.NewConfig()
	cmd := &cobra.Command{Use: "kreate"}
	cfg.RegisterFlags(cmd.Flags())
	require.NoError(t, cfg.RegisterCompletions(cmd))

	t.Run("completions", func(t *testing.T) {
		t.Parallel()

		for flag, want := range map[string][]string{
			"log-level":  log.GetAllLevelStrings(),
			"log-format": log.GetAllFormatStrings(),
		} {
			complete, ok := cmd.GetFlagCompletionFunc(flag)
			require.True(t, ok, flag)

			got, directive := complete(cmd, nil, "")
			assert.Equal(t, want, got)
			assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
		}
	})

	t.Run("flag mappings", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, map[string]string{
			"log-level":  "log.level",
			"log-format": "log.format",
		}, cfg.FlagMappings("log"))
	})
}

func TestConfigNewHandler(t *testing.T) {
	t.Parallel()

	cfg := log.NewConfig()
	cmd := &cobra.Command{Use: "kreate"}
	cfg.RegisterFlags(cmd.Flags())

	require.NoError(t, cmd.Flags().Parse([]string{"--log-format", "json", "--log-level", "debug"}))

	var buf bytes.Buffer

	handler, err := cfg.NewHandler(&buf)
	require.NoError(t, err)

	slog.New(handler).Debug("visible")
	assert.Contains(t, buf.String(), `"msg":"visible"`)
}

func TestConfigCustomFlags(t *testing.T) {
	t.Parallel()

	cfg := &log.Config{Flags: log.Flags{Level: "verbosity", Format: "log-format"}}

	assert.Equal(t, map[string]string{
		"verbosity":  "log.level",
		"log-format": "log.format",
	}, cfg.FlagMappings("log"))

	cfg.Level = "warn"
	cfg.Format = "logfmt"

	var buf bytes.Buffer

	handler, err := cfg.NewHandler(&buf)
	require.NoError(t, err)

	logger := slog.New(handler)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}
