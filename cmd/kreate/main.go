// Package main provides the CLI entry point for kreate, a tool that resolves
// the OpenAPI v3 schema of Kubernetes manifests against a live cluster and
// maps YAML cursor positions to document paths.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"go.jacobcolvin.com/kreate/config"
	"go.jacobcolvin.com/kreate/kubeconfig"
	"go.jacobcolvin.com/kreate/kubeschema"
	"go.jacobcolvin.com/kreate/log"
	"go.jacobcolvin.com/kreate/openapiv3"
	"go.jacobcolvin.com/kreate/version"
	"go.jacobcolvin.com/kreate/yamlpath"
)

var (
	// ErrReadInput indicates that an input file could not be read.
	ErrReadInput = errors.New("read input")
	// ErrWriteOutput indicates that a result could not be written.
	ErrWriteOutput = errors.New("write output")
	// ErrInvalidPosition indicates missing or conflicting position flags.
	ErrInvalidPosition = errors.New("invalid position")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cli holds state shared by all commands.
type cli struct {
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	logCfg     *log.Config
	cfg        *config.Config
	configPath string
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logCfg: log.NewConfig(),
	}

	defaults := config.Default()

	rootCmd := &cobra.Command{
		Use:   "kreate",
		Short: "Resolve Kubernetes manifest schemas and YAML paths",
		Long: `kreate looks up the OpenAPI v3 schema of a Kubernetes manifest on the
cluster selected by your kubeconfig, and maps cursor positions in YAML files
to document paths such as spec.template.spec.containers.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "path to a YAML config file")
	flags.String("kubeconfig", defaults.Kubeconfig, "path to the kubeconfig file")
	flags.String("context", defaults.Context, "kubeconfig context to use")
	flags.Duration("timeout", defaults.Timeout, "timeout for cluster requests, 0 to disable")
	flags.StringP("output", "o", defaults.Output.Format,
		fmt.Sprintf("output format, one of: %s", strings.Join(outputFormats(), ", ")))
	flags.Int("indent", defaults.Output.Indent, "JSON indentation, 0 for automatic")
	c.logCfg.RegisterFlags(flags)

	err := rootCmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(outputFormats(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		fmt.Fprintf(stderr, "register completions: %v\n", err)
	}

	err = c.logCfg.RegisterCompletions(rootCmd)
	if err != nil {
		fmt.Fprintf(stderr, "register completions: %v\n", err)
	}

	rootCmd.AddCommand(
		c.newSchemaCmd(),
		c.newPathCmd(),
		c.newIndexCmd(),
		c.newVersionCmd(),
	)

	return rootCmd
}

func outputFormats() []string {
	return []string{config.OutputJSON, config.OutputYAML, config.OutputJSONSchema}
}

// setup merges configuration sources and installs the default logger.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	loader := config.NewLoader(config.EnvPrefix)

	err := loader.Load(config.Default(), c.configPath)
	if err != nil {
		return err
	}

	mappings := map[string]string{
		"kubeconfig": "kubeconfig",
		"context":    "context",
		"timeout":    "timeout",
		"output":     "output.format",
		"indent":     "output.indent",
	}
	for flag, key := range c.logCfg.FlagMappings("log") {
		mappings[flag] = key
	}

	err = loader.LoadFlags(cmd.Flags(), mappings)
	if err != nil {
		return err
	}

	c.cfg, err = loader.Config()
	if err != nil {
		return err
	}

	c.logCfg.Level = c.cfg.Log.Level
	c.logCfg.Format = c.cfg.Log.Format

	handler, err := c.logCfg.NewHandler(c.stderr)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	klog.SetSlogLogger(logger)

	return nil
}

func (c *cli) newResolver() (*kubeschema.Resolver, *openapiv3.IndexCache) {
	source := &kubeconfig.Loader{
		Path:    c.cfg.Kubeconfig,
		Context: c.cfg.Context,
	}

	client := openapiv3.NewClient(openapiv3.WithUserAgent(version.Get().UserAgent("kreate")))
	index := openapiv3.NewIndexCache(source, openapiv3.WithClient(client))

	return kubeschema.NewResolver(source,
		kubeschema.WithClient(client),
		kubeschema.WithIndex(index),
	), index
}

func (c *cli) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, c.cfg.Timeout)
	}

	return context.WithCancel(ctx)
}

func (c *cli) newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <manifest.yaml|->",
		Short: "Print the OpenAPI v3 schema of a manifest",
		Long: `Print the OpenAPI v3 schema of the first document in a manifest, as served
by the active cluster. With --output jsonschema, the schema is converted to a
standalone JSON Schema (draft 7) including every schema it references.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSchema(cmd.Context(), args[0])
		},
	}
}

func (c *cli) runSchema(ctx context.Context, path string) error {
	data, err := c.readInput(path)
	if err != nil {
		return err
	}

	ctx, cancel := c.context(ctx)
	defer cancel()

	resolver, _ := c.newResolver()

	start := time.Now()

	result, err := kubeschema.NewReader(resolver).SchemaFromManifest(ctx, data)
	if err != nil {
		return err
	}

	slog.Info("resolved schema",
		slog.String("kind", result.Kind),
		slog.String("schema", result.Name),
		slog.Duration("took", time.Since(start)),
	)

	if c.cfg.Output.Format == config.OutputJSONSchema {
		js, err := kubeschema.ToJSONSchema(result)
		if err != nil {
			return err
		}

		return c.write(js)
	}

	return c.write(result.Schema)
}

func (c *cli) newPathCmd() *cobra.Command {
	var offset, line, column int

	cmd := &cobra.Command{
		Use:   "path <file.yaml|-> (--offset N | --line L --column C)",
		Short: "Print the YAML path at a position",
		Long: `Print the dot-separated path of the innermost YAML node at a position, e.g.
spec.template.spec.containers.0.image. Positions are byte offsets, or 1-based
lines with 1-based byte columns. Nothing is printed for positions outside
every node.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.runPath(args[0], offset, line, column)
		},
	}

	cmd.Flags().IntVar(&offset, "offset", -1, "0-based byte offset")
	cmd.Flags().IntVar(&line, "line", 0, "1-based line")
	cmd.Flags().IntVar(&column, "column", 1, "1-based byte column")

	return cmd
}

func (c *cli) runPath(path string, offset, line, column int) error {
	if (offset >= 0) == (line > 0) {
		return fmt.Errorf("%w: set exactly one of --offset or --line", ErrInvalidPosition)
	}

	data, err := c.readInput(path)
	if err != nil {
		return err
	}

	var segments []string

	if line > 0 {
		segments, err = yamlpath.PathAtLineColumn(data, line, column)
	} else {
		segments, err = yamlpath.PathAtOffset(data, offset)
	}

	if err != nil {
		return err
	}

	if len(segments) == 0 {
		return nil
	}

	_, err = fmt.Fprintln(c.stdout, strings.Join(segments, "."))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	return nil
}

func (c *cli) newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Print the cluster's OpenAPI v3 discovery index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd.Context())
			defer cancel()

			_, cache := c.newResolver()

			index, err := cache.Get(ctx)
			if err != nil {
				return err
			}

			return c.write(index)
		},
	}
}

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.write(version.Get())
		},
	}
}

func (c *cli) readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return nil, fmt.Errorf("%w: stdin: %w", ErrReadInput, err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	return data, nil
}
