package log

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags names the command-line flags bound by [Config].
type Flags struct {
	Level  string
	Format string
}

// DefaultFlags are the flag names used by [NewConfig].
var DefaultFlags = Flags{
	Level:  "log-level",
	Format: "log-format",
}

// Config binds a command's log flags and builds its [Handler].
//
// Level and Format hold flag values once parsed; callers that merge other
// configuration sources may overwrite them before calling [Config.NewHandler].
type Config struct {
	Flags  Flags
	Level  string
	Format string
}

// NewConfig returns a [Config] using [DefaultFlags], at [LevelInfo] with
// [FormatText].
func NewConfig() *Config {
	return &Config{
		Flags:  DefaultFlags,
		Level:  string(LevelInfo),
		Format: string(FormatText),
	}
}

// RegisterFlags adds the log flags to flags, defaulting to the current
// Level and Format.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Level, c.Flags.Level, c.Level,
		fmt.Sprintf("log level, one of: %s", GetAllLevelStrings()))
	flags.StringVar(&c.Format, c.Flags.Format, c.Format,
		fmt.Sprintf("log format, one of: %s", GetAllFormatStrings()))
}

// RegisterCompletions completes the log flags of cmd with the known level
// and format names.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	for flag, values := range map[string][]string{
		c.Flags.Level:  GetAllLevelStrings(),
		c.Flags.Format: GetAllFormatStrings(),
	} {
		err := cmd.RegisterFlagCompletionFunc(flag,
			cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
		if err != nil {
			return fmt.Errorf("register %s completion: %w", flag, err)
		}
	}

	return nil
}

// FlagMappings maps the log flag names to configuration keys under prefix,
// e.g. "log-level" to "log.level" for prefix "log".
func (c *Config) FlagMappings(prefix string) map[string]string {
	return map[string]string{
		c.Flags.Level:  prefix + ".level",
		c.Flags.Format: prefix + ".format",
	}
}

// NewHandler returns a [Handler] writing to w at the configured level and
// format. See [NewHandlerFromStrings].
func (c *Config) NewHandler(w io.Writer) (Handler, error) {
	return NewHandlerFromStrings(w, c.Level, c.Format)
}
