// Package cli implements the clocktree command-line interface.
//
// The commands build a clock distribution tree from a topology file (or the
// built-in one), apply divider selections and present the result: as files,
// as a terminal table, in an interactive terminal view or on a web page. The
// CLI is built using cobra and logs with charmbracelet/log.
//
// # Commands
//
//   - render: Write SVG, PNG, JSON, DOT or node-link exports
//   - table: Print terminal frequencies
//   - serve: Host the interactive diagram in the browser
//   - tui: Explore divider settings in the terminal
//   - topology: Dump the built-in topology or validate files
//   - devconf: Read or write divider settings in a device config
//   - cache: Manage the artifact cache
//
// # Logging
//
// Logs go to stderr; status lines and data go to stdout. The level is
// --log-level (or CLOCKTREE_LOG_LEVEL, also read from a .env file), and
// --verbose (-v) is shorthand for debug. Commands find the logger in their
// context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clocktree/pkg/errors"
)

// envLogLevel names the environment variable that seeds --log-level.
const envLogLevel = "CLOCKTREE_LOG_LEVEL"

// newLogger returns a logger stamped with wall-clock time to the hundredth
// of a second, e.g. "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// logFlags are the persistent flags that pick the log level.
type logFlags struct {
	verbose bool
	level   string
}

func (f *logFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&f.level, "log-level", "", "log level: debug, info, warn, error (env "+envLogLevel+")")
	_ = cmd.RegisterFlagCompletionFunc("log-level", cobra.FixedCompletions(
		[]cobra.Completion{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp))
}

// resolve returns the level the flags ask for, or fallback when they ask for
// none. --verbose wins over --log-level.
func (f *logFlags) resolve(fallback log.Level, env string) (log.Level, error) {
	if f.verbose {
		return log.DebugLevel, nil
	}
	text := f.level
	if text == "" {
		text = env
	}
	if text == "" {
		return fallback, nil
	}
	level, err := log.ParseLevel(text)
	if err != nil {
		return fallback, errors.Wrap(errors.ErrCodeInvalidInput, err, "log level %q", text)
	}
	return level, nil
}

// progress logs how long a step took once it is done.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Exported 2 format(s) (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default() outside of one.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
