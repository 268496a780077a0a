package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"stepgen/internal/blob"
	"stepgen/internal/core"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitStepErrors  = 2
	defaultLogLevel = "info"
)

// stepErrorsExit marks a run whose protocol had failing steps. The output
// has already been written; only the exit code is left to report.
type stepErrorsExit struct{ count int }

func (e stepErrorsExit) Error() string {
	return fmt.Sprintf("%d step error(s)", e.count)
}

// cli holds global flags and the streams commands write to.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	closer func() error

	logLevel  string
	logFile   string
	traceOut  string
	storage   core.StorageConfig
	artifacts blob.Config
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if c.closer != nil {
		_ = c.closer()
	}
	var stepErrs stepErrorsExit
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &stepErrs):
		return exitStepErrors
	default:
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}
}

func (c *cli) rootCommand() *cobra.Command {
	c.storage = core.StorageConfigFromEnv()
	c.artifacts = blob.ConfigFromEnv()

	root := &cobra.Command{
		Use:           "stepgen",
		Short:         "Simulate liquid-handling protocols into robot commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, closer, err := newLogger(c.stderr, c.logLevel, c.logFile)
			if err != nil {
				return err
			}
			c.logger, c.closer = logger, closer
			return nil
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.logLevel, "log-level", defaultLogLevel, "log level: debug|info|warn|error")
	flags.StringVar(&c.logFile, "log-file", "", "also write JSON logs to this file")
	flags.StringVar(&c.traceOut, "trace-out", "", "write JSON-lines spans to this file")
	flags.StringVar((*string)(&c.storage.Driver), "storage", string(c.storage.Driver), "history backend: memory|sqlite|postgres")
	flags.StringVar(&c.storage.SQLitePath, "sqlite-path", c.storage.SQLitePath, "sqlite history file")
	flags.StringVar(&c.storage.PostgresDSN, "postgres-dsn", c.storage.PostgresDSN, "postgres history DSN")
	flags.StringVar((*string)(&c.artifacts.Driver), "blob-driver", string(c.artifacts.Driver), "artifact backend: fs|s3|memory")
	flags.StringVar(&c.artifacts.FSRoot, "blob-root", c.artifacts.FSRoot, "artifact directory when --blob-driver=fs")

	root.AddCommand(c.simulateCommand(), c.historyCommand(), c.watchCommand(), c.stepsCommand())
	return root
}

func (c *cli) stepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the registered protocol step types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, t := range core.NewDefaultStepRegistry().Types() {
				fmt.Fprintln(c.stdout, t)
			}
			return nil
		},
	}
}
