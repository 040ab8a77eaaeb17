package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/gridcast/internal/cli"
	"github.com/okian/gridcast/internal/config"
	"github.com/okian/gridcast/pkg/logger"
	"github.com/okian/gridcast/pkg/metrics"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run bootstraps logging and configuration, executes the command line and
// returns the process exit code.
func run(args []string) int {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (.env -> defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return cli.ExitCommandError
	}

	// Logs go to stderr so reports on stdout stay machine-readable.
	if err := logger.Init(logger.WithWriter(os.Stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return cli.ExitCommandError
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logs: " + err.Error() + "\n")
		}
	}()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	root := cli.NewRootCommand(cfg, loggerInstance)
	root.SetArgs(args)
	err = cli.Execute(ctx, root)
	if err != nil {
		format, _ := root.PersistentFlags().GetString("format")
		formatter := &cli.OutputFormatter{Format: format, Writer: os.Stderr}
		if format == "json" {
			formatter.Writer = os.Stdout
		}
		_ = formatter.Error(err)
	}

	if cfg.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			loggerInstance.Error(ctx, "failed to write metrics file", logger.String("path", cfg.MetricsFile), logger.Error(werr))
		}
	}

	return cli.GetExitCode(err)
}
