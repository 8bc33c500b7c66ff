package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Amr-9/VanityHunter/internal/config"
	"github.com/Amr-9/VanityHunter/internal/logger"
	"github.com/Amr-9/VanityHunter/internal/ui"
	"github.com/Amr-9/VanityHunter/pkg/batch"
	"github.com/Amr-9/VanityHunter/pkg/generator"
	"github.com/Amr-9/VanityHunter/pkg/generator/cpu"
)

const version = "1.0"

var (
	errTasksFailed = errors.New("one or more tasks failed")
	errInterrupted = errors.New("interrupted")
)

func main() {
	err := newRootCmd().Execute()
	switch {
	case err == nil:
	case errors.Is(err, errInterrupted):
		os.Exit(130)
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.NewConfig()
	envFile := os.Getenv(config.EnvPrefix + "ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	envErr := cfg.LoadEnv(envFile)

	cmd := &cobra.Command{
		Use:   "vanityhunter",
		Short: "Search for vanity addresses on Bitcoin, Litecoin, Dogecoin, Tron and EVM chains",
		Long: `VanityHunter generates random secp256k1 keys until the derived address
starts or ends with a pattern, and writes every match to a CSV file.

Run without task flags for an interactive search, with --currency and
--prefix or --suffix for a single task, or with --config for a batch file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if envErr != nil {
				return envErr
			}
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.ConfigFile, "config", "c", cfg.ConfigFile, "batch task file (CSV)")
	f.StringVar(&cfg.Currency, "currency", cfg.Currency, "BTC, LTC, DOGE, TRX, ETH, BSC, MATIC, ARB or OP")
	f.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "address prefix to search for")
	f.StringVar(&cfg.Suffix, "suffix", cfg.Suffix, "address suffix to search for")
	f.IntVarP(&cfg.Count, "count", "n", cfg.Count, "matches to find, 0 runs until interrupted")
	f.BoolVarP(&cfg.IgnoreCase, "ignore-case", "i", cfg.IgnoreCase, "case-insensitive matching")
	f.IntVar(&cfg.Priority, "priority", cfg.Priority, "task priority 1-5")
	f.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "worker count, 0 sizes from difficulty")
	f.StringVarP(&cfg.OutputDir, "out", "o", cfg.OutputDir, "output directory")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	f.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "log JSON lines instead of console text")
	f.StringVar(&cfg.ScalarPolicy, "scalar-policy", cfg.ScalarPolicy, "out-of-range key handling: rejection or modreduce")
	f.BoolVarP(&cfg.AssumeYes, "yes", "y", cfg.AssumeYes, "start long-running tasks without asking")
	f.BoolVar(&cfg.HighPriority, "high-priority", cfg.HighPriority, "raise the process scheduling priority")
	return cmd
}

func interactive(cfg *config.Config) bool {
	return cfg.ConfigFile == "" && cfg.Currency == "" && cfg.Prefix == "" && cfg.Suffix == ""
}

func run(parent context.Context, cfg *config.Config, in io.Reader, out, errOut io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	if err := cfg.Validate(); err != nil && !(interactive(cfg) && errors.Is(err, config.ErrNoTaskSpecified)) {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	log := logger.NewWriter(errOut, level, !cfg.LogJSON)

	if cfg.HighPriority {
		if err := raisePriority(); err != nil {
			log.Warn().Err(err).Msg("Could not raise process priority")
		}
	}

	opts, err := cfg.EngineOptions(log)
	if err != nil {
		return err
	}

	ui.PrintWelcomeBanner(out, version)
	prompter := ui.NewPrompter(in, out)

	var progress *ui.Progress
	runner := &batch.Runner{
		OutputDir: cfg.OutputDir,
		Options:   opts,
		Log:       log,
		OnStart: func(_ int, task generator.Task, e *cpu.Engine) {
			progress = ui.Track(errOut, e, task)
		},
	}
	finish := func(_ int, res batch.Result) {
		if progress != nil {
			progress.Stop()
			progress = nil
		}
		ui.PrintResult(out, res)
	}
	runner.OnFinish = finish
	if !cfg.AssumeYes {
		runner.Confirm = prompter.ConfirmLongTask
	}

	if interactive(cfg) {
		return runInteractive(parent, runner, prompter, finish)
	}

	var tasks []generator.Task
	if cfg.IsBatch() {
		loaded, diags, err := batch.LoadFile(cfg.ConfigFile)
		if err != nil {
			return err
		}
		ui.PrintDiagnostics(out, diags)
		tasks = loaded
	} else {
		task, err := cfg.SingleTask()
		if err != nil {
			return err
		}
		tasks = []generator.Task{task}
	}
	if len(tasks) == 0 {
		return errors.New("no valid tasks")
	}
	ui.PrintTaskPlan(out, tasks)
	log.Info().Str("target", cfg.GetTargetDescription()).Int("tasks", len(tasks)).Msg("Starting")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := runner.Run(ctx, tasks)
	if len(tasks) > 1 {
		ui.PrintBatchSummary(out, results, len(tasks))
	}
	return exitStatus(results, len(tasks))
}

// runInteractive asks for one task at a time. Each search gets its own
// signal context so an interrupt ends the search, not the program.
func runInteractive(parent context.Context, runner *batch.Runner, prompter *ui.Prompter, finish func(int, batch.Result)) error {
	for {
		task, err := prompter.AskTask()
		if err != nil {
			return nil
		}

		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		res := runner.RunTask(ctx, task)
		stop()
		finish(0, res)

		if parent.Err() != nil || !prompter.AskToContinue() {
			return nil
		}
	}
}

func exitStatus(results []batch.Result, total int) error {
	interrupted := len(results) < total
	for _, r := range results {
		switch r.Status {
		case batch.StatusFailed:
			return errTasksFailed
		case batch.StatusInterrupted:
			interrupted = true
		}
	}
	if interrupted {
		return errInterrupted
	}
	return nil
}
