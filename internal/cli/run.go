package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GabrielNunesIT/go-libs/logger"
	"github.com/GabrielNunesIT/pdd/internal/arguments"
	"github.com/GabrielNunesIT/pdd/internal/config"
	"github.com/GabrielNunesIT/pdd/internal/engine"
	"github.com/GabrielNunesIT/pdd/internal/model"
	"github.com/GabrielNunesIT/pdd/internal/sequencer"
)

// NewRunCmd creates the run command.
func NewRunCmd(cfgFile, logLevel *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] if=PATH of=PATH... [-- if=PATH ...]",
		Short: "Run one or more copy operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperations(cmd, operationArgs(cmd, args), *cfgFile, *logLevel)
		},
	}

	// Engine flags
	cmd.Flags().Int("queue-depth", 0, "blocks buffered per sink")
	cmd.Flags().Bool("drop-on-full", false, "skip blocks for sinks whose queue is full instead of waiting")
	cmd.Flags().Duration("shutdown-timeout", 0, "time sinks get to drain after interruption")

	// Input flags
	cmd.Flags().Duration("follow-idle", 0, "end a redirected input after this long without new data (0 follows until interrupted)")

	// Sequencer flags
	cmd.Flags().IntP("parallel", "p", 0, "operations to run at once")

	// Report flags
	cmd.Flags().StringP("output", "o", "text", "summary format (text, json)")
	cmd.Flags().Bool("strict", false, "exit non-zero when any sink failed or missed blocks")

	return cmd
}

// operationArgs restores the first separator, which cobra consumes as the
// end of flags.
func operationArgs(cmd *cobra.Command, args []string) []string {
	dash := cmd.ArgsLenAtDash()
	if dash <= 0 {
		return args
	}

	out := make([]string, 0, len(args)+1)
	out = append(out, args[:dash]...)
	out = append(out, arguments.Separator)
	return append(out, args[dash:]...)
}

func runOperations(cmd *cobra.Command, args []string, cfgFile, logLevel string) error {
	format, _ := cmd.Flags().GetString("output")
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unknown output format %q", format)
	}

	ops, err := arguments.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyCLIOverrides(cmd, cfg)
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := checkLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	// Arguments are valid from here on; failures are reported, not usage errors.
	cmd.SilenceUsage = true

	log := SetupLogging(cfg.LogLevel, cmd.ErrOrStderr())
	log.Infof("starting pdd: operations=%d, parallel=%d, queue_depth=%d, drop_on_full=%t",
		len(ops), cfg.Sequencer.Parallel, cfg.Engine.QueueDepth, cfg.Engine.DropOnFullQueue)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go handleSignals(ctx, cancel, sigChan, log)

	eng := engine.New(cfg, log)
	seq := sequencer.New(eng, log, sequencer.WithParallel(cfg.Sequencer.Parallel))
	summary := seq.Run(ctx, ops)

	strict, _ := cmd.Flags().GetBool("strict")
	if err := render(reportWriter(cmd, ops), format, summary); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	return summary.Err(strict)
}

func handleSignals(ctx context.Context, cancel context.CancelFunc, sigChan <-chan os.Signal, log logger.ILogger) {
	select {
	case sig := <-sigChan:
		log.Infof("received shutdown signal: %v", sig)
		cancel()
	case <-ctx.Done():
	}
}

// reportWriter keeps the summary off standard output when a sink writes there.
func reportWriter(cmd *cobra.Command, ops []model.Operation) io.Writer {
	for _, op := range ops {
		for _, s := range op.Sinks {
			if fs, ok := s.(model.FileSpec); ok && fs.Path == model.StdioPath {
				return cmd.ErrOrStderr()
			}
		}
	}
	return cmd.OutOrStdout()
}

func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("queue-depth") {
		cfg.Engine.QueueDepth, _ = flags.GetInt("queue-depth")
	}
	if flags.Changed("drop-on-full") {
		cfg.Engine.DropOnFullQueue, _ = flags.GetBool("drop-on-full")
	}
	if flags.Changed("shutdown-timeout") {
		cfg.Engine.ShutdownTimeout, _ = flags.GetDuration("shutdown-timeout")
	}
	if flags.Changed("follow-idle") {
		cfg.Input.FollowIdleTimeout, _ = flags.GetDuration("follow-idle")
	}
	if flags.Changed("parallel") {
		cfg.Sequencer.Parallel, _ = flags.GetInt("parallel")
	}
}
