package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fenilsonani/fskit/internal/config"
	"github.com/fenilsonani/fskit/internal/console"
	"github.com/fenilsonani/fskit/internal/dedup"
	"github.com/fenilsonani/fskit/internal/history"
	"github.com/fenilsonani/fskit/internal/metrics"
	"github.com/fenilsonani/fskit/internal/progress"
	"github.com/fenilsonani/fskit/internal/reporter"
	"github.com/fenilsonani/fskit/internal/ui"
)

var (
	dedupMinSize     string
	dedupIgnore      []string
	dedupPreview     bool
	dedupAction      string
	dedupInteractive bool
	dedupWorkers     int
	dedupMetricsFile string
	dedupNoHistory   bool
)

var dedupCmd = &cobra.Command{
	Use:   "dedup [path]",
	Short: "Find and remove duplicate files",
	Long: `Scans a directory tree, groups files with identical content and
optionally removes the extra copies. The path defaults to the current
directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyDedupFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		format, err := reporter.ParseFormat(outputFmt)
		if err != nil {
			return err
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Close()

		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		minSize, _ := cfg.Dedup.MinSizeBytes()

		opts := dedup.Options{
			MinSize:        minSize,
			Ignore:         cfg.Dedup.Ignore,
			Workers:        cfg.Dedup.Workers,
			ProtectedPaths: cfg.Dedup.ProtectedPaths,
			Logger:         log,
			Progress:       progress.NewProgressReporter(),
			Metrics:        metrics.New(),
		}

		if cfg.History.Enabled {
			journal, err := openJournal(cfg)
			if err != nil {
				// The journal is a convenience; removals still work without it
				log.WithError(err).Warn("history disabled")
			} else {
				defer journal.Close()
				opts.Recorder = journal
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var live *ui.LiveProgress
		if verbose && ui.IsTerminal(os.Stderr) {
			live = ui.NewLiveProgress(os.Stderr)
			live.Follow(opts.Progress)
		}

		engine, err := dedup.New(ctx, root, opts)
		if live != nil {
			live.Stop()
		}
		if err != nil {
			return err
		}
		defer writeMetrics(opts.Metrics, cfg.Metrics.Textfile, log)

		result := engine.Duplicates()
		if outputFile != "" {
			if err := reporter.SaveToFile(result, outputFile, format); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Printf("Report saved to: %s\n", outputFile)
		} else {
			rptr := reporter.New(os.Stdout, format).WithPreview(cfg.Dedup.Preview)
			if err := rptr.Report(result); err != nil {
				return fmt.Errorf("failed to generate report: %w", err)
			}
		}

		if !result.HasGroups() {
			return nil
		}

		if dedupInteractive {
			if !ui.IsTerminal(os.Stdout) {
				return errors.New("--interactive needs a terminal")
			}
			removed, err := ui.RunReview(engine)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d files.\n", removed)
			return nil
		}

		return runAction(engine, cfg.Dedup.DefaultAction, log)
	},
}

func init() {
	dedupCmd.Flags().StringVar(&dedupMinSize, "min-size", "", "skip files smaller than this (e.g. 1KB, 10MB)")
	dedupCmd.Flags().StringSliceVar(&dedupIgnore, "ignore", nil, "names to skip; a trailing / marks a directory")
	dedupCmd.Flags().BoolVar(&dedupPreview, "preview", false, "show the first bytes of each group")
	dedupCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
	dedupCmd.Flags().StringVar(&outputFile, "file", "", "save report to file")
	dedupCmd.Flags().StringVar(&dedupAction, "action", "", "what to do with duplicates (ask, remove-all, save-first, save-last, none)")
	dedupCmd.Flags().BoolVarP(&dedupInteractive, "interactive", "i", false, "review groups in a full-screen view")
	dedupCmd.Flags().IntVar(&dedupWorkers, "workers", 0, "concurrent hashers (0 = auto)")
	dedupCmd.Flags().StringVar(&dedupMetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	dedupCmd.Flags().BoolVar(&dedupNoHistory, "no-history", false, "do not record removals in the journal")
}

func applyDedupFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("min-size") {
		cfg.Dedup.MinSize = dedupMinSize
	}
	if flags.Changed("ignore") {
		cfg.Dedup.Ignore = dedupIgnore
	}
	if flags.Changed("preview") {
		cfg.Dedup.Preview = dedupPreview
	}
	if flags.Changed("action") {
		cfg.Dedup.DefaultAction = dedupAction
	}
	if flags.Changed("workers") {
		cfg.Dedup.Workers = dedupWorkers
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.Textfile = dedupMetricsFile
	}
	if dedupNoHistory {
		cfg.History.Enabled = false
	}
	// Scripted output must not block on prompts
	if outputFile == "" && outputFmt != string(reporter.FormatSummary) && !flags.Changed("action") {
		cfg.Dedup.DefaultAction = config.ActionNone
	}
}

func runAction(engine console.Engine, action string, log logrus.FieldLogger) error {
	session := console.NewSession(engine, os.Stdin, os.Stdout, log)

	var policy console.Policy
	switch action {
	case config.ActionAsk:
		return session.Run()
	case config.ActionRemoveAll:
		policy = console.PolicyRemoveAll
	case config.ActionSaveFirst:
		policy = console.PolicySaveFirst
	case config.ActionSaveLast:
		policy = console.PolicySaveLast
	default:
		return nil
	}

	_, err := session.Apply(policy)
	return err
}

func openJournal(cfg *config.Config) (*history.Journal, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

func writeMetrics(c *metrics.Collector, path string, log logrus.FieldLogger) {
	if path == "" {
		return
	}
	if err := c.WriteTextfile(path); err != nil {
		log.WithError(err).WithField("path", path).Warn("failed to write metrics")
	}
}
