package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/fskit/internal/hunter"
	"github.com/fenilsonani/fskit/internal/reporter"
)

var (
	huntPatterns []string
	huntIgnore   []string
	huntMinSize  string
	huntDate     string
	huntDateMode string
	huntInfo     bool
)

var huntCmd = &cobra.Command{
	Use:   "hunt [path]",
	Short: "Search for files by pattern, size and date",
	Long: `Walks a directory tree and lists the files whose names match any of
the glob patterns, optionally filtered by minimum size and modification
date.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		flags := cmd.Flags()
		if flags.Changed("pattern") {
			cfg.Hunt.Patterns = huntPatterns
		}
		if flags.Changed("ignore") {
			cfg.Hunt.Ignore = huntIgnore
		}
		if flags.Changed("min-size") {
			cfg.Hunt.MinSize = huntMinSize
		}
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

		minSize, _ := cfg.Hunt.MinSizeBytes()
		opts := hunter.Options{
			Patterns: cfg.Hunt.Patterns,
			Ignore:   cfg.Hunt.Ignore,
			MinSize:  minSize,
			Logger:   log,
		}
		if huntDate != "" {
			if opts.Date, err = hunter.ParseDate(huntDate, huntDateMode); err != nil {
				return err
			}
		}

		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		h, err := hunter.New(root, opts)
		if err != nil {
			return err
		}

		return reporter.New(os.Stdout, format).ReportMatches(h.Search(), huntInfo)
	},
}

func init() {
	huntCmd.Flags().StringSliceVarP(&huntPatterns, "pattern", "p", nil, "glob patterns matched against file names")
	huntCmd.Flags().StringSliceVar(&huntIgnore, "ignore", nil, "directory names to skip")
	huntCmd.Flags().StringVar(&huntMinSize, "min-size", "", "skip files smaller than this (e.g. 1KB, 10MB)")
	huntCmd.Flags().StringVar(&huntDate, "date", "", "modification day, YYYY-MM-DD")
	huntCmd.Flags().StringVar(&huntDateMode, "date-mode", "on", "compare --date with before, after or on")
	huntCmd.Flags().BoolVar(&huntInfo, "info", false, "show modification time and size")
	huntCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
}
