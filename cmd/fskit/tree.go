package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/fskit/internal/outline"
)

var (
	treeIndent int
	treeForce  bool
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print or recreate directory outlines",
}

var treeViewCmd = &cobra.Command{
	Use:   "view [path]",
	Short: "Print a directory as an indented outline",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		text, err := outline.View(root)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

var treeCreateCmd = &cobra.Command{
	Use:   "create <root> [outline-file]",
	Short: "Create files and directories from an outline",
	Long: `Reads an indented outline (from a file, or stdin when omitted) and
creates it under root. Directories end with "/"; a file may carry a size in
bytes as "name (1024)". Existing files are skipped unless --force is set.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cmd.Flags().Changed("indent") {
			cfg.Tree.IndentUnit = treeIndent
		}
		if cmd.Flags().Changed("force") {
			cfg.Tree.Force = treeForce
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Close()

		var in io.Reader = os.Stdin
		if len(args) == 2 {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open outline: %w", err)
			}
			defer f.Close()
			in = f
		}

		items, err := outline.ParseReader(in, cfg.Tree.IndentUnit)
		if err != nil {
			return err
		}

		actions, err := outline.Create(args[0], items, cfg.Tree.Force, log)
		for _, a := range actions {
			fmt.Println(a)
		}
		return err
	},
}

func init() {
	treeCreateCmd.Flags().IntVar(&treeIndent, "indent", 2, "spaces per outline level")
	treeCreateCmd.Flags().BoolVar(&treeForce, "force", false, "overwrite existing files")

	treeCmd.AddCommand(treeViewCmd)
	treeCmd.AddCommand(treeCreateCmd)
}
