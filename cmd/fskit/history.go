package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/fskit/internal/history"
	"github.com/fenilsonani/fskit/pkg/utils"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent duplicate removals",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		journal, err := openJournal(cfg)
		if err != nil {
			return err
		}
		defer journal.Close()

		entries, err := journal.Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No removals recorded.")
			return nil
		}

		for _, e := range entries {
			line := fmt.Sprintf("%s  %-7s  %10s  %s",
				e.RemovedAt.Local().Format("2006-01-02 15:04:05"), e.Status, utils.FormatBytes(e.Size), e.Path)
			if e.Status == history.StatusFailed && e.Error != "" {
				line += "  (" + e.Error + ")"
			}
			fmt.Println(line)
		}

		files, bytes, err := journal.Totals()
		if err != nil {
			return err
		}
		fmt.Printf("\nTotal: %d files removed, %s freed\n", files, utils.FormatBytes(bytes))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "number of entries to show")
}
