package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/fskit/internal/dedup"
	"github.com/fenilsonani/fskit/internal/hunter"
	"github.com/fenilsonani/fskit/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat validates a format name from the command line
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use summary, table, json or yaml)", s)
	}
}

// Reporter handles report generation
type Reporter struct {
	writer  io.Writer
	format  OutputFormat
	preview bool
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
	}
}

// WithPreview makes the summary format include content previews
func (r *Reporter) WithPreview(preview bool) *Reporter {
	r.preview = preview
	return r
}

// Report generates a report from a duplicate scan
func (r *Reporter) Report(result *dedup.Result) error {
	switch r.format {
	case FormatTable:
		return r.reportTable(result)
	case FormatJSON:
		return r.reportJSON(result)
	case FormatYAML:
		return r.reportYAML(result)
	case FormatSummary:
		return r.reportSummary(result)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// reportSummary prints the numbered listing followed by totals
func (r *Reporter) reportSummary(result *dedup.Result) error {
	if err := dedup.WriteGroups(r.writer, result, r.preview); err != nil {
		return err
	}
	if result.HasGroups() {
		fmt.Fprintf(r.writer, "\n=== Duplicate Summary ===\n")
		fmt.Fprintf(r.writer, "Groups: %d\n", len(result.Groups))
		fmt.Fprintf(r.writer, "Duplicate files: %d\n", result.DuplicateCount())
		fmt.Fprintf(r.writer, "Reclaimable: %s\n", utils.FormatBytes(result.Reclaimable()))
	}

	r.writeSkipped(result)
	return nil
}

// writeSkipped lists the directories the scan could not read
func (r *Reporter) writeSkipped(result *dedup.Result) {
	if len(result.Skipped) == 0 {
		return
	}
	fmt.Fprintf(r.writer, "\nSkipped directories: %d\n", len(result.Skipped))
	for _, s := range result.Skipped {
		fmt.Fprintf(r.writer, "  %s: %v\n", s.Path, s.Err)
	}
}

// reportTable prints one row per group member
func (r *Reporter) reportTable(result *dedup.Result) error {
	if !result.HasGroups() {
		fmt.Fprintln(r.writer, result.Message())
		r.writeSkipped(result)
		return nil
	}

	rule := strings.Repeat("-", 110)
	fmt.Fprintf(r.writer, "%-5s | %-10s | %-12s | %s\n", "Group", "Hash", "Size", "Path")
	fmt.Fprintln(r.writer, rule)

	for i, g := range result.Groups {
		for j, path := range g.Files {
			group, hash := "", ""
			if j == 0 {
				group = fmt.Sprintf("%d", i+1)
				hash = g.Digest[:8]
			}
			fmt.Fprintf(r.writer, "%-5s | %-10s | %-12s | %s\n",
				group, hash, utils.FormatBytes(g.Size), truncate(path, 72))
		}
	}

	fmt.Fprintf(r.writer, "%s\n", rule)
	fmt.Fprintf(r.writer, "Total: %d groups, %d duplicates, %s reclaimable\n",
		len(result.Groups), result.DuplicateCount(), utils.FormatBytes(result.Reclaimable()))

	return nil
}

type document struct {
	Timestamp            string        `json:"timestamp" yaml:"timestamp"`
	Root                 string        `json:"root" yaml:"root"`
	Outcome              string        `json:"outcome" yaml:"outcome"`
	Message              string        `json:"message" yaml:"message"`
	Groups               []dedup.Group `json:"groups" yaml:"groups"`
	DuplicateFiles       int           `json:"duplicate_files" yaml:"duplicate_files"`
	Reclaimable          int64         `json:"reclaimable" yaml:"reclaimable"`
	ReclaimableFormatted string        `json:"reclaimable_formatted" yaml:"reclaimable_formatted"`
	Stats                dedup.Stats   `json:"stats" yaml:"stats"`
	Skipped              []string      `json:"skipped" yaml:"skipped"`
}

func newDocument(result *dedup.Result) document {
	doc := document{
		Timestamp:            time.Now().Format(time.RFC3339),
		Root:                 result.Root,
		Outcome:              result.Kind.String(),
		Message:              result.Message(),
		Groups:               result.Groups,
		DuplicateFiles:       result.DuplicateCount(),
		Reclaimable:          result.Reclaimable(),
		ReclaimableFormatted: utils.FormatBytes(result.Reclaimable()),
		Stats:                result.Stats,
		Skipped:              make([]string, 0, len(result.Skipped)),
	}
	if doc.Groups == nil {
		doc.Groups = []dedup.Group{}
	}
	for _, s := range result.Skipped {
		doc.Skipped = append(doc.Skipped, s.Path)
	}
	return doc
}

// reportJSON generates a JSON report
func (r *Reporter) reportJSON(result *dedup.Result) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newDocument(result))
}

// reportYAML generates a YAML report
func (r *Reporter) reportYAML(result *dedup.Result) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(newDocument(result))
}

// ReportMatches renders hunter results. info adds modification time and size.
func (r *Reporter) ReportMatches(matches []hunter.Match, info bool) error {
	switch r.format {
	case FormatJSON:
		encoder := json.NewEncoder(r.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(matchDocument(matches))
	case FormatYAML:
		encoder := yaml.NewEncoder(r.writer)
		defer encoder.Close()
		return encoder.Encode(matchDocument(matches))
	case FormatTable:
		fmt.Fprintf(r.writer, "%-19s | %-12s | %s\n", "Modified", "Size", "Path")
		fmt.Fprintln(r.writer, strings.Repeat("-", 100))
		for _, m := range matches {
			fmt.Fprintf(r.writer, "%-19s | %-12s | %s\n",
				m.ModTime.Format("2006-01-02 15:04:05"), utils.FormatBytes(m.Size), m.Path)
		}
	case FormatSummary:
		for _, m := range matches {
			if info {
				fmt.Fprintf(r.writer, "%s (modified=%s, size=%s)\n",
					m.Path, m.ModTime.Format("2006-01-02 15:04:05"), utils.FormatBytes(m.Size))
			} else {
				fmt.Fprintln(r.writer, m.Path)
			}
		}
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}

	fmt.Fprintf(r.writer, "Files found: %d\n", len(matches))
	return nil
}

func matchDocument(matches []hunter.Match) any {
	if matches == nil {
		matches = []hunter.Match{}
	}
	return struct {
		Timestamp string         `json:"timestamp" yaml:"timestamp"`
		Count     int            `json:"count" yaml:"count"`
		Files     []hunter.Match `json:"files" yaml:"files"`
	}{
		Timestamp: time.Now().Format(time.RFC3339),
		Count:     len(matches),
		Files:     matches,
	}
}

func truncate(path string, max int) string {
	if len(path) <= max {
		return path
	}
	return "..." + path[len(path)-max+3:]
}

// SaveToFile saves the report to a file
func SaveToFile(result *dedup.Result, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reporter := New(file, format)
	return reporter.Report(result)
}
