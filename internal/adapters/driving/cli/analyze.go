package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/render"
)

var (
	analyzeOutput string
	analyzeJSON   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a tender document",
	Long: `Runs the full extraction pipeline on a tender document.

Supported formats: .txt, .md, .pdf, .docx. The report is written as
Markdown next to the input file unless --output is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "report output path")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON instead of writing Markdown")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}

	ctx := context.Background()
	doc, err := docSource.LoadText(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	report, err := analyzer.Analyze(ctx, doc)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if analyzeJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outPath := analyzeOutput
	if outPath == "" {
		base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
		outPath = base + ".report.md"
	}
	if err := os.WriteFile(outPath, []byte(render.Markdown(report)), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	printSummary(cmd, report, outPath)
	return nil
}

// Summary styling.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// printSummary renders a per-agent status table to the terminal.
func printSummary(cmd *cobra.Command, report *domain.AggregatedReport, outPath string) {
	cmd.Println(titleStyle.Render("Analysis complete: " + report.DocumentTitle))
	cmd.Println()

	for _, cat := range report.Categories {
		found := 0
		for _, f := range cat.Fields {
			if f.Status == domain.FieldFound {
				found++
			}
		}
		status := report.Manifest[cat.Agent]
		cmd.Printf("  %s %s (%d/%d fields)\n",
			statusBadge(status), cat.Category, found, len(cat.Fields))
	}

	cmd.Println()
	cmd.Println(mutedStyle.Render("Report written to " + outPath))
}

// statusBadge colours an agent status for the summary.
func statusBadge(status domain.AgentStatus) string {
	switch status {
	case domain.AgentSucceeded:
		return successStyle.Render("✓")
	case domain.AgentPartial:
		return partialStyle.Render("~")
	default:
		return failedStyle.Render("✗")
	}
}
