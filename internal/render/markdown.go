// Package render turns aggregated analysis reports into output formats.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
)

// statusLabels maps agent statuses to report wording.
var statusLabels = map[domain.AgentStatus]string{
	domain.AgentSucceeded: "succeeded",
	domain.AgentPartial:   "partial",
	domain.AgentFailed:    "failed",
}

// Markdown renders the report as a Markdown document with one section
// per extraction category and a trailing status manifest.
func Markdown(report *domain.AggregatedReport) string {
	var b strings.Builder

	title := report.DocumentTitle
	if title == "" {
		title = report.DocumentID
	}
	fmt.Fprintf(&b, "# 招标文件分析报告：%s\n\n", title)
	fmt.Fprintf(&b, "生成时间：%s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))

	for _, cat := range report.Categories {
		fmt.Fprintf(&b, "## %s\n\n", cat.Category)
		for _, field := range cat.Fields {
			writeField(&b, field)
		}
	}

	b.WriteString("## 分析状态\n\n")
	names := make([]string, 0, len(report.Manifest))
	for name := range report.Manifest {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %s\n", name, statusLabels[report.Manifest[name]])
	}

	return b.String()
}

// writeField renders one extracted field as a definition block.
func writeField(b *strings.Builder, field domain.ExtractionField) {
	fmt.Fprintf(b, "### %s\n\n", field.Label)

	switch field.Status {
	case domain.FieldFound:
		fmt.Fprintf(b, "%s\n\n", field.Value)
		if field.Confidence > 0 {
			fmt.Fprintf(b, "置信度：%.2f\n\n", field.Confidence)
		}
		if field.Citation != nil && field.Citation.Text != "" {
			fmt.Fprintf(b, "> 原文依据：%s\n\n", field.Citation.Text)
		}
	case domain.FieldNotFound:
		b.WriteString("未在文档中找到。\n\n")
	default:
		b.WriteString("提取失败，信息不可用。\n\n")
	}
}
