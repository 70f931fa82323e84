package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
)

func sampleReport() *domain.AggregatedReport {
	return &domain.AggregatedReport{
		DocumentID:    "abc123def456",
		DocumentTitle: "某市政务云采购项目",
		GeneratedAt:   time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
		Categories: []domain.CategoryResult{
			{
				Agent:    "basic-info",
				Category: "基础信息",
				Fields: []domain.ExtractionField{
					{
						Name:       "budget_amount",
						Label:      "预算金额",
						Value:      "人民币500万元整",
						Confidence: 0.92,
						Status:     domain.FieldFound,
						Citation: &domain.Citation{
							ChunkID: "chunk-1",
							Span:    domain.Span{Start: 10, End: 25},
							Text:    "预算金额：人民币500万元整",
						},
					},
					{
						Name:   "bid_deadline",
						Label:  "投标截止时间",
						Status: domain.FieldNotFound,
					},
				},
			},
			{
				Agent:    "scoring-criteria",
				Category: "评分标准",
				Fields: []domain.ExtractionField{
					{
						Name:   "technical_score_weight",
						Label:  "技术分权重",
						Status: domain.FieldUnavailable,
					},
				},
			},
		},
		Manifest: map[string]domain.AgentStatus{
			"scoring-criteria": domain.AgentFailed,
			"basic-info":       domain.AgentSucceeded,
		},
	}
}

func TestMarkdownFoundFieldWithCitation(t *testing.T) {
	out := Markdown(sampleReport())

	assert.Contains(t, out, "# 招标文件分析报告：某市政务云采购项目")
	assert.Contains(t, out, "生成时间：2026-03-15 10:30:00")
	assert.Contains(t, out, "## 基础信息")
	assert.Contains(t, out, "### 预算金额")
	assert.Contains(t, out, "人民币500万元整")
	assert.Contains(t, out, "置信度：0.92")
	assert.Contains(t, out, "> 原文依据：预算金额：人民币500万元整")
}

func TestMarkdownNotFoundAndUnavailableWording(t *testing.T) {
	out := Markdown(sampleReport())

	assert.Contains(t, out, "### 投标截止时间\n\n未在文档中找到。")
	assert.Contains(t, out, "### 技术分权重\n\n提取失败，信息不可用。")
}

func TestMarkdownManifestSortedByAgent(t *testing.T) {
	out := Markdown(sampleReport())

	assert.Contains(t, out, "## 分析状态")
	basic := strings.Index(out, "- basic-info: succeeded")
	scoring := strings.Index(out, "- scoring-criteria: failed")
	assert.Greater(t, basic, -1)
	assert.Greater(t, scoring, -1)
	assert.Less(t, basic, scoring)
}

func TestMarkdownTitleFallsBackToDocumentID(t *testing.T) {
	report := sampleReport()
	report.DocumentTitle = ""

	out := Markdown(report)

	assert.Contains(t, out, "# 招标文件分析报告：abc123def456")
}

func TestMarkdownFoundFieldWithoutConfidence(t *testing.T) {
	report := sampleReport()
	report.Categories[0].Fields[0].Confidence = 0

	out := Markdown(report)

	assert.NotContains(t, out, "置信度")
}
