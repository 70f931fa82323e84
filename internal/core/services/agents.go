package services

import (
	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driven"
)

// Field domains are statically partitioned: each field name belongs to
// exactly one agent, fixed at registration.

// basicInfoFields cover the tender's identifying facts.
var basicInfoFields = []FieldSpec{
	{Name: "project_name", Label: "项目名称", Query: "项目名称 招标项目"},
	{Name: "tender_number", Label: "招标编号", Query: "招标编号 项目编号"},
	{Name: "budget_amount", Label: "预算金额", Query: "预算金额 采购金额", Hint: "包含币种"},
	{Name: "bid_deadline", Label: "投标截止时间", Query: "投标截止时间 递交投标文件截止时间", Hint: "具体日期和时间"},
	{Name: "bid_opening_time", Label: "开标时间", Query: "开标时间 开标地点", Hint: "具体日期和时间"},
	{Name: "bid_bond_amount", Label: "投标保证金金额", Query: "投标保证金", Hint: "包含币种"},
	{Name: "purchaser_name", Label: "采购人名称", Query: "采购人 招标人"},
	{Name: "agent_name", Label: "采购代理机构名称", Query: "采购代理机构 招标代理"},
}

// scoringFields cover the evaluation method and score composition.
var scoringFields = []FieldSpec{
	{Name: "evaluation_method", Label: "评标方法", Query: "评标办法 评标方法 综合评分法"},
	{Name: "technical_score", Label: "技术分占比", Query: "技术分 分值构成 评分标准"},
	{Name: "commercial_score", Label: "商务分占比", Query: "商务分 分值构成 评分标准"},
	{Name: "price_score", Label: "价格分占比", Query: "价格分 评标基准价", Hint: "含计算方法"},
	{Name: "bonus_points", Label: "加分项", Query: "加分 优惠 鼓励"},
	{Name: "disqualification_clauses", Label: "否决项条款", Query: "否决 无效投标 废标条件"},
}

// otherTermsFields cover contract terms and risk items.
var otherTermsFields = []FieldSpec{
	{Name: "contract_terms", Label: "合同主要条款", Query: "合同条款 合同约定 特殊约定"},
	{Name: "payment_terms", Label: "付款方式与周期", Query: "付款方式 付款条件 付款周期"},
	{Name: "delivery_requirements", Label: "交付要求", Query: "交付期限 完成时间 服务期限"},
	{Name: "bid_validity", Label: "投标有效期", Query: "投标有效期"},
	{Name: "intellectual_property", Label: "知识产权归属", Query: "知识产权 专利权 成果归属"},
	{Name: "confidentiality", Label: "保密要求", Query: "保密协议 保密条款"},
	{Name: "risk_warnings", Label: "潜在风险提示", Query: "违约责任 赔偿 罚款 特殊要求"},
}

// DefaultAgents returns the standard agent set: basic info, scoring
// criteria and other terms, in fixed registration order.
func DefaultAgents(planner *RetrievalPlanner, llm driven.LLMService, cfg domain.Config) []*ExtractionAgent {
	return []*ExtractionAgent{
		NewExtractionAgent("basic-info", "基础信息", basicInfoFields, planner, llm, cfg),
		NewExtractionAgent("scoring-criteria", "评分标准", scoringFields, planner, llm, cfg),
		NewExtractionAgent("other-terms", "其他重要信息", otherTermsFields, planner, llm, cfg),
	}
}
