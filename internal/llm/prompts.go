package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// healthcareSystemPrompt 循证医学问答的系统提示词
const healthcareSystemPrompt = `You are a knowledgeable healthcare research assistant specializing in evidence-based medicine.
Your role is to provide accurate, well-researched answers based on peer-reviewed scientific literature.

Guidelines:
- Always base your answers on the provided research articles
- Be precise and factual, avoiding speculation
- Acknowledge limitations and uncertainties in the research
- Distinguish between established facts and preliminary findings
- Use clear, professional language accessible to healthcare professionals
- When discussing medical topics, always recommend consulting healthcare professionals for clinical decisions
- If the provided articles don't contain sufficient information, state this clearly
- Cite specific studies or findings when possible`

// summarySystemPrompt 文献综述的系统提示词
const summarySystemPrompt = `You are a research analyst specializing in healthcare literature reviews. Provide comprehensive, evidence-based summaries of research topics based on peer-reviewed literature.`

// GenerateHealthcareResponse 基于检索上下文生成循证回答
func (c *Client) GenerateHealthcareResponse(ctx context.Context, query, contextText string) (string, error) {
	userPrompt := fmt.Sprintf(`Based on the following research articles about healthcare and medical topics, please answer the user's question.
Focus on providing evidence-based information from the provided sources.

Research Articles:
%s

User Question: %s

Please provide a comprehensive answer that:
1. Directly addresses the question with evidence from the research
2. Cites relevant findings from the provided articles
3. Mentions any limitations, conflicting findings, or areas of uncertainty
4. Provides practical implications when appropriate
5. Indicates if more research is needed
6. Recommends consulting healthcare professionals for clinical decisions

Answer:`, contextText, query)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: healthcareSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	}

	return c.Chat(ctx, messages, float32(c.cfg.Temperature), c.cfg.MaxTokens)
}

// GenerateResearchSummary 基于检索上下文生成文献综述
func (c *Client) GenerateResearchSummary(ctx context.Context, topic, contextText string) (string, error) {
	userPrompt := fmt.Sprintf(`Based on the following research articles about %s, provide a comprehensive research summary that includes:

1. Overview of the current state of research
2. Key findings and areas of consensus
3. Areas of disagreement or uncertainty
4. Methodological considerations and study quality
5. Clinical implications and practical applications
6. Gaps in research and future directions
7. Recommendations for healthcare practice

Research Articles:
%s

Please provide a structured, evidence-based summary:`, topic, contextText)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	}

	// 综述场景使用更低温度和更大输出上限
	return c.Chat(ctx, messages, 0.1, 800)
}
