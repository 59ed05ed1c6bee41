package qa

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/config"
	"github.com/eryajf/medqa/internal/vectorstore"
)

// DocumentStore 向量检索接口（避免循环依赖）
type DocumentStore interface {
	Search(ctx context.Context, query string, k int, filter map[string]string) ([]vectorstore.RetrievedDocument, error)
	Stats(ctx context.Context) (*vectorstore.CollectionStats, error)
}

// ChatClient LLM 生成接口（避免循环依赖）
type ChatClient interface {
	GenerateHealthcareResponse(ctx context.Context, query, contextText string) (string, error)
	GenerateResearchSummary(ctx context.Context, topic, contextText string) (string, error)
	Model() string
}

// Engine 问答引擎
// 每次请求独立执行检索、上下文组装、生成与置信度评估,不跨请求保留状态
type Engine struct {
	cfg   *config.Config
	store DocumentStore
	llm   ChatClient
}

// NewEngine 创建问答引擎
func NewEngine(cfg *config.Config, store DocumentStore, llm ChatClient) *Engine {
	return &Engine{
		cfg:   cfg,
		store: store,
		llm:   llm,
	}
}

// AskOptions 问答选项
type AskOptions struct {
	NumDocuments   int
	MinRelevance   float64
	IncludeSources bool
}

// Retrieve 检索与问题相关的文献块
// 向存储层请求 2k 个候选再按存储的 healthcare_relevance 手工过滤:
// 索引原生的数值范围过滤被验证不可靠,在编排层过滤是有意保留的设计
// 过滤后为空时降级返回未过滤的前 k 个结果,而不是空集
func (e *Engine) Retrieve(ctx context.Context, query string, k int, minRelevance float64) ([]vectorstore.RetrievedDocument, error) {
	if k <= 0 {
		k = e.cfg.QA.DefaultDocuments
	}

	results, err := e.store.Search(ctx, query, k*2, nil)
	if err != nil {
		return nil, err
	}
	logx.Debug("Retrieved %d documents from vector store for query '%s'", len(results), truncate(query, 50))

	if len(results) > 0 && minRelevance > 0 {
		filtered := make([]vectorstore.RetrievedDocument, 0, len(results))
		for _, result := range results {
			if result.Metadata.HealthcareRelevance >= minRelevance {
				filtered = append(filtered, result)
			}
		}

		if len(filtered) > 0 {
			results = filtered
		} else {
			logx.Warn("No documents found with relevance >= %.2f, using all results", minRelevance)
		}
	}

	if len(results) > k {
		results = results[:k]
	}

	logx.Info("Retrieved %d relevant documents for query", len(results))
	return results, nil
}

// buildContext 按检索顺序渲染上下文,正文截断以控制下游上下文长度
func (e *Engine) buildContext(docs []vectorstore.RetrievedDocument) string {
	limit := e.cfg.QA.ContextCharLimit
	if limit <= 0 {
		limit = 1000
	}

	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		entry := fmt.Sprintf(`Document %d:
Title: %s
Authors: %s
Journal: %s
Publication Date: %s
Study Type: %s

Content: %s`,
			i+1,
			orUnknown(doc.Metadata.Title),
			orUnknown(doc.Metadata.Authors),
			orUnknown(doc.Metadata.Journal),
			orUnknown(doc.Metadata.PublicationDate),
			orUnknown(doc.Metadata.StudyType),
			truncate(doc.Content, limit),
		)
		parts = append(parts, entry)
	}

	return strings.Join(parts, "\n\n")
}

// formatSources 格式化来源信息
func formatSources(docs []vectorstore.RetrievedDocument) []Source {
	sources := make([]Source, 0, len(docs))
	for _, doc := range docs {
		sources = append(sources, Source{
			PMID:            doc.Metadata.PMID,
			Title:           orUnknown(doc.Metadata.Title),
			Authors:         orUnknown(doc.Metadata.Authors),
			Journal:         orUnknown(doc.Metadata.Journal),
			PublicationDate: orUnknown(doc.Metadata.PublicationDate),
			DOI:             doc.Metadata.DOI,
			StudyType:       orUnknown(doc.Metadata.StudyType),
			RelevanceScore:  doc.Metadata.HealthcareRelevance,
		})
	}
	return sources
}

// AskQuestion 问答入口
// 对正常的问题字符串永不返回错误:任何阶段的异常都转化为
// 带解释文本、零置信度、空来源的结构化响应
func (e *Engine) AskQuestion(ctx context.Context, question string, opts AskOptions) *QAResponse {
	logx.Info("Processing question: '%s'", truncate(question, 100))

	if opts.NumDocuments <= 0 {
		opts.NumDocuments = e.cfg.QA.DefaultDocuments
	}
	if opts.MinRelevance <= 0 {
		opts.MinRelevance = e.cfg.QA.MinRelevance
	}

	documents, err := e.Retrieve(ctx, question, opts.NumDocuments, opts.MinRelevance)
	if err != nil {
		logx.Error("Q&A pipeline failed: %v", err)
		return &QAResponse{
			Question: question,
			Answer: "I encountered an error while processing your question. " +
				"Please try again or contact support.",
			Confidence:   0.0,
			SourcesCount: 0,
			Sources:      []Source{},
			Error:        err.Error(),
		}
	}

	if len(documents) == 0 {
		return &QAResponse{
			Question: question,
			Answer: "I couldn't find relevant research articles to answer your question. " +
				"Please try rephrasing your question or check if the topic is covered " +
				"in the available literature.",
			Confidence:   0.0,
			SourcesCount: 0,
			Sources:      []Source{},
			Error:        "No relevant documents found",
		}
	}

	contextText := e.buildContext(documents)
	logx.Debug("Context prepared for query '%s': %s", truncate(question, 50), truncate(contextText, 500))

	answerText, err := e.llm.GenerateHealthcareResponse(ctx, question, contextText)
	if err != nil {
		logx.Error("Answer generation failed: %v", err)
		return &QAResponse{
			Question: question,
			Answer: "I encountered an error while processing your question. " +
				"Please try again or contact support.",
			Confidence:   0.0,
			SourcesCount: 0,
			Sources:      []Source{},
			Error:        err.Error(),
		}
	}

	response := &QAResponse{
		Question:     question,
		Answer:       answerText,
		Confidence:   calculateConfidence(documents),
		ModelUsed:    e.llm.Model(),
		SourcesCount: len(documents),
	}
	if opts.IncludeSources {
		response.Sources = formatSources(documents)
	}

	logx.Info("Generated answer for query: '%s'", truncate(question, 50))
	return response
}

// ResearchSummary 针对主题生成文献综述
// 综述对输入质量要求更高,使用更高的相关性下限
func (e *Engine) ResearchSummary(ctx context.Context, topic string, maxDocuments int) *SummaryResponse {
	logx.Info("Generating research summary for: '%s'", topic)

	if maxDocuments <= 0 {
		maxDocuments = 10
	}

	documents, err := e.Retrieve(ctx, topic, maxDocuments, e.cfg.QA.SummaryMinRelevance)
	if err != nil {
		logx.Error("Research summary generation failed: %v", err)
		return &SummaryResponse{
			Topic:   topic,
			Summary: fmt.Sprintf("Error generating summary: %v", err),
			Error:   err.Error(),
		}
	}

	if len(documents) == 0 {
		return &SummaryResponse{
			Topic:   topic,
			Summary: fmt.Sprintf("No high-quality research articles found for '%s'.", topic),
		}
	}

	analysis := AnalyzeDocuments(documents)

	summaryText, err := e.llm.GenerateResearchSummary(ctx, topic, e.buildContext(documents))
	if err != nil {
		logx.Error("Research summary generation failed: %v", err)
		return &SummaryResponse{
			Topic:   topic,
			Summary: fmt.Sprintf("Error generating summary: %v", err),
			Error:   err.Error(),
		}
	}

	return &SummaryResponse{
		Topic:         topic,
		Summary:       summaryText,
		DocumentCount: len(documents),
		Analysis:      analysis,
		Confidence:    calculateConfidence(documents),
	}
}

// CollectionInsights 集合统计与基于宽泛采样查询的分析
// 采样最多 50 条文档,结果是近似值
func (e *Engine) CollectionInsights(ctx context.Context) (*Insights, error) {
	stats, err := e.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	insights := &Insights{Stats: stats}

	sample, err := e.store.Search(ctx, "healthcare research", 50, nil)
	if err != nil {
		logx.Warn("Failed to sample documents for insights: %v", err)
		return insights, nil
	}
	if len(sample) > 0 {
		insights.Analysis = AnalyzeDocuments(sample)
	}

	return insights, nil
}

// orUnknown 缺失字段的默认占位
func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

// truncate 截断长文本,截断点回退到完整字符边界
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
