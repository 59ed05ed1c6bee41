package processor

import (
	"context"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/pubmed"
	"github.com/eryajf/medqa/internal/vectorstore"
)

// PipelineOptions 入库流水线选项
type PipelineOptions struct {
	SearchTerm            string `json:"search_term"`
	MaxResults            int    `json:"max_results"`
	ResetCollection       bool   `json:"reset_collection"`
	FallbackSimpleQueries bool   `json:"fallback_simple_queries"`
}

// PipelineResult 入库流水线的结构化结果
// 流水线从不向调用方抛错,所有失败都转化为 Success=false 的结果
type PipelineResult struct {
	Success                bool                         `json:"success"`
	Error                  string                       `json:"error,omitempty"`
	ArticlesFoundInPubMed  int                          `json:"articles_found_in_pubmed"`
	TotalArticlesProcessed int                          `json:"total_articles_processed"`
	HighRelevanceArticles  int                          `json:"high_relevance_articles"`
	AddedToVectorStore     int                          `json:"articles_added_to_vector_store"`
	CollectionStats        *vectorstore.CollectionStats `json:"collection_stats,omitempty"`
}

// Pipeline 完整入库流水线: 检索 -> 拉取 -> 评分 -> 过滤 -> 分块 -> 入库
func (p *DocumentProcessor) Pipeline(ctx context.Context, opts PipelineOptions) *PipelineResult {
	logx.Info("Starting complete pipeline for search: '%s'", opts.SearchTerm)

	pmids, err := p.retriever.SearchArticles(ctx, opts.SearchTerm, opts.MaxResults)
	if err != nil {
		logx.Error("Pipeline failed: %v", err)
		return &PipelineResult{Error: err.Error()}
	}

	// 完整查询无结果时,可按单词降级重试
	if len(pmids) == 0 && opts.FallbackSimpleQueries {
		logx.Warn("No articles found for full query, trying simpler queries")
		for _, term := range strings.Fields(opts.SearchTerm) {
			logx.Info("Trying simpler query: '%s'", term)
			pmids, err = p.retriever.SearchArticles(ctx, term, opts.MaxResults)
			if err != nil {
				logx.Error("Pipeline failed: %v", err)
				return &PipelineResult{Error: err.Error()}
			}
			if len(pmids) > 0 {
				logx.Info("Found articles for simpler query: '%s'", term)
				break
			}
		}
	}

	if len(pmids) == 0 {
		logx.Warn("No articles found from PubMed search")
		return &PipelineResult{Error: "No articles found"}
	}

	articles, err := p.retriever.FetchArticles(ctx, pmids)
	if err != nil {
		logx.Error("Pipeline failed: %v", err)
		return &PipelineResult{
			Error:                 err.Error(),
			ArticlesFoundInPubMed: len(pmids),
		}
	}
	if len(articles) == 0 {
		logx.Warn("No articles successfully fetched")
		return &PipelineResult{
			Error:                 "No articles fetched",
			ArticlesFoundInPubMed: len(pmids),
		}
	}

	result := p.Ingest(ctx, articles, opts.ResetCollection)
	result.ArticlesFoundInPubMed = len(pmids)
	return result
}

// Ingest 处理并入库一批已拉取的文献
func (p *DocumentProcessor) Ingest(ctx context.Context, articles []pubmed.Article, resetCollection bool) *PipelineResult {
	if len(articles) == 0 {
		logx.Error("No articles provided for ingestion")
		return &PipelineResult{Error: "No articles provided"}
	}

	logx.Info("Starting ingestion pipeline for %d articles", len(articles))

	if err := p.store.EnsureCollection(resetCollection); err != nil {
		logx.Error("Ingestion pipeline failed: %v", err)
		return &PipelineResult{
			Error:                  err.Error(),
			TotalArticlesProcessed: len(articles),
		}
	}

	processed := p.ProcessArticles(articles)
	highRelevance := p.Filter(processed, p.cfg.Ingest.RelevanceThreshold)

	logx.Info("Filtered to %d high-relevance articles from %d total",
		len(highRelevance), len(processed))

	var docs []vectorstore.Document
	for i := range highRelevance {
		docs = append(docs, p.Chunk(&highRelevance[i])...)
	}

	if len(docs) == 0 {
		logx.Error("No content to ingest")
		return &PipelineResult{
			Error:                  "No content to ingest",
			TotalArticlesProcessed: len(processed),
			HighRelevanceArticles:  len(highRelevance),
		}
	}

	added, err := p.store.AddDocuments(ctx, docs, p.cfg.Vector.BatchSize)
	if err != nil {
		logx.Error("Ingestion pipeline failed: %v", err)
		return &PipelineResult{
			Error:                  err.Error(),
			TotalArticlesProcessed: len(processed),
			HighRelevanceArticles:  len(highRelevance),
		}
	}

	stats, err := p.store.Stats(ctx)
	if err != nil {
		// 统计失败不影响入库结果
		logx.Warn("Failed to get collection stats: %v", err)
	}

	logx.Info("✅ Ingestion completed: %d documents added", added)
	return &PipelineResult{
		Success:                true,
		TotalArticlesProcessed: len(processed),
		HighRelevanceArticles:  len(highRelevance),
		AddedToVectorStore:     added,
		CollectionStats:        stats,
	}
}
