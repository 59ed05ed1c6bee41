package processor

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/config"
	"github.com/eryajf/medqa/internal/pubmed"
	"github.com/eryajf/medqa/internal/vectorstore"
)

// ArticleSource 文献来源接口（避免循环依赖）
type ArticleSource interface {
	SearchArticles(ctx context.Context, term string, maxResults int) ([]string, error)
	FetchArticles(ctx context.Context, ids []string) ([]pubmed.Article, error)
}

// DocumentStore 向量存储接口（避免循环依赖）
type DocumentStore interface {
	EnsureCollection(reset bool) error
	AddDocuments(ctx context.Context, docs []vectorstore.Document, batchSize int) (int, error)
	Stats(ctx context.Context) (*vectorstore.CollectionStats, error)
}

// DocumentProcessor 文献处理器
// 负责相关性评分、过滤、分块,并驱动完整的入库流水线
type DocumentProcessor struct {
	cfg       *config.Config
	retriever ArticleSource
	store     DocumentStore
}

// NewDocumentProcessor 创建文献处理器
func NewDocumentProcessor(cfg *config.Config, retriever ArticleSource, store DocumentStore) *DocumentProcessor {
	return &DocumentProcessor{
		cfg:       cfg,
		retriever: retriever,
		store:     store,
	}
}

// ScoredArticle 带医疗相关性评分的文献
type ScoredArticle struct {
	pubmed.Article
	HealthcareRelevance float64  `json:"healthcare_relevance"`
	StudyType           string   `json:"study_type"`
	ResearchFocus       []string `json:"research_focus"`
}

// 高质量研究类型,参与评分加成
var scoredStudyTypes = map[string]bool{
	StudyTypeRCT:              true,
	StudyTypeSystematicReview: true,
	StudyTypeClinicalTrial:    true,
}

// Score 计算医疗相关性评分
// 关键词命中 0.7,高质量研究类型 +0.1,2020 年以后发表 +0.05,上限 1.0
// 对大小写不敏感,缺失字段按空处理
func (p *DocumentProcessor) Score(article *pubmed.Article) (float64, []string) {
	combined := strings.ToLower(combineText(article, " "))

	relevance := 0.0
	var focus []string
	for _, keyword := range p.cfg.Ingest.Keywords {
		if strings.Contains(combined, strings.ToLower(keyword)) {
			relevance = 0.7
			focus = append(focus, strings.ToLower(keyword))
		}
	}
	sort.Strings(focus)

	// 一个关键词都没命中的文献直接判零分,不参与任何加成
	if relevance == 0 {
		return 0.0, nil
	}

	if scoredStudyTypes[ClassifyStudyType(article.ArticleTypes)] {
		relevance += 0.1
	}

	if year := publicationYear(article.PublicationDate); year >= 2020 {
		relevance += 0.05
	}

	return min(relevance, 1.0), focus
}

// ProcessArticles 为文献批量计算评分与研究类型
func (p *DocumentProcessor) ProcessArticles(articles []pubmed.Article) []ScoredArticle {
	logx.Info("Processing %d articles for relevance scoring", len(articles))

	processed := make([]ScoredArticle, 0, len(articles))
	for i := range articles {
		relevance, focus := p.Score(&articles[i])
		processed = append(processed, ScoredArticle{
			Article:             articles[i],
			HealthcareRelevance: relevance,
			StudyType:           ClassifyStudyType(articles[i].ArticleTypes),
			ResearchFocus:       focus,
		})
	}

	logx.Info("Completed processing of %d articles", len(processed))
	return processed
}

// Filter 按入库阈值过滤低相关文献
func (p *DocumentProcessor) Filter(articles []ScoredArticle, threshold float64) []ScoredArticle {
	kept := make([]ScoredArticle, 0, len(articles))
	for _, article := range articles {
		if article.HealthcareRelevance >= threshold {
			kept = append(kept, article)
		}
	}
	return kept
}

// Chunk 将文献切分为可存储的块
// 最小实现下一篇文献对应一个块;标题和摘要都缺失时返回空列表
func (p *DocumentProcessor) Chunk(article *ScoredArticle) []vectorstore.Document {
	combined := strings.TrimSpace(combineText(&article.Article, "\n"))
	if combined == "" {
		logx.Warn("Skipping article with no title or abstract: %s", article.PMID)
		return []vectorstore.Document{}
	}

	year := ""
	if article.PublicationDate != "" {
		year = strings.SplitN(article.PublicationDate, "-", 2)[0]
	}

	return []vectorstore.Document{{
		PMID:     article.PMID,
		FullText: combined,
		Metadata: vectorstore.Metadata{
			PMID:                article.PMID,
			Title:               article.Title,
			Journal:             article.Journal,
			Authors:             article.Authors,
			Year:                year,
			PublicationDate:     article.PublicationDate,
			DOI:                 article.DOI,
			ArticleTypes:        strings.Join(article.ArticleTypes, ", "),
			StudyType:           article.StudyType,
			HealthcareRelevance: article.HealthcareRelevance,
			ResearchFocus:       strings.Join(article.ResearchFocus, ", "),
		},
	}}
}

// combineText 拼接标题与摘要小节文本
func combineText(article *pubmed.Article, sep string) string {
	var parts []string
	if article.Title != "" {
		parts = append(parts, article.Title)
	}

	labels := make([]string, 0, len(article.Abstract))
	for label := range article.Abstract {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		if text := article.Abstract[label]; text != "" {
			parts = append(parts, label+": "+text)
		}
	}

	return strings.Join(parts, sep)
}

// publicationYear 从日期串解析年份,解析失败返回 0
func publicationYear(date string) int {
	if date == "" {
		return 0
	}
	year, err := strconv.Atoi(strings.SplitN(date, "-", 2)[0])
	if err != nil {
		return 0
	}
	return year
}
