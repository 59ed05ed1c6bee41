package qa

import (
	"errors"

	"github.com/eryajf/medqa/internal/vectorstore"
)

// ErrInvalidQuestion 非文本输入,属于调用方编程错误,同步返回而不进入问答链路
var ErrInvalidQuestion = errors.New("question must be a string")

// Source 回答引用的文献来源
type Source struct {
	PMID            string  `json:"pmid"`
	Title           string  `json:"title"`
	Authors         string  `json:"authors"`
	Journal         string  `json:"journal"`
	PublicationDate string  `json:"publication_date"`
	DOI             string  `json:"doi,omitempty"`
	StudyType       string  `json:"study_type"`
	RelevanceScore  float64 `json:"relevance_score"`
}

// QAResponse 单次问答的完整响应,不持久化
type QAResponse struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Confidence   float64  `json:"confidence"`
	ModelUsed    string   `json:"model_used,omitempty"`
	SourcesCount int      `json:"sources_count"`
	Sources      []Source `json:"sources,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// SummaryResponse 文献综述响应
type SummaryResponse struct {
	Topic         string    `json:"topic"`
	Summary       string    `json:"summary"`
	DocumentCount int       `json:"document_count"`
	Analysis      *Analysis `json:"analysis,omitempty"`
	Confidence    float64   `json:"confidence"`
	Error         string    `json:"error,omitempty"`
}

// Analysis 文档集合的聚合分析
type Analysis struct {
	StudyTypes         map[string]int `json:"study_types"`
	PublicationYears   map[string]int `json:"publication_years"`
	Journals           map[string]int `json:"journals"`
	ResearchFocusAreas map[string]int `json:"research_focus_areas"`
	AverageRelevance   float64        `json:"average_relevance"`
}

// Insights 集合统计与采样分析的组合
type Insights struct {
	Stats    *vectorstore.CollectionStats `json:"stats"`
	Analysis *Analysis                    `json:"analysis,omitempty"`
}

// ValidateQuestion 校验外部边界传入的问题值
// 核心引擎的签名是强类型的,非字符串输入只可能出现在 JSON/CLI 边界,
// 在边界处调用此函数将类型违约转化为同步错误
func ValidateQuestion(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", ErrInvalidQuestion
	}
	return s, nil
}
