package vectorstore

import "fmt"

// Metadata 块的扁平元数据
// 向量索引只能按标量字段过滤,所有值保持为字符串或数字
type Metadata struct {
	PMID                string  `json:"pmid"`
	Title               string  `json:"title"`
	Journal             string  `json:"journal"`
	Authors             string  `json:"authors"`
	Year                string  `json:"year"`
	PublicationDate     string  `json:"publication_date"`
	DOI                 string  `json:"doi"`
	ArticleTypes        string  `json:"article_types"` // 逗号分隔
	StudyType           string  `json:"study_type"`
	HealthcareRelevance float64 `json:"healthcare_relevance"`
	ResearchFocus       string  `json:"research_focus"` // 逗号分隔
}

// Document 待写入集合的文献块
type Document struct {
	PMID     string   `json:"pmid"`
	FullText string   `json:"full_text"`
	Metadata Metadata `json:"metadata"`
}

// RetrievedDocument 相似度检索返回的块
// Distance 越小表示与查询越相似
type RetrievedDocument struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	Distance float64  `json:"distance"`
}

// CollectionStats 集合统计信息
// 期刊/年份/类型基于有界采样,是近似值而非全量扫描结果
type CollectionStats struct {
	TotalDocuments   int64    `json:"total_documents"`
	UniqueJournals   int      `json:"unique_journals"`
	PublicationYears []string `json:"publication_years"`
	ArticleTypes     []string `json:"article_types"`
	CollectionName   string   `json:"collection_name"`
}

// StorageError 底层索引不可用或读写失败
// 与"零匹配"区分: 零匹配返回空列表和 nil 错误
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("vector store %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
