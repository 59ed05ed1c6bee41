package model

import "time"

// ArticleChunk 向量集合中的文献块
// 一篇文献对应一个块,元数据均为扁平标量字段,向量以 JSON 文本列存储
type ArticleChunk struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"` // pmid_<PMID> 或 pmid_<uuid>
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Collection string `gorm:"size:100;index" json:"collection"`

	PMID                string  `gorm:"size:32;index" json:"pmid"`
	Title               string  `gorm:"size:512" json:"title"`
	Journal             string  `gorm:"size:255" json:"journal"`
	Authors             string  `gorm:"size:512" json:"authors"`
	Year                string  `gorm:"size:8;index" json:"year"`
	PublicationDate     string  `gorm:"size:32" json:"publication_date"`
	DOI                 string  `gorm:"size:128" json:"doi"`
	ArticleTypes        string  `gorm:"size:512" json:"article_types"`  // 逗号分隔
	StudyType           string  `gorm:"size:64;index" json:"study_type"`
	HealthcareRelevance float64 `json:"healthcare_relevance"`
	ResearchFocus       string  `gorm:"size:512" json:"research_focus"` // 逗号分隔

	FullText       string `gorm:"type:text" json:"full_text"`
	Embedding      string `gorm:"type:text" json:"-"` // JSON 格式的向量
	EmbeddingModel string `gorm:"size:64" json:"embedding_model"`
}

// TableName 指定表名
func (ArticleChunk) TableName() string {
	return "article_chunks"
}
