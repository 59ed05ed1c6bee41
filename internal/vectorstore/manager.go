package vectorstore

import (
	"context"
	"encoding/json"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Embedder 向量嵌入接口（避免循环依赖）
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	GetModel() string
}

// Manager 向量集合管理器
// 持有共享的 embedding 服务与持久化索引,入库与查询都经由它
// 管理类操作(Reset/批量 Add)不做内部加锁,由调用方自行串行化
type Manager struct {
	db         *gorm.DB
	embedder   Embedder
	collection string
}

// NewManager 创建向量集合管理器
func NewManager(db *gorm.DB, embedder Embedder, collection string) *Manager {
	if collection == "" {
		collection = "healthcare_articles"
	}

	return &Manager{
		db:         db,
		embedder:   embedder,
		collection: collection,
	}
}

// CollectionName 当前集合名
func (m *Manager) CollectionName() string {
	return m.collection
}

// EnsureCollection 确保集合可用,幂等
// reset 为 true 时先清空集合再重建,集合不存在导致的删除失败被吞掉
func (m *Manager) EnsureCollection(reset bool) error {
	if reset {
		if err := m.db.Where("collection = ?", m.collection).
			Delete(&model.ArticleChunk{}).Error; err != nil {
			// 表可能尚未创建,不作为错误上抛
			logx.Warn("Failed to drop collection %s (may not exist yet): %v", m.collection, err)
		} else {
			logx.Info("Dropped existing collection: %s", m.collection)
		}
	}

	if err := m.db.AutoMigrate(&model.ArticleChunk{}); err != nil {
		return &StorageError{Op: "ensure collection", Err: err}
	}

	logx.Info("Collection '%s' ready", m.collection)
	return nil
}

// AddDocuments 批量写入文献块,返回实际写入数量
// 每个批次独立提交,单批失败只记录日志并继续后面的批次
func (m *Manager) AddDocuments(ctx context.Context, docs []Document, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	logx.Info("Adding %d documents to collection %s", len(docs), m.collection)

	added := 0
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		batch := docs[i:end]
		rows := m.buildRows(ctx, batch)

		// 同一 PMID 重复入库时覆盖旧记录
		if err := m.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error; err != nil {
			logx.Error("Error adding batch %d: %v", i/batchSize+1, err)
			continue
		}

		added += len(batch)
		logx.Debug("Added batch %d: %d documents", i/batchSize+1, len(batch))
	}

	logx.Info("Successfully added %d documents to collection", added)
	return added, nil
}

// buildRows 为一个批次生成存储行,向量优先整批生成
// 整批 embedding 失败时降级为逐条生成
func (m *Manager) buildRows(ctx context.Context, batch []Document) []model.ArticleChunk {
	texts := make([]string, 0, len(batch))
	for _, doc := range batch {
		texts = append(texts, doc.FullText)
	}

	vectors, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil || len(vectors) != len(batch) {
		logx.Warn("Batch embedding failed, falling back to per-document embedding: %v", err)
		rows := make([]model.ArticleChunk, 0, len(batch))
		for _, doc := range batch {
			rows = append(rows, m.buildRow(ctx, doc))
		}
		return rows
	}

	rows := make([]model.ArticleChunk, 0, len(batch))
	for j := range batch {
		row := m.newRow(batch[j])
		m.setEmbedding(&row, vectors[j])
		rows = append(rows, row)
	}
	return rows
}

// buildRow 将单个文献块转换为存储行并生成向量
// embedding 失败只告警,块仍然落库(不参与相似度检索)
func (m *Manager) buildRow(ctx context.Context, doc Document) model.ArticleChunk {
	row := m.newRow(doc)

	vector, err := m.embedder.Embed(ctx, doc.FullText)
	if err != nil {
		logx.Warn("Failed to generate embedding for document %s: %v", row.ID, err)
		return row
	}

	m.setEmbedding(&row, vector)
	return row
}

// newRow 存储行的字段映射,不含向量
func (m *Manager) newRow(doc Document) model.ArticleChunk {
	return model.ArticleChunk{
		ID:                  chunkID(doc.PMID),
		Collection:          m.collection,
		PMID:                doc.Metadata.PMID,
		Title:               doc.Metadata.Title,
		Journal:             doc.Metadata.Journal,
		Authors:             doc.Metadata.Authors,
		Year:                doc.Metadata.Year,
		PublicationDate:     doc.Metadata.PublicationDate,
		DOI:                 doc.Metadata.DOI,
		ArticleTypes:        doc.Metadata.ArticleTypes,
		StudyType:           doc.Metadata.StudyType,
		HealthcareRelevance: doc.Metadata.HealthcareRelevance,
		ResearchFocus:       doc.Metadata.ResearchFocus,
		FullText:            doc.FullText,
	}
}

// setEmbedding 序列化向量写入行,空向量跳过
func (m *Manager) setEmbedding(row *model.ArticleChunk, vector []float64) {
	if len(vector) == 0 {
		return
	}
	data, _ := json.Marshal(vector)
	row.Embedding = string(data)
	row.EmbeddingModel = m.embedder.GetModel()
}

// chunkID 由 PMID 派生全局唯一的块 ID,PMID 缺失时退化为随机 token
func chunkID(pmid string) string {
	if pmid = strings.TrimSpace(pmid); pmid != "" {
		return "pmid_" + pmid
	}
	return "pmid_" + uuid.NewString()
}

// rowMetadata 从存储行还原元数据
func rowMetadata(row *model.ArticleChunk) Metadata {
	return Metadata{
		PMID:                row.PMID,
		Title:               row.Title,
		Journal:             row.Journal,
		Authors:             row.Authors,
		Year:                row.Year,
		PublicationDate:     row.PublicationDate,
		DOI:                 row.DOI,
		ArticleTypes:        row.ArticleTypes,
		StudyType:           row.StudyType,
		HealthcareRelevance: row.HealthcareRelevance,
		ResearchFocus:       row.ResearchFocus,
	}
}
