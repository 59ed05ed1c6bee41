package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/model"
	"gorm.io/gorm/clause"
)

// DeleteDocuments 按 ID 删除块
func (m *Manager) DeleteDocuments(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := m.db.WithContext(ctx).
		Where("collection = ? AND id IN ?", m.collection, ids).
		Delete(&model.ArticleChunk{})
	if result.Error != nil {
		return 0, &StorageError{Op: "delete", Err: result.Error}
	}

	logx.Info("Deleted %d documents", result.RowsAffected)
	return int(result.RowsAffected), nil
}

// UpdateDocument 更新单个块的文本与元数据,并重新生成向量
func (m *Manager) UpdateDocument(ctx context.Context, id, text string, metadata Metadata) error {
	updates := map[string]any{
		"full_text":            text,
		"pm_id":                metadata.PMID,
		"title":                metadata.Title,
		"journal":              metadata.Journal,
		"authors":              metadata.Authors,
		"year":                 metadata.Year,
		"publication_date":     metadata.PublicationDate,
		"doi":                  metadata.DOI,
		"article_types":        metadata.ArticleTypes,
		"study_type":           metadata.StudyType,
		"healthcare_relevance": metadata.HealthcareRelevance,
		"research_focus":       metadata.ResearchFocus,
	}

	vector, err := m.embedder.Embed(ctx, text)
	if err != nil {
		logx.Warn("Failed to re-embed document %s: %v", id, err)
	} else {
		data, _ := json.Marshal(vector)
		updates["embedding"] = string(data)
		updates["embedding_model"] = m.embedder.GetModel()
	}

	result := m.db.WithContext(ctx).
		Model(&model.ArticleChunk{}).
		Where("collection = ? AND id = ?", m.collection, id).
		Updates(updates)
	if result.Error != nil {
		return &StorageError{Op: "update", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("document not found: %s", id)
	}

	logx.Info("Updated document: %s", id)
	return nil
}

// Reset 清空集合,破坏性且不可逆;对已空集合幂等
func (m *Manager) Reset(ctx context.Context) error {
	if err := m.db.WithContext(ctx).
		Where("collection = ?", m.collection).
		Delete(&model.ArticleChunk{}).Error; err != nil {
		return &StorageError{Op: "reset", Err: err}
	}

	logx.Info("Reset collection: %s", m.collection)
	return nil
}

// exportFile 集合导出文件格式
// ids/documents/metadatas 三个序列按下标对齐,足以完整重建集合
type exportFile struct {
	CollectionName string     `json:"collection_name"`
	IDs            []string   `json:"ids"`
	Documents      []string   `json:"documents"`
	Metadatas      []Metadata `json:"metadatas"`
}

// Export 将整个集合序列化到文件
func (m *Manager) Export(ctx context.Context, outputPath string) error {
	var rows []model.ArticleChunk
	if err := m.db.WithContext(ctx).
		Where("collection = ?", m.collection).
		Order("id").
		Find(&rows).Error; err != nil {
		return &StorageError{Op: "export", Err: err}
	}

	export := exportFile{
		CollectionName: m.collection,
		IDs:            make([]string, 0, len(rows)),
		Documents:      make([]string, 0, len(rows)),
		Metadatas:      make([]Metadata, 0, len(rows)),
	}
	for i := range rows {
		export.IDs = append(export.IDs, rows[i].ID)
		export.Documents = append(export.Documents, rows[i].FullText)
		export.Metadatas = append(export.Metadatas, rowMetadata(&rows[i]))
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export data: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	logx.Info("Exported %d documents to: %s", len(export.IDs), outputPath)
	return nil
}

// Import 从导出文件重建集合,向量按当前 embedding 模型重新生成
func (m *Manager) Import(ctx context.Context, inputPath string) (int, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read import file: %w", err)
	}

	var export exportFile
	if err := json.Unmarshal(data, &export); err != nil {
		return 0, fmt.Errorf("failed to parse import file: %w", err)
	}

	if len(export.IDs) != len(export.Documents) || len(export.IDs) != len(export.Metadatas) {
		return 0, fmt.Errorf("import file sequences are not aligned: %d ids, %d documents, %d metadatas",
			len(export.IDs), len(export.Documents), len(export.Metadatas))
	}

	imported := 0
	for i := range export.IDs {
		row := model.ArticleChunk{
			ID:                  export.IDs[i],
			Collection:          m.collection,
			PMID:                export.Metadatas[i].PMID,
			Title:               export.Metadatas[i].Title,
			Journal:             export.Metadatas[i].Journal,
			Authors:             export.Metadatas[i].Authors,
			Year:                export.Metadatas[i].Year,
			PublicationDate:     export.Metadatas[i].PublicationDate,
			DOI:                 export.Metadatas[i].DOI,
			ArticleTypes:        export.Metadatas[i].ArticleTypes,
			StudyType:           export.Metadatas[i].StudyType,
			HealthcareRelevance: export.Metadatas[i].HealthcareRelevance,
			ResearchFocus:       export.Metadatas[i].ResearchFocus,
			FullText:            export.Documents[i],
		}

		if vector, err := m.embedder.Embed(ctx, row.FullText); err != nil {
			logx.Warn("Failed to embed imported document %s: %v", row.ID, err)
		} else {
			vecData, _ := json.Marshal(vector)
			row.Embedding = string(vecData)
			row.EmbeddingModel = m.embedder.GetModel()
		}

		if err := m.db.WithContext(ctx).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&row).Error; err != nil {
			logx.Error("Failed to import document %s: %v", row.ID, err)
			continue
		}
		imported++
	}

	logx.Info("Imported %d documents from: %s", imported, inputPath)
	return imported, nil
}
