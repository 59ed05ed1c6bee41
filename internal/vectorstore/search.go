package vectorstore

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"unicode/utf8"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/model"
)

// 允许作为检索过滤条件的元数据字段
var filterColumns = map[string]bool{
	"study_type": true,
	"year":       true,
	"journal":    true,
}

// Search 相似度检索,按距离升序返回至多 k 条结果
// 零匹配返回空列表;底层查询失败返回 *StorageError
func (m *Manager) Search(ctx context.Context, query string, k int, filter map[string]string) ([]RetrievedDocument, error) {
	if k <= 0 {
		k = 10
	}

	// 1. 生成查询向量
	queryVector, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &StorageError{Op: "query embedding", Err: err}
	}

	// 2. 加载候选块
	q := m.db.WithContext(ctx).
		Where("collection = ? AND embedding != ''", m.collection)
	for key, value := range filter {
		if filterColumns[key] {
			q = q.Where(key+" = ?", value)
		} else {
			logx.Warn("Ignoring unsupported filter field: %s", key)
		}
	}

	var rows []model.ArticleChunk
	if err := q.Find(&rows).Error; err != nil {
		return nil, &StorageError{Op: "search", Err: err}
	}

	if len(rows) == 0 {
		return []RetrievedDocument{}, nil
	}

	// 3. 计算余弦距离并排序
	results := make([]RetrievedDocument, 0, len(rows))
	for i := range rows {
		var docVector []float64
		if err := json.Unmarshal([]byte(rows[i].Embedding), &docVector); err != nil {
			logx.Warn("Failed to parse embedding for chunk %s: %v", rows[i].ID, err)
			continue
		}

		results = append(results, RetrievedDocument{
			ID:       rows[i].ID,
			Content:  rows[i].FullText,
			Metadata: rowMetadata(&rows[i]),
			Distance: 1 - cosineSimilarity(queryVector, docVector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if len(results) > k {
		results = results[:k]
	}

	logx.Info("Found %d results for query: '%s'", len(results), truncate(query, 50))
	return results, nil
}

// cosineSimilarity 计算两个向量的余弦相似度
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		logx.Warn("Vector dimension mismatch: %d vs %d", len(a), len(b))
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// truncate 截断日志中的长文本,截断点回退到完整字符边界
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
