package vectorstore

import (
	"context"
	"sort"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/model"
)

// statsSampleLimit 统计采样上限,控制全量扫描的成本
const statsSampleLimit = 100

// Stats 集合统计信息
// 期刊/年份/类型来自最多 statsSampleLimit 条记录的采样,是近似值
func (m *Manager) Stats(ctx context.Context) (*CollectionStats, error) {
	var count int64
	if err := m.db.WithContext(ctx).
		Model(&model.ArticleChunk{}).
		Where("collection = ?", m.collection).
		Count(&count).Error; err != nil {
		return nil, &StorageError{Op: "stats", Err: err}
	}

	var sample []model.ArticleChunk
	if err := m.db.WithContext(ctx).
		Where("collection = ?", m.collection).
		Order("created_at DESC").
		Limit(statsSampleLimit).
		Find(&sample).Error; err != nil {
		return nil, &StorageError{Op: "stats", Err: err}
	}

	journals := make(map[string]bool)
	years := make(map[string]bool)
	articleTypes := make(map[string]bool)

	for i := range sample {
		if sample[i].Journal != "" {
			journals[sample[i].Journal] = true
		}
		if year := firstField(sample[i].PublicationDate, "-"); isYear(year) {
			years[year] = true
		}
		for _, t := range strings.Split(sample[i].ArticleTypes, ",") {
			if t = strings.TrimSpace(t); t != "" {
				articleTypes[t] = true
			}
		}
	}

	stats := &CollectionStats{
		TotalDocuments:   count,
		UniqueJournals:   len(journals),
		PublicationYears: sortedKeys(years),
		ArticleTypes:     sortedKeys(articleTypes),
		CollectionName:   m.collection,
	}

	logx.Info("Collection stats: %d documents", count)
	return stats, nil
}

// firstField 取分隔符前的首段
func firstField(s, sep string) string {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i]
	}
	return s
}

// isYear 判断是否是纯数字年份
func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
