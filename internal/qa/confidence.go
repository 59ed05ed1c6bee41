package qa

import (
	"strconv"
	"strings"

	"github.com/eryajf/medqa/internal/vectorstore"
)

// 研究类型质量加成,随证据等级递减;unknown 不加成
var studyQualityBonus = map[string]float64{
	"randomized_controlled_trial": 0.3,
	"systematic_review":           0.25,
	"clinical_trial":              0.2,
	"cohort_study":                0.15,
	"case_control":                0.1,
	"cross_sectional":             0.05,
}

// calculateConfidence 基于文档质量计算置信度
// 每篇文档: 相关性*0.4 + 研究类型加成 + 近年发表 0.1 + 有 DOI 0.05,单篇上限 1.0
// 最终取所有文档的算术平均;无文档时为 0.0
// 这是启发式的排序信号,不是经过校准的概率
func calculateConfidence(docs []vectorstore.RetrievedDocument) float64 {
	if len(docs) == 0 {
		return 0.0
	}

	total := 0.0
	for _, doc := range docs {
		score := doc.Metadata.HealthcareRelevance * 0.4
		score += studyQualityBonus[doc.Metadata.StudyType]

		if recentPublication(doc.Metadata.PublicationDate) {
			score += 0.1
		}
		if doc.Metadata.DOI != "" {
			score += 0.05
		}

		total += min(score, 1.0)
	}

	return min(total/float64(len(docs)), 1.0)
}

// recentPublication 发表年份是否不早于 2020
func recentPublication(date string) bool {
	if date == "" {
		return false
	}
	year, err := strconv.Atoi(strings.SplitN(date, "-", 2)[0])
	return err == nil && year >= 2020
}
