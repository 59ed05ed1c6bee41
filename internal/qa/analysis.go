package qa

import (
	"strings"

	"github.com/eryajf/medqa/internal/vectorstore"
)

// AnalyzeDocuments 聚合分析一组检索结果
// 研究焦点字段是逗号分隔的字符串,单篇解析失败时跳过该篇,不影响整体
func AnalyzeDocuments(docs []vectorstore.RetrievedDocument) *Analysis {
	analysis := &Analysis{
		StudyTypes:         make(map[string]int),
		PublicationYears:   make(map[string]int),
		Journals:           make(map[string]int),
		ResearchFocusAreas: make(map[string]int),
	}

	totalRelevance := 0.0
	for _, doc := range docs {
		studyType := doc.Metadata.StudyType
		if studyType == "" {
			studyType = "unknown"
		}
		analysis.StudyTypes[studyType]++

		if date := doc.Metadata.PublicationDate; date != "" {
			year := strings.SplitN(date, "-", 2)[0]
			if isNumeric(year) {
				analysis.PublicationYears[year]++
			}
		}

		journal := doc.Metadata.Journal
		if journal == "" {
			journal = "unknown"
		}
		analysis.Journals[journal]++

		for _, focus := range strings.Split(doc.Metadata.ResearchFocus, ",") {
			if focus = strings.TrimSpace(focus); focus != "" {
				analysis.ResearchFocusAreas[focus]++
			}
		}

		totalRelevance += doc.Metadata.HealthcareRelevance
	}

	if len(docs) > 0 {
		analysis.AverageRelevance = totalRelevance / float64(len(docs))
	}

	return analysis
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
