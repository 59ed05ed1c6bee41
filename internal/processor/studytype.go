package processor

import "strings"

// 研究类型闭集,用于过滤与置信度加权
const (
	StudyTypeRCT              = "randomized_controlled_trial"
	StudyTypeSystematicReview = "systematic_review"
	StudyTypeClinicalTrial    = "clinical_trial"
	StudyTypeCohortStudy      = "cohort_study"
	StudyTypeCaseControl      = "case_control"
	StudyTypeCrossSectional   = "cross_sectional"
	StudyTypeUnknown          = "unknown"
)

// 发表类型标签到研究类型的匹配规则,按证据等级从高到低
var studyTypeRules = []struct {
	needle    string
	studyType string
}{
	{"randomized controlled trial", StudyTypeRCT},
	{"systematic review", StudyTypeSystematicReview},
	{"meta-analysis", StudyTypeSystematicReview},
	{"clinical trial", StudyTypeClinicalTrial},
	{"cohort", StudyTypeCohortStudy},
	{"case-control", StudyTypeCaseControl},
	{"cross-sectional", StudyTypeCrossSectional},
}

// ClassifyStudyType 将 PubMed 发表类型标签归类到研究类型闭集
func ClassifyStudyType(articleTypes []string) string {
	for _, rule := range studyTypeRules {
		for _, tag := range articleTypes {
			if strings.Contains(strings.ToLower(tag), rule.needle) {
				return rule.studyType
			}
		}
	}
	return StudyTypeUnknown
}
