package pubmed

import "fmt"

// Article 一条规范化的 PubMed 文献记录
// 由检索器从 efetch 响应解析得到,入库前不再变更
type Article struct {
	PMID            string            `json:"pmid"`
	Title           string            `json:"title"`
	Abstract        map[string]string `json:"abstract"` // 小节标签 -> 文本
	Journal         string            `json:"journal"`
	Authors         string            `json:"authors"`
	PublicationDate string            `json:"publication_date"` // 可能只有年份
	DOI             string            `json:"doi,omitempty"`
	ArticleTypes    []string          `json:"article_types"`
}

// APIError PubMed 服务端在响应体中返回的显式错误
// 与传输层 HTTP 错误区分开,触发下一个降级查询策略
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pubmed api error: %s", e.Message)
}
