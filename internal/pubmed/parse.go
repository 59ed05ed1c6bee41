package pubmed

import (
	"encoding/xml"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
)

// esearchResult esearch 响应
type esearchResult struct {
	XMLName xml.Name `xml:"eSearchResult"`
	Error   string   `xml:"ERROR"`
	IDs     []string `xml:"IdList>Id"`
}

// pubmedArticleSet efetch 响应
type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID             string         `xml:"MedlineCitation>PMID"`
	Title            string         `xml:"MedlineCitation>Article>ArticleTitle"`
	Journal          string         `xml:"MedlineCitation>Article>Journal>Title"`
	AbstractTexts    []abstractText `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	Authors          []author       `xml:"MedlineCitation>Article>AuthorList>Author"`
	PubDate          pubDate        `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate"`
	PublicationTypes []string       `xml:"MedlineCitation>Article>PublicationTypeList>PublicationType"`
	ArticleIDs       []articleID    `xml:"PubmedData>ArticleIdList>ArticleId"`
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	Text  string `xml:",chardata"`
}

type author struct {
	LastName string `xml:"LastName"`
}

type pubDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	MedlineDate string `xml:"MedlineDate"`
}

type articleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

// parseSearchResult 解析 esearch 响应
// 响应体中的 ERROR 元素作为 *APIError 返回,区别于传输层错误
func parseSearchResult(body []byte) ([]string, error) {
	var result esearchResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	if strings.TrimSpace(result.Error) != "" {
		return nil, &APIError{Message: strings.TrimSpace(result.Error)}
	}

	ids := make([]string, 0, len(result.IDs))
	for _, id := range result.IDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parseArticles 解析 efetch 响应
// 无法解析的记录丢弃并告警,不影响同批其他记录
func parseArticles(body []byte) []Article {
	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		logx.Error("XML parsing failed: %v", err)
		return []Article{}
	}

	articles := make([]Article, 0, len(set.Articles))
	for _, raw := range set.Articles {
		article, ok := normalizeArticle(raw)
		if !ok {
			logx.Warn("Dropping unparsable article record (pmid=%q)", raw.PMID)
			continue
		}
		articles = append(articles, article)
	}
	return articles
}

// normalizeArticle 将原始记录规范化,每个字段都有安全默认值
func normalizeArticle(raw pubmedArticle) (Article, bool) {
	pmid := strings.TrimSpace(raw.PMID)
	if pmid == "" {
		// 没有 PMID 的记录无法生成稳定的块 ID
		return Article{}, false
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = "No Title"
	}

	journal := strings.TrimSpace(raw.Journal)
	if journal == "" {
		journal = "Unknown Journal"
	}

	abstract := make(map[string]string)
	for _, section := range raw.AbstractTexts {
		text := strings.TrimSpace(section.Text)
		if text == "" {
			continue
		}
		label := section.Label
		if label == "" {
			label = "SUMMARY"
		}
		abstract[label] = text
	}
	if len(abstract) == 0 {
		abstract["SUMMARY"] = "No Abstract"
	}

	var lastNames []string
	for _, a := range raw.Authors {
		if last := strings.TrimSpace(a.LastName); last != "" {
			lastNames = append(lastNames, last)
		}
	}
	authors := "No Authors"
	if len(lastNames) > 0 {
		authors = strings.Join(lastNames, ", ")
	}

	var types []string
	for _, t := range raw.PublicationTypes {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}

	return Article{
		PMID:            pmid,
		Title:           title,
		Abstract:        abstract,
		Journal:         journal,
		Authors:         authors,
		PublicationDate: extractPublicationDate(raw.PubDate),
		DOI:             extractDOI(raw.ArticleIDs),
		ArticleTypes:    types,
	}, true
}

// extractPublicationDate 提取发布日期,可能只有年份
func extractPublicationDate(d pubDate) string {
	if year := strings.TrimSpace(d.Year); year != "" {
		parts := []string{year}
		if month := strings.TrimSpace(d.Month); month != "" {
			parts = append(parts, month)
			if day := strings.TrimSpace(d.Day); day != "" {
				parts = append(parts, day)
			}
		}
		return strings.Join(parts, "-")
	}

	if md := strings.TrimSpace(d.MedlineDate); md != "" {
		return md
	}
	return "Unknown Date"
}

// extractDOI 从 ArticleId 列表中提取 DOI
func extractDOI(ids []articleID) string {
	for _, id := range ids {
		if id.IDType == "doi" {
			return strings.TrimSpace(id.Value)
		}
	}
	return ""
}
