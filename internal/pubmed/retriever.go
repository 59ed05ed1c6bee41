package pubmed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/config"
)

const fetchBatchSize = 100 // PubMed 单次 efetch 的 ID 上限

// Retriever PubMed 文献检索器
// 所有请求串行发出并做限速,调用方负责不并发使用同一实例
type Retriever struct {
	cfg         *config.PubMedConfig
	client      *http.Client
	lastRequest time.Time
	rateLimit   time.Duration
	backoffBase time.Duration
}

// NewRetriever 创建 PubMed 检索器
func NewRetriever(cfg *config.PubMedConfig) *Retriever {
	delay := time.Duration(cfg.RateLimitDelay * float64(time.Second))
	if delay <= 0 {
		delay = time.Second
	}

	return &Retriever{
		cfg: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimit:   delay,
		backoffBase: time.Second,
	}
}

// waitRateLimit 阻塞直到距上次请求满一个限速间隔
func (r *Retriever) waitRateLimit() {
	if wait := r.rateLimit - time.Since(r.lastRequest); wait > 0 {
		time.Sleep(wait)
	}
	r.lastRequest = time.Now()
}

// makeRequest 发出带限速和指数退避重试的请求
func (r *Retriever) makeRequest(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	r.waitRateLimit()

	retries := r.cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			// 指数退避: 1s, 2s, 4s...
			time.Sleep(r.backoffBase << (attempt - 1))
		}

		body, err := r.doGet(ctx, rawURL, params)
		if err == nil {
			return body, nil
		}
		lastErr = err
		logx.Warn("PubMed request failed (attempt %d/%d): %v", attempt+1, retries+1, err)
	}

	return nil, fmt.Errorf("api request failed after %d retries: %w", retries, lastErr)
}

// doGet 发出单次 GET 请求
func (r *Retriever) doGet(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.cfg.ToolName+"/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// SearchArticles 检索文献 ID,依次尝试多个查询形态
// 所有策略都失败时返回空列表而不是错误,视为"无结果"
func (r *Retriever) SearchArticles(ctx context.Context, searchTerm string, maxResults int) ([]string, error) {
	if maxResults <= 0 || maxResults > r.cfg.MaxArticles {
		maxResults = r.cfg.MaxArticles
	}

	// 依次尝试不同的 db 参数,空字符串表示不带 db 参数
	for _, dbOption := range []string{"pubmed", "pmc", ""} {
		params := url.Values{}
		params.Set("term", searchTerm)
		params.Set("retmax", strconv.Itoa(min(100, maxResults)))
		params.Set("retmode", "xml")
		params.Set("tool", r.cfg.ToolName)
		if r.cfg.Email != "" {
			params.Set("email", r.cfg.Email)
		}
		if dbOption != "" {
			params.Set("db", dbOption)
		}

		body, err := r.makeRequest(ctx, r.cfg.BaseURL+"/esearch.fcgi", params)
		if err != nil {
			logx.Error("Search failed (db=%s): %v", dbOption, err)
			continue
		}

		ids, err := parseSearchResult(body)
		if err != nil {
			// 服务端在响应体里报错,换下一个查询形态
			logx.Warn("PubMed API error (db=%s): %v", dbOption, err)
			continue
		}

		if len(ids) > 0 {
			if len(ids) > maxResults {
				ids = ids[:maxResults]
			}
			return ids, nil
		}
	}

	// 最后降级为最简查询
	return r.directSearch(ctx, searchTerm, maxResults), nil
}

// directSearch 不带大部分参数的最简检索,失败时返回空列表
func (r *Retriever) directSearch(ctx context.Context, searchTerm string, maxResults int) []string {
	params := url.Values{}
	params.Set("term", searchTerm)
	params.Set("retmax", strconv.Itoa(maxResults))

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+"/esearch.fcgi?"+params.Encode(), nil)
	if err != nil {
		return []string{}
	}

	resp, err := client.Do(req)
	if err != nil {
		logx.Error("Direct search failed: %v", err)
		return []string{}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logx.Error("Direct search failed: %v", err)
		return []string{}
	}

	ids, err := parseSearchResult(body)
	if err != nil {
		logx.Error("Direct search failed: %v", err)
		return []string{}
	}

	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids
}

// FetchArticles 按批次拉取文献详情
// 单个批次失败只记录日志并跳过,部分成功是可接受的
func (r *Retriever) FetchArticles(ctx context.Context, pmids []string) ([]Article, error) {
	if len(pmids) == 0 {
		return []Article{}, nil
	}

	articles := make([]Article, 0, len(pmids))
	for i := 0; i < len(pmids); i += fetchBatchSize {
		end := min(i+fetchBatchSize, len(pmids))
		batch := pmids[i:end]

		params := url.Values{}
		params.Set("db", "pubmed")
		params.Set("id", strings.Join(batch, ","))
		params.Set("retmode", "xml")

		body, err := r.makeRequest(ctx, r.cfg.BaseURL+"/efetch.fcgi", params)
		if err != nil {
			logx.Error("Failed to fetch batch %d: %v", i/fetchBatchSize+1, err)
			continue
		}

		articles = append(articles, parseArticles(body)...)
	}

	return articles, nil
}

// SearchAndFetch 检索并拉取详情,是上层唯一应使用的入口
func (r *Retriever) SearchAndFetch(ctx context.Context, searchTerm string, maxResults int) ([]Article, error) {
	pmids, err := r.SearchArticles(ctx, searchTerm, maxResults)
	if err != nil {
		return nil, err
	}
	return r.FetchArticles(ctx, pmids)
}
