package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/eryajf/medqa/internal/config"
)

// Service 向量嵌入服务
// embedder 构建开销大,进程内只创建一次,入库与查询共用同一实例
type Service struct {
	embedder embedding.Embedder
	model    string
	cache    *Cache // 可选，缓存 embedding 结果
}

// NewService 创建 Embedding 服务（复用 Eino）
// 配置的 BaseURL 不可用时降级到服务商默认端点重试一次
func NewService(cfg *config.EmbeddingConfig, cache *Cache) (*Service, error) {
	embedder, err := newEmbedder(cfg, cfg.BaseURL)
	if err != nil {
		logx.Warn("Failed to create embedder with base_url %s: %v, retrying with default endpoint", cfg.BaseURL, err)
		embedder, err = newEmbedder(cfg, "")
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
	}

	return &Service{
		embedder: embedder,
		model:    cfg.Model,
		cache:    cache,
	}, nil
}

func newEmbedder(cfg *config.EmbeddingConfig, baseURL string) (embedding.Embedder, error) {
	return openai.NewEmbedder(context.Background(), &openai.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: baseURL,
		Model:   cfg.Model,
		Timeout: 30 * time.Second,
	})
}

// Embed 获取文本的向量表示
func (s *Service) Embed(ctx context.Context, text string) ([]float64, error) {
	// 1. 先检查缓存
	cacheKey := s.calculateCacheKey(text)
	if s.cache != nil {
		cached, err := s.cache.GetEmbedding(ctx, cacheKey)
		if err == nil && cached != nil {
			logx.Debug("Embedding cache hit: key=%s", cacheKey[:16])
			return cached, nil
		}
	}

	// 2. 调用 Eino Embedder
	vectors, err := s.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	result := vectors[0]

	// 3. 缓存结果
	if s.cache != nil {
		if err := s.cache.SetEmbedding(ctx, cacheKey, result); err != nil {
			logx.Warn("Failed to cache embedding: %v", err)
		}
	}

	return result, nil
}

// EmbedBatch 批量获取文本的向量表示
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors, err := s.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("batch embedding failed: %w", err)
	}
	return vectors, nil
}

// GetModel 获取当前模型标识
func (s *Service) GetModel() string {
	return s.model
}

// calculateCacheKey 计算缓存键
func (s *Service) calculateCacheKey(text string) string {
	hash := sha256.Sum256([]byte(s.model + ":" + text))
	return fmt.Sprintf("emb:%x", hash[:16])
}
