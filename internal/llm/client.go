package llm

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

// ClientError LLM 服务返回非 200 或响应无法解析
type ClientError struct {
	Err error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("llm request failed: %v", e.Err)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// Client OpenAI 兼容的 LLM 客户端
type Client struct {
	cfg    *config.LLMConfig
	client *openai.Client
}

// NewClient 创建 LLM 客户端
func NewClient(cfg *config.LLMConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)

	// 配置 BaseURL
	if cfg.BaseURL != "" {
		// 直接使用配置的 BaseURL,不自动添加 /v1
		// 因为不同的 API 提供商可能有不同的路径格式
		clientConfig.BaseURL = cfg.BaseURL
		logx.Debug("LLM client BaseURL: %s", cfg.BaseURL)
	}

	// 配置 HTTP 客户端
	// 关键:禁用 HTTP/2,强制使用 HTTP/1.1 以避免 INTERNAL_ERROR
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		// 禁用 HTTP/2 - 设置空的 TLSNextProto map 会阻止 HTTP/2
		TLSNextProto: make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
	}

	clientConfig.HTTPClient = &http.Client{
		Transport: transport,
		Timeout:   120 * time.Second,
	}

	client := openai.NewClientWithConfig(clientConfig)

	logx.Info("LLM client initialized, model %s", cfg.Model)

	return &Client{
		cfg:    cfg,
		client: client,
	}
}

// Model 当前模型名
func (c *Client) Model() string {
	return c.cfg.Model
}

// Chat 与 LLM 对话(非流式),返回第一个 choice 的文本
func (c *Client) Chat(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		logx.Error("Failed to create chat completion %v", err)
		return "", &ClientError{Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &ClientError{Err: fmt.Errorf("no response choices")}
	}

	return resp.Choices[0].Message.Content, nil
}
