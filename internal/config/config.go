package config

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	PubMed    PubMedConfig    `mapstructure:"pubmed"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	QA        QAConfig        `mapstructure:"qa"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
}

// HTTPConfig HTTP 监听配置
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
	Debug   bool `mapstructure:"debug"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// PubMedConfig PubMed E-utilities 配置
type PubMedConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	Email          string  `mapstructure:"email"`
	ToolName       string  `mapstructure:"tool_name"`
	MaxRetries     int     `mapstructure:"max_retries"`
	RateLimitDelay float64 `mapstructure:"rate_limit_delay"` // 秒
	MaxArticles    int     `mapstructure:"max_articles"`
}

// EmbeddingConfig Embedding 服务配置
type EmbeddingConfig struct {
	APIKey  string      `mapstructure:"api_key"`
	BaseURL string      `mapstructure:"base_url"`
	Model   string      `mapstructure:"model"`
	Cache   CacheConfig `mapstructure:"cache"`
}

// CacheConfig Embedding 缓存配置(Redis)
type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // 秒
}

// LLMConfig LLM 配置
type LLMConfig struct {
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// VectorConfig 向量集合配置
type VectorConfig struct {
	CollectionName string `mapstructure:"collection_name"`
	BatchSize      int    `mapstructure:"batch_size"`
}

// IngestConfig 文献入库配置
type IngestConfig struct {
	RelevanceThreshold float64  `mapstructure:"relevance_threshold"`
	Keywords           []string `mapstructure:"keywords"`
}

// QAConfig 问答配置
type QAConfig struct {
	DefaultDocuments    int     `mapstructure:"default_documents"`
	MinRelevance        float64 `mapstructure:"min_relevance"`
	SummaryMinRelevance float64 `mapstructure:"summary_min_relevance"`
	ContextCharLimit    int     `mapstructure:"context_char_limit"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	JWTSecret    string `mapstructure:"jwt_secret"`
	TokenExpires int    `mapstructure:"token_expires"` // 小时
}
