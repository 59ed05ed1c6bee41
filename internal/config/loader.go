package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig 从YAML文件加载配置
// 配置对象在进程启动时构建一次,以依赖注入的方式传入各组件
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		// 默认配置文件搜索路径
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.medqa")
		v.AddConfigPath("/etc/medqa")
	}

	// 支持环境变量
	v.SetEnvPrefix("MEDQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果是找不到配置文件，则使用默认配置
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 替换环境变量
	expandEnvVars(&config)

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// Server 默认配置
	v.SetDefault("server.http.enabled", true)
	v.SetDefault("server.http.port", 8080)

	// Database 默认配置
	v.SetDefault("database.path", "./data/medqa.db")

	// PubMed 默认配置
	v.SetDefault("pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("pubmed.tool_name", "medqa")
	v.SetDefault("pubmed.max_retries", 3)
	v.SetDefault("pubmed.rate_limit_delay", 1.0)
	v.SetDefault("pubmed.max_articles", 100)

	// Embedding 默认配置
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.cache.enabled", false)
	v.SetDefault("embedding.cache.addr", "127.0.0.1:6379")
	v.SetDefault("embedding.cache.ttl", 86400)

	// LLM 默认配置
	v.SetDefault("llm.model", "openai/gpt-4o-mini")
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 512)

	// Vector 默认配置
	v.SetDefault("vector.collection_name", "healthcare_articles")
	v.SetDefault("vector.batch_size", 100)

	// Ingest 默认配置
	v.SetDefault("ingest.relevance_threshold", 0.3)
	v.SetDefault("ingest.keywords", []string{
		"health", "disease", "treatment",
		"obesity", "diabetes", "cancer",
		"headache", "medical", "clinical",
	})

	// QA 默认配置
	v.SetDefault("qa.default_documents", 5)
	v.SetDefault("qa.min_relevance", 0.0)
	v.SetDefault("qa.summary_min_relevance", 0.4)
	v.SetDefault("qa.context_char_limit", 1000)

	// Auth 默认配置
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token_expires", 8)
}

// expandEnvVars 展开配置中的环境变量
func expandEnvVars(config *Config) {
	config.Embedding.APIKey = os.ExpandEnv(config.Embedding.APIKey)
	config.Embedding.Cache.Password = os.ExpandEnv(config.Embedding.Cache.Password)
	config.LLM.APIKey = os.ExpandEnv(config.LLM.APIKey)
	config.PubMed.Email = os.ExpandEnv(config.PubMed.Email)
	config.Auth.JWTSecret = os.ExpandEnv(config.Auth.JWTSecret)
}
