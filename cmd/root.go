package cmd

import (
	"fmt"
	"os"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/config"
	"github.com/eryajf/medqa/internal/database"
	"github.com/eryajf/medqa/internal/embedding"
	"github.com/eryajf/medqa/internal/llm"
	"github.com/eryajf/medqa/internal/processor"
	"github.com/eryajf/medqa/internal/pubmed"
	"github.com/eryajf/medqa/internal/qa"
	"github.com/eryajf/medqa/internal/vectorstore"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	configFile string
	cfg        *config.Config
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "medqa",
	Short: "基于 PubMed 文献的医疗健康问答系统",
	Long: `MedQA 是一个检索增强的医疗健康问答系统。

从 PubMed 检索医学文献,按健康相关性评分入库,
基于向量检索和 LLM 生成循证的健康问题回答。`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径 (默认搜索 ./configs, $HOME/.medqa, /etc/medqa)")
}

// initConfig 加载配置
func initConfig() {
	var err error
	cfg, err = config.LoadConfig(configFile)
	if err != nil {
		logx.Error("failed to load config: %v", err)
		os.Exit(1)
	}
}

// components 命令运行所需的组件集合
type components struct {
	db        *gorm.DB
	cache     *embedding.Cache
	embedder  *embedding.Service
	store     *vectorstore.Manager
	retriever *pubmed.Retriever
	processor *processor.DocumentProcessor
	llmClient *llm.Client
	qaEngine  *qa.Engine
}

// buildComponents 按配置组装全部组件
// Embedding 缓存是可选的,Redis 不可用时降级为无缓存
func buildComponents() (*components, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var cache *embedding.Cache
	if cfg.Embedding.Cache.Enabled {
		cache, err = embedding.NewCache(
			cfg.Embedding.Cache.Addr,
			cfg.Embedding.Cache.Password,
			cfg.Embedding.Cache.DB,
			time.Duration(cfg.Embedding.Cache.TTL)*time.Second,
		)
		if err != nil {
			logx.Warn("embedding cache unavailable, continuing without cache: %v", err)
			cache = nil
		}
	}

	embedder, err := embedding.NewService(&cfg.Embedding, cache)
	if err != nil {
		return nil, fmt.Errorf("failed to init embedding service: %w", err)
	}

	store := vectorstore.NewManager(db, embedder, cfg.Vector.CollectionName)
	retriever := pubmed.NewRetriever(&cfg.PubMed)
	proc := processor.NewDocumentProcessor(cfg, retriever, store)
	llmClient := llm.NewClient(&cfg.LLM)
	qaEngine := qa.NewEngine(cfg, store, llmClient)

	return &components{
		db:        db,
		cache:     cache,
		embedder:  embedder,
		store:     store,
		retriever: retriever,
		processor: proc,
		llmClient: llmClient,
		qaEngine:  qaEngine,
	}, nil
}

// close 释放组件资源
func (c *components) close() {
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			logx.Warn("failed to close embedding cache: %v", err)
		}
	}
	if c.db != nil {
		if err := database.Close(c.db); err != nil {
			logx.Warn("failed to close database: %v", err)
		}
	}
}
