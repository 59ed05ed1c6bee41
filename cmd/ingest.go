package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/eryajf/medqa/internal/processor"
	"github.com/spf13/cobra"
)

var (
	ingestMaxResults int
	ingestReset      bool
	ingestOutputType string
)

// ingestCmd 文献入库命令
var ingestCmd = &cobra.Command{
	Use:   "ingest <search-term>",
	Short: "从 PubMed 检索文献并写入向量库",
	Long: `从 PubMed 检索指定主题的文献,按健康相关性评分过滤后写入向量库。

检索失败时会自动按关键词逐个降级重试。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents()
		if err != nil {
			return err
		}
		defer comps.close()

		result := comps.processor.Pipeline(context.Background(), processor.PipelineOptions{
			SearchTerm:            args[0],
			MaxResults:            ingestMaxResults,
			ResetCollection:       ingestReset,
			FallbackSimpleQueries: true,
		})

		if ingestOutputType == "json" {
			data, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		rows := [][]string{
			{"Search Term", args[0]},
			{"Found In PubMed", strconv.Itoa(result.ArticlesFoundInPubMed)},
			{"Processed", strconv.Itoa(result.TotalArticlesProcessed)},
			{"High Relevance", strconv.Itoa(result.HighRelevanceArticles)},
			{"Added To Vector Store", strconv.Itoa(result.AddedToVectorStore)},
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
			Headers("Metric", "Value").
			Rows(rows...)

		fmt.Println(t)
		fmt.Println()

		if !result.Success {
			logx.Warn("ingest finished with error: %s", result.Error)
		} else {
			logx.Info("✅ ingest completed, added %d documents", result.AddedToVectorStore)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestMaxResults, "max-results", 0, "最多检索的文章数 (默认使用配置值)")
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "入库前清空集合")
	ingestCmd.Flags().StringVarP(&ingestOutputType, "output", "o", "table", "输出格式 (table/json)")
	rootCmd.AddCommand(ingestCmd)
}
