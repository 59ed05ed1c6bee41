package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/eryajf/medqa/internal/qa"
	"github.com/spf13/cobra"
)

var (
	askNumDocuments int
	askMinRelevance float64
	askNoSources    bool
	askOutputType   string
)

// askCmd 问答命令
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "基于文献库回答健康问题",
	Long:  `基于已入库的 PubMed 文献,检索相关内容并由 LLM 生成循证回答。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question, err := qa.ValidateQuestion(args[0])
		if err != nil {
			return err
		}

		comps, err := buildComponents()
		if err != nil {
			return err
		}
		defer comps.close()

		resp := comps.qaEngine.AskQuestion(context.Background(), question, qa.AskOptions{
			NumDocuments:   askNumDocuments,
			MinRelevance:   askMinRelevance,
			IncludeSources: !askNoSources,
		})

		if askOutputType == "json" {
			data, _ := json.MarshalIndent(resp, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Println()
		fmt.Println(answerStyle.Render(resp.Answer))
		fmt.Println()
		fmt.Printf("Confidence: %.2f | Model: %s | Sources: %d\n",
			resp.Confidence, resp.ModelUsed, resp.SourcesCount)

		if len(resp.Sources) > 0 {
			rows := [][]string{}
			for _, src := range resp.Sources {
				rows = append(rows, []string{
					src.PMID,
					truncateCell(src.Title, 60),
					src.Journal,
					src.StudyType,
					fmt.Sprintf("%.2f", src.RelevanceScore),
				})
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
				Headers("PMID", "Title", "Journal", "Study Type", "Relevance").
				Rows(rows...)

			fmt.Println(t)
		}
		return nil
	},
}

var answerStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63"))

// truncateCell 表格单元格截断,截断点回退到完整字符边界
func truncateCell(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func init() {
	askCmd.Flags().IntVarP(&askNumDocuments, "num-documents", "n", 0, "检索的文档数 (默认使用配置值)")
	askCmd.Flags().Float64Var(&askMinRelevance, "min-relevance", 0, "来源的最低健康相关性")
	askCmd.Flags().BoolVar(&askNoSources, "no-sources", false, "不输出来源列表")
	askCmd.Flags().StringVarP(&askOutputType, "output", "o", "table", "输出格式 (table/json)")
	rootCmd.AddCommand(askCmd)
}
