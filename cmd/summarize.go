package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/eryajf/medqa/internal/qa"
	"github.com/spf13/cobra"
)

var (
	summarizeNumDocuments int
	summarizeOutputType   string
)

// summarizeCmd 文献综述命令
var summarizeCmd = &cobra.Command{
	Use:   "summarize <topic>",
	Short: "生成指定主题的研究综述",
	Long:  `检索主题相关的高相关性文献,生成研究现状综述及文档集合分析。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, err := qa.ValidateQuestion(args[0])
		if err != nil {
			return err
		}

		comps, err := buildComponents()
		if err != nil {
			return err
		}
		defer comps.close()

		resp := comps.qaEngine.ResearchSummary(context.Background(), topic, summarizeNumDocuments)

		if summarizeOutputType == "json" {
			data, _ := json.MarshalIndent(resp, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Println()
		fmt.Println(answerStyle.Render(resp.Summary))
		fmt.Println()
		fmt.Printf("Documents: %d | Confidence: %.2f\n", resp.DocumentCount, resp.Confidence)

		if resp.Analysis != nil {
			rows := [][]string{}
			for studyType, count := range resp.Analysis.StudyTypes {
				rows = append(rows, []string{"Study Type", studyType, strconv.Itoa(count)})
			}
			for year, count := range resp.Analysis.PublicationYears {
				rows = append(rows, []string{"Year", year, strconv.Itoa(count)})
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
				Headers("Dimension", "Value", "Count").
				Rows(rows...)

			fmt.Println(t)
		}
		return nil
	},
}

func init() {
	summarizeCmd.Flags().IntVarP(&summarizeNumDocuments, "num-documents", "n", 10, "参与综述的最大文档数")
	summarizeCmd.Flags().StringVarP(&summarizeOutputType, "output", "o", "table", "输出格式 (table/json)")
	rootCmd.AddCommand(summarizeCmd)
}
