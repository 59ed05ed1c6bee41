package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var statsOutputType string

// statsCmd 集合统计命令
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "查看向量集合统计信息",
	Long:  `查看向量集合的文档总数、期刊、年份和文章类型分布(基于采样,近似值)。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents()
		if err != nil {
			return err
		}
		defer comps.close()

		stats, err := comps.store.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get collection stats: %w", err)
		}

		if statsOutputType == "json" {
			data, _ := json.MarshalIndent(stats, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		rows := [][]string{
			{"Collection", stats.CollectionName},
			{"Total Documents", strconv.FormatInt(stats.TotalDocuments, 10)},
			{"Unique Journals", strconv.Itoa(stats.UniqueJournals)},
		}

		years := append([]string(nil), stats.PublicationYears...)
		sort.Strings(years)
		for _, year := range years {
			rows = append(rows, []string{"Year", year})
		}
		for _, articleType := range stats.ArticleTypes {
			rows = append(rows, []string{"Article Type", articleType})
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
			Headers("Metric", "Value").
			Rows(rows...)

		fmt.Println(t)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsOutputType, "output", "o", "table", "输出格式 (table/json)")
	rootCmd.AddCommand(statsCmd)
}
