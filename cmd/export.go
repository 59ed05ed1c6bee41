package cmd

import (
	"context"
	"fmt"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/spf13/cobra"
)

// exportCmd 集合导出命令
var exportCmd = &cobra.Command{
	Use:   "export <output-path>",
	Short: "导出向量集合到 JSON 文件",
	Long:  `将集合中的全部文档(ID、正文和元数据)导出为 JSON 文件。向量不导出,导入时重新生成。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents()
		if err != nil {
			return err
		}
		defer comps.close()

		if err := comps.store.Export(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to export collection: %w", err)
		}
		logx.Info("✅ collection exported to %s", args[0])
		return nil
	},
}

// importCmd 集合导入命令
var importCmd = &cobra.Command{
	Use:   "import <input-path>",
	Short: "从 JSON 文件导入向量集合",
	Long:  `从导出的 JSON 文件恢复集合,逐条重新生成向量。已存在的文档按 ID 覆盖。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents()
		if err != nil {
			return err
		}
		defer comps.close()

		imported, err := comps.store.Import(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to import collection: %w", err)
		}
		logx.Info("✅ imported %d documents from %s", imported, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
