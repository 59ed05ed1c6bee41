package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/spf13/cobra"
)

var resetYes bool

// resetCmd 集合清空命令
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "清空向量集合",
	Long:  `删除集合中的全部文档。该操作不可恢复。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			fmt.Printf("This will delete all documents in collection '%s'. Continue? [y/N]: ", cfg.Vector.CollectionName)
			reader := bufio.NewReader(os.Stdin)
			line, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(line)) != "y" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		comps, err := buildComponents()
		if err != nil {
			return err
		}
		defer comps.close()

		if err := comps.store.Reset(context.Background()); err != nil {
			return fmt.Errorf("failed to reset collection: %w", err)
		}
		logx.Info("✅ collection %s reset", cfg.Vector.CollectionName)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "跳过确认直接清空")
	rootCmd.AddCommand(resetCmd)
}
