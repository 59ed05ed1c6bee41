package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eryajf/medqa/internal/qa"
	"github.com/spf13/cobra"
)

// questionAnswerer 交互会话所需的最小问答接口
type questionAnswerer interface {
	AskQuestion(ctx context.Context, question string, opts qa.AskOptions) *qa.QAResponse
}

// interactiveCmd 交互式问答会话
var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "进入交互式问答会话",
	Long:  `进入交互式问答会话,逐条输入健康问题并查看回答。输入 quit/exit 或 Ctrl+D 退出。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents()
		if err != nil {
			return err
		}
		defer comps.close()

		return runInteractiveSession(context.Background(), comps.qaEngine, os.Stdin, os.Stdout)
	},
}

// runInteractiveSession 逐行读取问题并原样输出结构化响应
// 空行跳过,quit/exit 或输入流结束时退出
func runInteractiveSession(ctx context.Context, engine questionAnswerer, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Ask a health question (type 'quit' to exit):")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "quit" || question == "exit" {
			break
		}

		resp := engine.AskQuestion(ctx, question, qa.AskOptions{IncludeSources: true})
		data, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(out, string(data))
	}

	return scanner.Err()
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
