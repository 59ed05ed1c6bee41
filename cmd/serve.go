package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/auth"
	"github.com/eryajf/medqa/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd 启动 HTTP 服务
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP API 服务",
	Long:  `启动 HTTP API 服务,对外提供问答、文献入库和向量集合管理接口。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents()
		if err != nil {
			return err
		}
		defer comps.close()

		verifier := auth.NewGormVerifier(comps.db)
		srv := server.NewHTTPServer(cfg, comps.qaEngine, comps.processor, comps.store, verifier)

		// 启动服务
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		// 等待退出信号
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			logx.Info("received signal %s, shutting down", sig)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		logx.Info("✅ server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
