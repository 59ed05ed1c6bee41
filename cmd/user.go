package cmd

import (
	"fmt"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/database"
	"github.com/eryajf/medqa/internal/model"
	"github.com/spf13/cobra"
)

var (
	userPassword string
	userRoles    []string
)

// userCmd 用户管理命令组
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "管理 API 用户",
	Long:  `管理 HTTP API 的登录用户。仅在 auth.enabled 为 true 时需要。`,
}

// userAddCmd 创建用户
var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "创建用户",
	Long:  `创建一个可登录 HTTP API 的用户。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userPassword == "" {
			return fmt.Errorf("password is required, use --password")
		}

		db, err := database.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close(db)

		user := &model.User{
			Username: args[0],
			Roles:    strings.Join(userRoles, ","),
			Enabled:  true,
		}
		if err := user.SetPassword(userPassword); err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		if err := db.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		logx.Info("✅ user %s created", args[0])
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVarP(&userPassword, "password", "p", "", "用户密码")
	userAddCmd.Flags().StringSliceVar(&userRoles, "roles", []string{"user"}, "用户角色")
	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd)
}
