package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"jobtracker/internal/api"
	"jobtracker/internal/database"
	"jobtracker/internal/storage"
	"jobtracker/internal/users"
)

var (
	createUsername string
	createEmail    string
	deleteEmail    string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新 users 与 jobs 表",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "数据库迁移完成")
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "创建用户并生成随机初始密码",
	Long: `创建用户并生成随机初始密码。

密码只在终端输出一次，不以明文保存，请提醒用户首次登录后修改。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		return createUser(cmd.Context(), users.NewStore(db), createUsername, createEmail, cmd.OutOrStdout())
	},
}

var deleteUserCmd = &cobra.Command{
	Use:   "delete-user",
	Short: "删除用户及其全部求职记录与导出文件",
	RunE: func(cmd *cobra.Command, args []string) error {
		var exports prefixDeleter
		if cfg.MinIO.Enabled {
			client, err := storage.NewClient(cmd.Context(), cfg.MinIO)
			if err != nil {
				return fmt.Errorf("init storage: %w", err)
			}
			exports = client
		}
		return deleteUser(cmd.Context(), db, exports, deleteEmail, cmd.OutOrStdout())
	},
}

func init() {
	createUserCmd.Flags().StringVar(&createUsername, "username", "", "用户名（必填）")
	createUserCmd.Flags().StringVar(&createEmail, "email", "", "邮箱（必填）")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("email")

	deleteUserCmd.Flags().StringVar(&deleteEmail, "email", "", "待删除用户的邮箱（必填）")
	_ = deleteUserCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(migrateCmd, createUserCmd, deleteUserCmd)
}

type prefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string, keep ...string) error
}

func createUser(ctx context.Context, store *users.Store, username, email string, out io.Writer) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	password, err := generateRandomPassword(24)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}

	user, err := store.Register(ctx, username, email, password)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(out, "已创建用户：\n")
	fmt.Fprintf(out, "用户 ID: %d\n", user.ID)
	fmt.Fprintf(out, "用户名: %s\n", user.Username)
	fmt.Fprintf(out, "邮箱: %s\n", user.Email)
	fmt.Fprintf(out, "初始密码: %s\n", password)
	fmt.Fprintf(out, "提示：该密码仅显示一次，请登录后立即修改。\n")
	return nil
}

// deleteUser 删除用户及其记录；导出文件清理失败只记录日志。
func deleteUser(ctx context.Context, db *gorm.DB, exports prefixDeleter, email string, out io.Writer) error {
	store := users.NewStore(db)

	user, err := store.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	if err := store.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if exports != nil {
		if err := exports.DeletePrefix(ctx, api.ExportPrefix(user.ID)); err != nil {
			slog.Default().Error("delete user exports failed",
				slog.Uint64("user_id", uint64(user.ID)),
				slog.Any("error", err),
			)
		}
	}

	fmt.Fprintf(out, "已删除用户 %s (ID %d) 及其全部求职记录\n", user.Username, user.ID)
	return nil
}

func generateRandomPassword(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 24
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
