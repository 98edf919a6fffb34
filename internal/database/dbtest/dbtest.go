// Package dbtest 为测试提供相互隔离的内存 sqlite 数据库。
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobtracker/internal/config"
	"jobtracker/internal/database"
)

// New 打开一个已迁移的内存数据库，测试结束时自动关闭。
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	db, err := database.InitDatabase(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   dsn,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
