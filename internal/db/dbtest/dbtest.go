// Package dbtest 为测试提供已完成迁移、基于临时文件的 SQLite 连接。
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/ngochdusi/chat/internal/db"
	"gorm.io/gorm"
)

// Open 返回一个开启外键约束的新库，测试结束时自动关闭。
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "chat.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	gdb, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
