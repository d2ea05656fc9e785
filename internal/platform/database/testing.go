package database

import (
	"testing"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenTest 打开一个测试专用的内存 SQLite 库，测试结束自动关闭
func OpenTest(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := Open(Options{
		Driver: "sqlite",
		DSN:    "file::memory:?_pragma=foreign_keys(1)",
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })
	return db
}
