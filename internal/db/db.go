package db

import (
	"time"

	"github.com/ngochdusi/chat/internal/models"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open 用给定方言打开连接池。所有语句经 QueryLogger 记录耗时与行数，唯一约束冲突统一翻译为 gorm.ErrDuplicatedKey。
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewQueryLogger(200 * time.Millisecond),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return gdb, nil
}

// Connect 负责建立到 Postgres 的连接，并带有简单的重试来等待容器就绪。
func Connect(dsn string) (*gorm.DB, error) {
	var err error
	for i := 0; i < 10; i++ {
		var gdb *gorm.DB
		gdb, err = Open(postgres.Open(dsn))
		if err == nil {
			return gdb, nil
		}
		time.Sleep(time.Duration(500+i*200) * time.Millisecond)
	}
	return nil, errors.Wrap(err, "db.Connect")
}

// Migrate 在一个事务里创建全部表、外键与索引。
func Migrate(gdb *gorm.DB) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(models.All()...)
	})
}

// Ping 检查连接池能否拿到一条可用连接。
func Ping(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close 释放连接池，停服时调用。
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
