package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/ngochdusi/chat/internal/config"
	"github.com/ngochdusi/chat/internal/db"
	clog "github.com/ngochdusi/chat/internal/log"
	"github.com/ngochdusi/chat/internal/service"
	"github.com/rs/zerolog/log"
)

// dbsetup 创建全部表与索引，并在已有用户时补建 General 房间。可重复执行。
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	clog.Init(cfg.Env, cfg.LogLevel)

	gdb, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer func() { _ = db.Close(gdb) }()

	if err := db.Ping(gdb); err != nil {
		log.Fatal().Err(err).Msg("db ping")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	if err := service.NewRoomService(gdb).Bootstrap(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("bootstrap default room")
	}
	log.Info().Msg("database setup completed")
}
