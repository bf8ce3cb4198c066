package db

import (
	"context"
	"time"

	"github.com/ngochdusi/chat/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// QueryLogger 把 gorm 的日志接到 zerolog 上，并为每条语句上报耗时指标。
type QueryLogger struct {
	level         logger.LogLevel
	slowThreshold time.Duration
}

func NewQueryLogger(slowThreshold time.Duration) *QueryLogger {
	return &QueryLogger{level: logger.Info, slowThreshold: slowThreshold}
}

func (l *QueryLogger) LogMode(level logger.LogLevel) logger.Interface {
	n := *l
	n.level = level
	return &n
}

func (l *QueryLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		log.Info().Msgf(msg, args...)
	}
}

func (l *QueryLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		log.Warn().Msgf(msg, args...)
	}
}

func (l *QueryLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		log.Error().Msgf(msg, args...)
	}
}

// ParamsFilter 丢弃绑定参数，日志里的 SQL 只保留占位符，避免会话令牌、密码哈希与消息内容落盘。
func (l *QueryLogger) ParamsFilter(ctx context.Context, sql string, params ...interface{}) (string, []interface{}) {
	return sql, nil
}

// Trace 在每条语句执行后被调用。未找到记录不算错误，由调用方决定语义。
func (l *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	metrics.ObserveQuery(elapsed, failed)

	var ev *zerolog.Event
	switch {
	case failed && l.level >= logger.Error:
		ev = log.Error().Err(err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		ev = log.Warn().Dur("threshold", l.slowThreshold)
	case l.level >= logger.Info:
		ev = log.Debug()
	default:
		return
	}
	sql, rows := fc()
	ev.Str("sql", sql).Dur("duration", elapsed).Int64("rows", rows).Msg("executed query")
}
