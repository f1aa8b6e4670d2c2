package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slowQueryThreshold marks queries logged at warn level.
const slowQueryThreshold = 200 * time.Millisecond

// gormLogger sends gorm output to the global zerolog logger. Missing
// records are expected lookups and are not logged.
type gormLogger struct {
	level logger.LogLevel
}

func newGormLogger() logger.Interface {
	return gormLogger{level: logger.Warn}
}

func (l gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	l.level = level
	return l
}

func (l gormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		log.Info().Str("component", "gorm").Msg(fmt.Sprintf(msg, args...))
	}
}

func (l gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		log.Warn().Str("component", "gorm").Msg(fmt.Sprintf(msg, args...))
	}
}

func (l gormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		log.Error().Str("component", "gorm").Msg(fmt.Sprintf(msg, args...))
	}
}

func (l gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var event *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		event = log.Error().Err(err)
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		event = log.Warn().Bool("slow", true)
	default:
		event = log.Debug()
	}
	if !event.Enabled() {
		return
	}

	sql, rows := fc()
	event.Str("component", "gorm").
		Dur("elapsed", elapsed).
		Int64("rows", rows).
		Str("sql", sql).
		Msg("query")
}
