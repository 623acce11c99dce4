package db

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger sends GORM output to a loggo logger. Missing records are
// expected lookups, not failures, and are only traced.
type gormLogger struct {
	logger loggo.Logger
	level  gormlogger.LogLevel
	slow   time.Duration
}

func newGormLogger(logger loggo.Logger, slow time.Duration) gormlogger.Interface {
	return &gormLogger{logger: logger, level: gormlogger.Warn, slow: slow}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.Infof(msg, args...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.Warningf(msg, args...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.Errorf(msg, args...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.logger.Errorf("%v [%v, %d rows] %s", err, elapsed, rows, sql)
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger.Warningf("slow query [%v > %v, %d rows] %s", elapsed, l.slow, rows, sql)
	case l.logger.IsTraceEnabled():
		sql, rows := fc()
		l.logger.Tracef("%s", describe(sql, rows, elapsed, err))
	}
}

func describe(sql string, rows int64, elapsed time.Duration, err error) string {
	if err != nil {
		return fmt.Sprintf("%v [%v, %d rows] %s", err, elapsed, rows, sql)
	}
	return fmt.Sprintf("[%v, %d rows] %s", elapsed, rows, sql)
}
