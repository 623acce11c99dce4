package db

import (
	"time"

	"github.com/fundtrack/fundtrack/internal/models"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var logger = loggo.GetLogger("fundtrack.db")

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// ConnectDatabase opens a GORM handle for the given driver name
// ("postgres", "mysql" or "sqlite").
func ConnectDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.NotSupportedf("database driver %q", driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(loggo.GetLogger("fundtrack.db.sql"), slowQueryThreshold),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})

	if err != nil {
		return nil, errors.Annotatef(err, "opening %s database", driver)
	}

	logger.Infof("connected to %s database", driver)

	return conn, nil
}

// MigrateDatabase creates missing tables and adds missing columns. It never
// drops anything.
func MigrateDatabase(conn *gorm.DB) error {
	models := []interface{}{
		&models.Company{},
		&models.User{},
		&models.Notification{},
		&models.Project{},
		&models.BudgetCategory{},
		&models.BudgetSubtitle{},
		&models.SpendingRecord{},
	}

	for _, model := range models {
		if err := conn.AutoMigrate(model); err != nil {
			return errors.Annotatef(err, "migrating %T", model)
		}
	}

	return nil
}

// IsUniqueViolation reports whether err comes from a unique constraint.
// Dialectors translate their own codes to gorm.ErrDuplicatedKey; the driver
// checks cover errors that bypass the translator, such as raw Exec calls.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}
