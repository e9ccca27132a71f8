package db

import (
	"errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to MySQL when mysqlDSN is set, otherwise to the SQLite file (":memory:" works too)
func Open(mysqlDSN, sqliteFile string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Warn),
	}
	if mysqlDSN != "" {
		parsed, err := mysqldriver.ParseDSN(mysqlDSN)
		if err != nil {
			return nil, err
		}
		// Timestamps are stored as unix ints, but keep DATETIME columns usable for the session store
		parsed.ParseTime = true
		cfg.PrepareStmt = true
		return gorm.Open(mysql.Open(parsed.FormatDSN()), cfg)
	}
	if sqliteFile == "" {
		return nil, errors.New("neither MYSQL_DSN nor SQLITE_FILE is configured")
	}
	db, err := gorm.Open(sqlite.Open(sqliteFile), cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer; one connection also keeps ":memory:" databases alive
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
