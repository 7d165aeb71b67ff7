package database

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// GetDB returns the process-wide connection opened by SetupDatabase.
func GetDB() *gorm.DB {
	return DB
}

// SetupDatabase opens the configured database, retrying while MySQL is
// still starting up, and migrates the schema.
func SetupDatabase() {
	var err error
	driver := env.GetEnv("DB_DRIVER", "mysql")

	for i := 0; i < maxRetries; i++ {
		DB, err = Open(driver)
		if err == nil {
			if err = Migrate(DB); err != nil {
				panic(err)
			}
			log.Infof("[Database] connected using %s driver", driver)
			return
		}

		log.Warnf("[Database] failed to connect (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Infof("[Database] retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// Open connects with the named driver using the DB_* environment keys.
func Open(driver string) (*gorm.DB, error) {
	switch driver {
	case "mysql":
		return OpenMySQL(MySQLDSN())
	case "sqlite":
		return OpenSQLite(env.GetEnv("DB_PATH", "telfera.db"))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// MySQLDSN builds "user:pass@tcp(host:port)/dbname?..." from the environment.
func MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)
}

func OpenMySQL(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.New(mysql.Config{
		DSN:                       dsn,   // data source name
		DefaultStringSize:         256,   // default size for string fields
		DisableDatetimePrecision:  true,  // disable datetime precision, which not supported before MySQL 5.6
		DontSupportRenameIndex:    true,  // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
		DontSupportRenameColumn:   true,  // `change` when rename column, rename column not supported before MySQL 8, MariaDB
		SkipInitializeWithVersion: false, // auto configure based on currently MySQL version
	}), &gorm.Config{})
}

// OpenSQLite opens a file or memory database. SQLite allows a single writer,
// so the pool is capped to one connection.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// OpenMemory returns a fresh, migrated in-memory database. Every call gets
// its own isolated schema.
func OpenMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:telfera-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := OpenSQLite(dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate keeps the schema of all persisted models up to date.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Lead{},
		&models.AuditLog{},
	)
}
