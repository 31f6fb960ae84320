package db

import (
	"fmt"  // Error wrapping
	"time" // Pool lifetimes

	"shop_system/internal/config" // Configuration

	"gorm.io/driver/mysql"    // MySQL driver for GORM
	"gorm.io/driver/postgres" // PostgreSQL driver for GORM
	"gorm.io/driver/sqlite"   // SQLite driver for GORM
	"gorm.io/gorm"            // GORM ORM library
	"gorm.io/gorm/logger"     // GORM logger levels
)

// DSN builds the data source name for the configured driver
func DSN(cfg *config.Config) string {
	if cfg.DatabaseDSN != "" {
		return cfg.DatabaseDSN
	}
	switch cfg.DBDriver {
	case "postgres":
		port := cfg.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, port)
	case "sqlite":
		name := cfg.DBName
		if name == "" {
			name = "shop.db"
		}
		return "file:" + name + "?_foreign_keys=on"
	default:
		port := cfg.DBPort
		if port == "" {
			port = "3306"
		}
		return cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + port + ")/" + cfg.DBName + "?parseTime=true"
	}
}

// Dialector returns the GORM dialector for driver
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: mysql, postgres, sqlite)", driver)
	}
}

// Open connects to the configured database. Driver errors are translated to
// GORM sentinels (ErrDuplicatedKey, ErrForeignKeyViolated) so the services
// can map them without knowing the backend.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.DBDriver, DSN(cfg))
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db: get sql.DB: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1) // SQLite allows a single writer
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetConnMaxIdleTime(2 * time.Minute)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	return db, nil
}
