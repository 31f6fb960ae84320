// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"os"            // Test database settings
	"path/filepath" // Temp database paths
	"testing"       // Test helpers

	"shop_system/internal/config" // Configuration
	"shop_system/internal/db"     // Database connection and migration
	"shop_system/internal/domain" // Domain models
	"shop_system/internal/utils"  // Tokens, passwords and cache

	"github.com/shopspring/decimal" // Exact decimal money
	"gorm.io/gorm"                  // GORM ORM library
)

// BcryptCost keeps fixtures fast; production code enforces config.MinBcryptCost.
const BcryptCost = 4

// NewDB opens a migrated SQLite database in a temp dir, closed on cleanup.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := &config.Config{DBDriver: "sqlite", DBName: filepath.Join(t.TempDir(), "shop.db")}
	gdb, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// NewServerDB opens the database named by TEST_DATABASE_DSN (driver from
// TEST_DB_DRIVER, mysql by default) so concurrency tests can run against a
// real server. Without it the test gets a private SQLite database.
func NewServerDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		return NewDB(t)
	}
	driver := os.Getenv("TEST_DB_DRIVER")
	if driver == "" {
		driver = "mysql"
	}
	gdb, err := db.Open(&config.Config{DBDriver: driver, DatabaseDSN: dsn})
	if err != nil {
		t.Fatalf("open %s test db: %v", driver, err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate %s test db: %v", driver, err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// CreateUser inserts a user with the given role and password.
func CreateUser(t testing.TB, gdb *gorm.DB, email, password string, role domain.Role) domain.User {
	t.Helper()
	hash, err := utils.HashPassword(password, BcryptCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := domain.User{Email: email, Password: hash, Role: role}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateProduct inserts a product priced at price with stock units.
func CreateProduct(t testing.TB, gdb *gorm.DB, name, price string, stock int) domain.Product {
	t.Helper()
	p := domain.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	if err := gdb.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}
