package db

import (
	"log"
	"os"
	"strings"
	"time"

	gpostgres "gorm.io/driver/postgres"
	gsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"auth_backend/internal/feature/auth/domain/entity"
)

// DialectorFor selects the gorm dialector for a DSN.
// A postgres:// (or postgresql://) URL opens PostgreSQL via pgx; anything
// else is treated as a SQLite file path, matching the development default.
func DialectorFor(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return gpostgres.Open(dsn)
	}
	return gsqlite.Open(dsn)
}

// OpenDB opens the database configured by DATABASE_URL (default: a local
// SQLite file) and retries for up to 60 seconds while the server comes up.
// TranslateError is enabled so unique-constraint violations surface as
// gorm.ErrDuplicatedKey across drivers.
func OpenDB() *gorm.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "app.db"
	}

	var (
		db  *gorm.DB
		err error
	)

	deadline := time.Now().Add(60 * time.Second)
	for {
		db, err = gorm.Open(DialectorFor(dsn), &gorm.Config{TranslateError: true})
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			log.Fatalf("DB connect failed after 60s: %v", err)
		}
		log.Printf("DB connect failed, retrying...: %v", err)
		time.Sleep(3 * time.Second)
	}

	if os.Getenv("RUN_MIGRATIONS") == "true" {
		// マイグレーション（User, AuditLog）
		if err := db.AutoMigrate(
			&entity.User{},
			&entity.AuditLog{},
		); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	return db
}
