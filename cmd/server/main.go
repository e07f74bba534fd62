package main

import (
	"log"

	redisv9 "github.com/redis/go-redis/v9"

	"auth_backend/internal/app/router"
	authadapters "auth_backend/internal/feature/auth/adapters"
	authhandler "auth_backend/internal/feature/auth/transport/handler"
	authusecase "auth_backend/internal/feature/auth/usecase"
	"auth_backend/internal/platform/cache"
	"auth_backend/internal/platform/config"
	infradb "auth_backend/internal/platform/db"
	jwtmw "auth_backend/internal/platform/jwt"
	"auth_backend/internal/platform/password"
	"auth_backend/internal/platform/token"
)

func main() {
	cfg := config.LoadConfig()

	// リセットトークンの署名シークレットは必須（プロセス全体で共有、実行中のローテーションなし）
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY is not set. Set a strong secret before starting.")
	}
	// JWT_SECRETチェック（開発中の注意喚起）
	if cfg.JWTSecret == "" {
		log.Println("[WARN] JWT_SECRET is not set. Set a strong secret in production.")
	}

	// db
	db := infradb.OpenDB()

	// Redis（任意。未設定時は監査履歴の読み取りキャッシュなしで動作）
	var rdb *redisv9.Client
	if cfg.RedisAddr != "" {
		rdb = redisv9.NewClient(&redisv9.Options{Addr: cfg.RedisAddr})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	} else {
		log.Println("[WARN] REDIS_ADDR is not set. Running without audit read cache.")
	}

	// Repository
	userRepo := authadapters.NewUserGorm(db)
	auditRepo := authadapters.NewAuditGorm(db)

	// Redisキャッシュでラップ（読み取り経路のみ。追記は常にDBへ直行）
	cachedAuditRepo := cache.NewCachingAuditRepository(rdb, 0, auditRepo, "audit")

	// Platform services
	hasher := password.NewHasher(0)
	resetTokens := token.NewResetTokenService(cfg.SecretKey)
	jwtGen := jwtmw.NewGenerator(cfg.JWTSecret, cfg.SessionTokenTTL)

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, cachedAuditRepo, hasher, resetTokens, jwtGen,
		authusecase.Config{
			MaxLoginAttempts: cfg.MaxLoginAttempts,
			LockoutDuration:  cfg.LockoutDuration,
			ResetTokenMaxAge: cfg.ResetTokenMaxAge,
		})

	// Handler
	authH := authhandler.NewAuthHandler(authUC)

	// ルータ生成
	router := router.NewRouter(authH)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
