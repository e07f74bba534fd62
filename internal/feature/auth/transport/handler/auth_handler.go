// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"auth_backend/internal/api"
	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/transport/http/dto"
	"auth_backend/internal/feature/auth/usecase"
	jwtmw "auth_backend/internal/platform/jwt"
)

// maxAuditLimit は1リクエストで返す監査行数の上限です。
const maxAuditLimit = 100

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Signup は指定されたメールアドレスとパスワードで新規ユーザーを登録します。
	Signup(ctx context.Context, email, password string) (*entity.User, error)
	// Login はログイン試行を評価し、成功時にユーザーとJWTトークンを返します。
	Login(ctx context.Context, email, password, clientIP string) (*entity.User, string, error)
	// RequestPasswordReset はリセットトークンを発行します。未登録メールでは空文字を返します。
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	// CompletePasswordReset はトークンを検証し、新しいパスワードを設定します。
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
	// RecentLogins は指定ユーザーのログイン試行履歴を新しい順に返します。
	RecentLogins(ctx context.Context, userID uint, limit int) ([]entity.AuditLog, error)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
// AuthUsecaseインターフェースに依存し、JSONリクエスト/レスポンスを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタで、外部からAuthUsecaseを注入します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Signup はユーザー登録APIエンドポイントを処理します。
// - リクエストJSONをSignupReqにバインド
// - バリデーションエラー時は400を返却
// - メール重複時は409を返却
// - 成功時は201を返却
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if _, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmailAlreadyExists):
			// 大文字小文字の揺らぎによる一致かどうかは明かさない
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "email address is already registered"})
		case errors.Is(err, usecase.ErrValidation):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			slog.Error("signup failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "temporary failure, please retry"})
		}
		return
	}
	slog.Info("user signup successful", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, api.MessageResponse{Message: "account created successfully"})
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - リクエストJSONをLoginReqにバインド
// - バリデーションエラー時は400を返却
// - 認証失敗時は401を返却（メール誤りとパスワード誤りは区別されない）
// - ロック中は423を返却（残り時間を分単位で通知）
// - 認証成功時はJWTトークン付きで200を返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		var locked *usecase.AccountLockedError
		switch {
		case errors.As(err, &locked):
			slog.Warn("login rejected, account locked", "email", req.Email, "remote_addr", c.ClientIP())
			resp := api.LockedResponse{Error: "account locked due to too many failed attempts"}
			if !locked.Indefinite {
				minutes := locked.RetryAfterMinutes()
				resp.RetryAfterMinutes = &minutes
			}
			c.JSON(http.StatusLocked, resp)
		case errors.Is(err, usecase.ErrTransientStorage):
			slog.Error("login attempt could not be committed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "temporary failure, please retry"})
		default:
			// ユーザー列挙攻撃を防止するため、実際のエラーを公開しない
			slog.Warn("login failed", "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid email or password"})
		}
		return
	}
	slog.Info("user login successful", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, api.LoginResponse{
		Token: token,
		User: api.User{
			Id:        user.ID,
			Email:     openapi_types.Email(user.Email),
			LastLogin: user.LastLogin,
		},
	})
}

// Logout はログアウトAPIエンドポイントを処理します。
// セッションはステートレスなJWTのため、サーバー側に破棄すべき状態はなく、
// クライアントがトークンを破棄することでセッションが終了します。
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, api.MessageResponse{Message: "you have been logged out"})
}

// RequestPasswordReset はパスワードリセット要求APIエンドポイントを処理します。
// メールアドレスの存在有無を漏らさないため、常に202を返します。
// 発行されたトークンの配送（メール送信等）はこのコアの責務外です。
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.PasswordResetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("password reset validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	token, err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		slog.Error("password reset request failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "temporary failure, please retry"})
		return
	}
	if token != "" {
		// トークン自体はログに残さない
		slog.Info("password reset token issued", "email", req.Email)
	}
	c.JSON(http.StatusAccepted, api.MessageResponse{Message: "if the address is registered, reset instructions have been sent"})
}

// CompletePasswordReset はパスワードリセット完了APIエンドポイントを処理します。
// 不正・改ざん・期限切れのトークンはすべて同一の401で拒否されます。
func (h *AuthHandler) CompletePasswordReset(c *gin.Context) {
	var req dto.PasswordResetCompleteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("password reset completion validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.auth.CompletePasswordReset(c.Request.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidOrExpiredToken):
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid or expired reset token"})
		case errors.Is(err, usecase.ErrValidation):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			slog.Error("password reset completion failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "temporary failure, please retry"})
		}
		return
	}
	slog.Info("password reset completed", "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, api.MessageResponse{Message: "password has been reset"})
}

// RecentLogins は認証済みユーザーのログイン履歴APIエンドポイントを処理します。
// JWTミドルウェアがコンテキストに設定したユーザーIDを使用します。
func (h *AuthHandler) RecentLogins(c *gin.Context) {
	v, ok := c.Get(jwtmw.ContextUserID)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing bearer token"})
		return
	}
	userID, ok := v.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid token"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	logs, err := h.auth.RecentLogins(c.Request.Context(), userID, limit)
	if err != nil {
		slog.Error("audit query failed", "error", err, "user_id", userID)
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "temporary failure, please retry"})
		return
	}

	entries := make([]api.AuditEntry, 0, len(logs))
	for _, l := range logs {
		e := api.AuditEntry{
			Timestamp:     l.Timestamp,
			WasSuccessful: l.WasSuccessful,
		}
		if l.IPAddress != "" {
			ip := l.IPAddress
			e.IpAddress = &ip
		}
		entries = append(entries, e)
	}
	c.JSON(http.StatusOK, api.AuditEntryList{Entries: entries})
}
