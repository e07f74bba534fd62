// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8

	// dummyPasswordHash はユーザーが存在しない場合のタイミング攻撃緩和用ダミーハッシュです。
	// bcrypt比較が常に実行されることを保証します。
	dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrEmailAlreadyExistsを返します。
	// 一意性の根拠はDBのユニーク制約であり、事前チェックではありません。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	// メールアドレスは保存値との完全一致で照合されます。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// IncrementFailedAttempts は失敗回数を行レベルのSQL式でちょうど1増加させ、
	// 増加後の値を返します。単独のステートメントとして即座にコミットされるため、
	// 後続処理が失敗してもカウントは失われません。
	IncrementFailedAttempts(ctx context.Context, id uint) (int, error)

	// Lock はアカウントをロック状態に遷移させます。
	Lock(ctx context.Context, id uint, until time.Time) error

	// Unlock はロックを解除し、失敗回数を0にリセットし、ロック期限をクリアします。
	Unlock(ctx context.Context, id uint) error

	// RecordLogin はログイン成功時の書き込み（last_login更新、失敗回数リセット、
	// 監査行の追加）を単一トランザクションでコミットします。
	RecordLogin(ctx context.Context, id uint, at time.Time, audit *entity.AuditLog) error

	// UpdatePasswordAndUnlock は新しいパスワードハッシュを設定し、ロック状態・
	// 失敗回数・ロック期限を無条件にクリアします。パスワードリセットの完了は
	// 以前のロック状態に関わらずアカウントを再び利用可能にします。
	UpdatePasswordAndUnlock(ctx context.Context, id uint, passwordHash string) error
}

// AuditRepository はログイン試行の監査ログを抽象化します。
type AuditRepository interface {
	// Record は監査行を1件追加します。追加された行は変更・削除されません。
	Record(ctx context.Context, log *entity.AuditLog) error

	// RecentByUser は指定ユーザーの監査行を新しい順に最大limit件返します。
	RecentByUser(ctx context.Context, userID uint, limit int) ([]entity.AuditLog, error)
}

// PasswordHasher はパスワードのハッシュ化と検証を抽象化します。
type PasswordHasher interface {
	// Hash は平文パスワードからソルト付きハッシュを生成します。
	Hash(plaintext string) (string, error)
	// Compare はハッシュと平文を定数時間で比較します。
	Compare(hash, plaintext string) bool
}

// ResetTokenService は署名付きパスワードリセットトークンを抽象化します。
type ResetTokenService interface {
	// Issue は指定ユーザーに紐づく署名付きトークンを発行します。
	Issue(userID uint) (string, error)
	// Verify はトークンの署名と経過時間を検証し、ユーザーIDを返します。
	// 失敗理由（改ざん・不正形式・期限切れ）は呼び出し側から区別できません。
	Verify(token string, maxAge time.Duration) (uint, bool)
}

// JWTGenerator はJWTトークン生成のインターフェースを定義します。
type JWTGenerator interface {
	// GenerateToken は指定されたユーザーの署名済みJWTトークンを生成します。
	GenerateToken(userID uint, email string) (string, error)
}

// Config は状態機械の調整パラメータを保持します。
type Config struct {
	// MaxLoginAttempts はロックが発動する連続失敗回数の閾値です。
	MaxLoginAttempts int
	// LockoutDuration はロックの継続時間です。
	LockoutDuration time.Duration
	// ResetTokenMaxAge はリセットトークンの最大有効期間です。
	ResetTokenMaxAge time.Duration
}

// authUsecase は認証ビジネスロジック（アカウントセキュリティ状態機械）を実装します。
type authUsecase struct {
	users        UserRepository
	audits       AuditRepository
	hasher       PasswordHasher
	resetTokens  ResetTokenService
	jwtGenerator JWTGenerator
	cfg          Config
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, audits AuditRepository, hasher PasswordHasher,
	resetTokens ResetTokenService, jwtGenerator JWTGenerator, cfg Config) *authUsecase {
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	if cfg.ResetTokenMaxAge <= 0 {
		cfg.ResetTokenMaxAge = 1800 * time.Second
	}
	return &authUsecase{
		users:        users,
		audits:       audits,
		hasher:       hasher,
		resetTokens:  resetTokens,
		jwtGenerator: jwtGenerator,
		cfg:          cfg,
	}
}

// validatePassword はパスワードがセキュリティ要件を満たしているかチェックします。
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, minPasswordLength)
	}
	return nil
}

// validateEmail はメールアドレスの形式をチェックします。
func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return nil
}

// Signup はハッシュ化されたパスワードで新規ユーザーを登録します。
// メールアドレスの一意性はストレージのユニーク制約で保証されます。
func (u *authUsecase) Signup(ctx context.Context, email, password string) (*entity.User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hashed, err := u.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &entity.User{Email: email, PasswordHash: hashed}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("%w: %v", ErrTransientStorage, err)
	}
	return user, nil
}

// Login はログイン試行を評価し、成功時にユーザーとJWTトークンを返します。
//
// アカウントはユーザーごとに Active / Locked / Locked-Expired の3状態を持ちます。
//  1. ユーザーが存在しない場合でもbcrypt比較を実行し、応答もタイミングも
//     パスワード不一致と同一にします（監査行はuser_idがないため残しません）。
//  2. Locked状態ではlocked_untilと現在時刻を比較します。期限内なら
//     AccountLockedErrorを返し、カウンタも監査行も変更しません。期限切れなら
//     明示的にActiveへ遷移させてから新規の試行として評価します。
//  3. パスワード不一致時は行レベルの原子的インクリメントで失敗回数を加算し、
//     加算後の値が閾値以上ならLockedへ遷移させます。加算は単独でコミット
//     されるため、後続の失敗でカウントが失われることはありません。
func (u *authUsecase) Login(ctx context.Context, email, password, clientIP string) (*entity.User, string, error) {
	now := time.Now().UTC()

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// タイミング攻撃防止のため、未登録メールでも必ず比較を実行する
			u.hasher.Compare(dummyPasswordHash, password)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("%w: %v", ErrTransientStorage, err)
	}

	if user.IsLocked {
		if user.LockedUntil == nil {
			// 手動ロック。期限がないためリセット以外では解除されない
			return nil, "", &AccountLockedError{Indefinite: true}
		}
		if !user.LockExpired(now) {
			// ロック確認は試行ではないため、カウンタも監査行も変更しない
			return nil, "", &AccountLockedError{RetryAfter: user.LockRemaining(now)}
		}
		// Locked-Expired: 新規試行の評価前に明示的にActiveへ戻す
		if err := u.users.Unlock(ctx, user.ID); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrTransientStorage, err)
		}
		user.IsLocked = false
		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
	}

	if u.hasher.Compare(user.PasswordHash, password) {
		audit := &entity.AuditLog{
			UserID:        user.ID,
			Timestamp:     now,
			IPAddress:     clientIP,
			WasSuccessful: true,
		}
		// last_login更新・カウンタリセット・監査行追加は単一トランザクション。
		// コミット失敗時は「ログイン済みだが未記録」の状態を残さない
		if err := u.users.RecordLogin(ctx, user.ID, now, audit); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrTransientStorage, err)
		}
		user.LastLogin = &now
		user.FailedLoginAttempts = 0

		token, err := u.jwtGenerator.GenerateToken(user.ID, user.Email)
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate token: %w", err)
		}
		return user, token, nil
	}

	// パスワード不一致。インクリメントは単独ステートメントで先にコミットされる
	attempts, err := u.users.IncrementFailedAttempts(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrTransientStorage, err)
	}
	if attempts >= u.cfg.MaxLoginAttempts {
		until := now.Add(u.cfg.LockoutDuration)
		if err := u.users.Lock(ctx, user.ID, until); err != nil {
			// インクリメントは既に永続化済み。失敗は呼び出し側にリトライさせる
			return nil, "", fmt.Errorf("%w: %v", ErrTransientStorage, err)
		}
	}
	audit := &entity.AuditLog{
		UserID:        user.ID,
		Timestamp:     now,
		IPAddress:     clientIP,
		WasSuccessful: false,
	}
	if err := u.audits.Record(ctx, audit); err != nil {
		// 監査行を黙って失うことはできない。カウントは既に永続化済み
		return nil, "", fmt.Errorf("%w: %v", ErrTransientStorage, err)
	}
	return nil, "", ErrInvalidCredentials
}

// RequestPasswordReset は指定メールアドレスのユーザーにリセットトークンを発行します。
// メールアドレスが未登録の場合はトークンなしで正常終了し、存在有無を漏らしません。
// トークンの配送（メール送信等）は呼び出し側の責務です。
func (u *authUsecase) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrTransientStorage, err)
	}
	token, err := u.resetTokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue reset token: %w", err)
	}
	return token, nil
}

// CompletePasswordReset はリセットトークンを検証し、新しいパスワードを設定します。
// 成功時はロック状態・失敗回数・ロック期限を無条件にクリアします。
func (u *authUsecase) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	userID, ok := u.resetTokens.Verify(token, u.cfg.ResetTokenMaxAge)
	if !ok {
		return ErrInvalidOrExpiredToken
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hashed, err := u.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := u.users.UpdatePasswordAndUnlock(ctx, userID, hashed); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("%w: %v", ErrTransientStorage, err)
	}
	return nil
}

// RecentLogins は指定ユーザーのログイン試行履歴を新しい順に返します。
func (u *authUsecase) RecentLogins(ctx context.Context, userID uint, limit int) ([]entity.AuditLog, error) {
	if limit <= 0 {
		limit = 20
	}
	entries, err := u.audits.RecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientStorage, err)
	}
	return entries, nil
}
