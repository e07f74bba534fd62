// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"
)

// userGorm はUserRepositoryインターフェースのGORM実装です。
// PostgreSQLと（テスト用の）SQLiteの両方で動作します。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタです。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// normalizeUser はロード直後のタイムスタンプをUTCへ正規化します。
// ドライバによってはオフセット情報のないローカル時刻が返るため、
// 比較前に必ず単一の基準ゾーンへ揃えます。
func normalizeUser(u *entity.User) {
	if u.LockedUntil != nil {
		t := u.LockedUntil.UTC()
		u.LockedUntil = &t
	}
	if u.LastLogin != nil {
		t := u.LastLogin.UTC()
		u.LastLogin = &t
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
}

// Create はユーザーをデータベースに追加します。
// 一意性の根拠はメールアドレスのユニーク制約です。並行登録が先に同じメール
// アドレスを使用した場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		// TranslateError有効時、ユニーク制約違反はErrDuplicatedKeyへ変換される
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。照合は保存値との完全一致です。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	normalizeUser(&u)
	return &u, nil
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	normalizeUser(&u)
	return &u, nil
}

// IncrementFailedAttempts は失敗回数を行レベルのSQL式で1増加させ、増加後の値を返します。
// アプリケーションメモリ上のread-modify-writeではないため、同一アカウントへの
// 並行試行でも更新が失われることはありません。単独のステートメントとして
// 即座にコミットされ、後続処理の失敗に影響されません。
func (r *userGorm) IncrementFailedAttempts(ctx context.Context, id uint) (int, error) {
	res := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).
		Update("failed_login_attempts", gorm.Expr("failed_login_attempts + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, usecase.ErrUserNotFound
	}

	var attempts int
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).
		Select("failed_login_attempts").Scan(&attempts).Error; err != nil {
		return 0, err
	}
	return attempts, nil
}

// Lock はアカウントをロック状態へ遷移させます。
func (r *userGorm) Lock(ctx context.Context, id uint, until time.Time) error {
	res := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_locked":    true,
			"locked_until": until.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// Unlock はロックを解除し、失敗回数とロック期限をクリアします。
func (r *userGorm) Unlock(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_locked":             false,
			"failed_login_attempts": 0,
			"locked_until":          nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// RecordLogin はログイン成功時の書き込みを単一トランザクションでコミットします。
// last_loginの更新・失敗回数のリセット・監査行の追加が全て成功するか、
// 全てロールバックされるかのいずれかです。
func (r *userGorm) RecordLogin(ctx context.Context, id uint, at time.Time, audit *entity.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.User{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"last_login":            at.UTC(),
				"failed_login_attempts": 0,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrUserNotFound
		}
		return tx.Create(audit).Error
	})
}

// UpdatePasswordAndUnlock は新しいパスワードハッシュを設定し、ロック関連の
// フィールドを無条件にクリアします。
func (r *userGorm) UpdatePasswordAndUnlock(ctx context.Context, id uint, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash":         passwordHash,
			"is_locked":             false,
			"failed_login_attempts": 0,
			"locked_until":          nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}
