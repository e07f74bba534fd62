package adapters

import (
	"context"

	"gorm.io/gorm"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"
)

// auditGorm はAuditRepositoryインターフェースのGORM実装です。
// 監査ログは追記専用で、更新・削除の操作は提供しません。
type auditGorm struct {
	db *gorm.DB
}

// auditGormがAuditRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.AuditRepository = (*auditGorm)(nil)

// NewAuditGorm は指定されたgorm.DB接続でauditGormの新しいインスタンスを生成します。
func NewAuditGorm(db *gorm.DB) *auditGorm {
	return &auditGorm{db: db}
}

// Record は監査行を1件追加します。
func (r *auditGorm) Record(ctx context.Context, log *entity.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// RecentByUser は指定ユーザーの監査行を新しい順に最大limit件返します。
// 同一タイムスタンプの行はIDの降順で安定的に並びます。
func (r *auditGorm) RecentByUser(ctx context.Context, userID uint, limit int) ([]entity.AuditLog, error) {
	var logs []entity.AuditLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	for i := range logs {
		logs[i].Timestamp = logs[i].Timestamp.UTC()
	}
	return logs, nil
}
