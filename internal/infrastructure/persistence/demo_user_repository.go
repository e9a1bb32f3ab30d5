package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDemoUserRepository implements identity.DemoUserRepository using GORM
type GormDemoUserRepository struct {
	db *gorm.DB
}

// NewGormDemoUserRepository creates a new GormDemoUserRepository
func NewGormDemoUserRepository(db *gorm.DB) *GormDemoUserRepository {
	return &GormDemoUserRepository{db: db}
}

var _ identity.DemoUserRepository = (*GormDemoUserRepository)(nil)

// FindByEmail finds an account by email, case-insensitively
func (r *GormDemoUserRepository) FindByEmail(ctx context.Context, email string) (*identity.DemoUser, error) {
	var model models.DemoUserModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByEmail checks whether an account uses email
func (r *GormDemoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DemoUserModel{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new account; a duplicate email yields identity.ErrUserExists
func (r *GormDemoUserRepository) Create(ctx context.Context, u *identity.DemoUser) error {
	model := models.DemoUserModelFromDomain(u)
	err := r.db.WithContext(ctx).Create(model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return identity.ErrUserExists
	}
	return err
}

// Upsert inserts the account or updates name and password of the existing one
func (r *GormDemoUserRepository) Upsert(ctx context.Context, u *identity.DemoUser) error {
	model := models.DemoUserModelFromDomain(u)
	model.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "password_hash", "updated_at"}),
	}).Create(model).Error
}

// Count returns the number of stored accounts
func (r *GormDemoUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.DemoUserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// isUniqueViolation covers drivers that do not translate errors
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
