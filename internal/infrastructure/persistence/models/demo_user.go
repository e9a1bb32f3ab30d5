package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
)

// BaseModel provides common persistence fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// DemoUserModel is the persistence model for demo-mode accounts
type DemoUserModel struct {
	BaseModel
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name         string `gorm:"type:varchar(100);not null"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (DemoUserModel) TableName() string {
	return "demo_users"
}

// ToDomain converts the model to a domain DemoUser
func (m *DemoUserModel) ToDomain() *identity.DemoUser {
	return &identity.DemoUser{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// DemoUserModelFromDomain creates a persistence model from a domain DemoUser
func DemoUserModelFromDomain(u *identity.DemoUser) *DemoUserModel {
	return &DemoUserModel{
		BaseModel: BaseModel{
			ID:        u.ID,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		},
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
	}
}
