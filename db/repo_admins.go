package db

import (
	"context"
	"errors"

	"radio_fleet_tool/apperror"
	"radio_fleet_tool/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admins

// FindAdminByUsername returns (nil, nil) when no such admin exists, so the
// caller can equalize timing between unknown-user and wrong-password.
func (r *Repo) FindAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	q, cancel := r.read(ctx)
	defer cancel()

	var a models.AdminUser
	if err := q.First(&a, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return &a, nil
}

func (r *Repo) FindAdminByID(ctx context.Context, id string) (*models.AdminUser, error) {
	q, cancel := r.read(ctx)
	defer cancel()

	var a models.AdminUser
	if err := q.First(&a, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

// UpdateAdminCredentials writes the given columns. Username uniqueness is
// enforced by the write itself (unique index -> conflict), never trusted
// from a prior read.
func (r *Repo) UpdateAdminCredentials(ctx context.Context, id string, cols map[string]any) error {
	return r.withTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.AdminUser{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("admin not found")
		}
		return nil
	})
}

// FindOrCreateFederatedAdmin maps an identity-provider login onto a local
// principal. Federated accounts carry no password hash.
func (r *Repo) FindOrCreateFederatedAdmin(ctx context.Context, username string) (*models.AdminUser, error) {
	q, cancel := r.read(ctx)
	defer cancel()

	var a models.AdminUser
	err := q.Where("username = ?", username).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		a = models.AdminUser{ID: uuid.NewString(), Username: username}
		if err := q.Create(&a).Error; err != nil {
			return nil, classify(err)
		}
		return &a, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

func (r *Repo) CountAdmins(ctx context.Context) (int64, error) {
	q, cancel := r.read(ctx)
	defer cancel()

	var n int64
	if err := q.Model(&models.AdminUser{}).Count(&n).Error; err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func (r *Repo) CreateAdmin(ctx context.Context, a *models.AdminUser) error {
	return r.withTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(a).Error
	})
}
