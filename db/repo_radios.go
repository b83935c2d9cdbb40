// db/repo_radios.go
package db

import (
	"context"
	"errors"
	"time"

	"radio_fleet_tool/apperror"
	"radio_fleet_tool/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Radios

// CreateRadio inserts inside a transaction so its failure semantics stay
// uniform with update/delete.
func (r *Repo) CreateRadio(ctx context.Context, radio *models.Radio) error {
	return r.withTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(radio).Error
	})
}

// UpdateRadio applies the given column set to one radio. Zero rows touched
// means the record was gone at write time.
func (r *Repo) UpdateRadio(ctx context.Context, id string, cols map[string]any) error {
	return r.withTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Radio{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("radio not found")
		}
		return nil
	})
}

func (r *Repo) UpdateRadioStatus(ctx context.Context, id string, status models.RadioStatus) error {
	return r.UpdateRadio(ctx, id, map[string]any{"status": status})
}

// DeleteRadio removes a radio and everything in its loan history. The status
// check happens inside the same transaction as the deletes, so a concurrent
// borrow cannot slip between the check and the act. Loans go first; a failure
// after a partial cascade then leaves no orphaned radio.
func (r *Repo) DeleteRadio(ctx context.Context, id string, force bool) error {
	return r.withTx(ctx, func(tx *gorm.DB) error {
		var radio models.Radio
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&radio, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("radio not found")
			}
			return err
		}
		if radio.Status == models.StatusOnLoan && !force {
			return apperror.Conflict("cannot delete a radio that is on loan")
		}
		if err := tx.Where("radio_id = ?", id).Delete(&models.Loan{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Radio{}, "id = ?", id).Error
	})
}

// ListRadios returns radios grouped by lifecycle state, alphabetical within
// each group. Clamping of take/skip is the caller's job.
func (r *Repo) ListRadios(ctx context.Context, status *models.RadioStatus, take, skip int) ([]models.Radio, error) {
	q, cancel := r.read(ctx)
	defer cancel()

	q = q.Model(&models.Radio{}).Order("status ASC, call_sign ASC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var radios []models.Radio
	if err := q.Offset(skip).Limit(take).Find(&radios).Error; err != nil {
		return nil, classify(err)
	}
	return radios, nil
}

func (r *Repo) FindRadioByID(ctx context.Context, id string) (*models.Radio, error) {
	q, cancel := r.read(ctx)
	defer cancel()

	var radio models.Radio
	if err := q.First(&radio, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &radio, nil
}

// Loans

// BorrowRadio opens a loan and flips the radio to ON_LOAN in one transaction.
// The row lock plus the partial unique index keep "exactly one open loan per
// ON_LOAN radio" true under concurrent borrows.
func (r *Repo) BorrowRadio(ctx context.Context, radioID, borrowerName string) (*models.Loan, error) {
	var loan *models.Loan
	err := r.withTx(ctx, func(tx *gorm.DB) error {
		var radio models.Radio
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&radio, "id = ?", radioID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("radio not found")
			}
			return err
		}
		if radio.Status != models.StatusAvailable {
			return apperror.Conflict("radio is not available")
		}

		l := &models.Loan{
			ID:           uuid.NewString(),
			RadioID:      radio.ID,
			BorrowerName: borrowerName,
			BorrowedAt:   time.Now().UTC(),
		}
		if err := tx.Create(l).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Radio{}).
			Where("id = ?", radio.ID).
			Update("status", models.StatusOnLoan).Error; err != nil {
			return err
		}
		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// CloseLoan returns a borrowed radio: sets the return timestamp and note on
// the open loan and releases the radio back to AVAILABLE, atomically.
// Returning an already-closed loan is a no-op.
func (r *Repo) CloseLoan(ctx context.Context, loanID string, note *string) (*models.Loan, error) {
	var loan models.Loan
	err := r.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&loan, "id = ?", loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("loan not found")
			}
			return err
		}
		// 幂等：已归还直接返回
		if loan.ReturnedAt != nil {
			return nil
		}
		now := time.Now().UTC()
		loan.ReturnedAt = &now
		loan.ReturnNote = note
		if err := tx.Save(&loan).Error; err != nil {
			return err
		}
		return tx.Model(&models.Radio{}).
			Where("id = ?", loan.RadioID).
			Update("status", models.StatusAvailable).Error
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}
