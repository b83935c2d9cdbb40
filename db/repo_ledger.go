// db/repo_ledger.go
package db

import (
	"context"

	"radio_fleet_tool/ledger"
	"radio_fleet_tool/models"

	"gorm.io/gorm"
)

// openLoanLimit caps the dashboard's currently-borrowed list.
const openLoanLimit = 50

// DashboardSnapshot reads the four status counts and the open-loan list in
// one transaction, so the dashboard never mixes counts and loans from
// different moments.
func (r *Repo) DashboardSnapshot(ctx context.Context) (*ledger.DashboardStats, error) {
	var stats ledger.DashboardStats
	err := r.withTx(ctx, func(tx *gorm.DB) error {
		counts := []struct {
			status models.RadioStatus
			dst    *int64
		}{
			{models.StatusAvailable, &stats.Available},
			{models.StatusOnLoan, &stats.OnLoan},
			{models.StatusDefect, &stats.Defect},
			{models.StatusMaintenance, &stats.Maintenance},
		}
		for _, c := range counts {
			if err := tx.Model(&models.Radio{}).
				Where("status = ?", c.status).
				Count(c.dst).Error; err != nil {
				return err
			}
		}

		return tx.
			Table(models.LoanTable+" l").
			Select(`l.id AS loan_id, l.radio_id, r.call_sign, r.device_type,
				l.borrower_name, l.borrowed_at`).
			Joins("JOIN "+models.RadioTable+" r ON r.id = l.radio_id").
			Where("l.returned_at IS NULL").
			Order("l.borrowed_at DESC").
			Limit(openLoanLimit).
			Scan(&stats.OpenLoans).Error
	})
	if err != nil {
		return nil, err
	}
	if stats.OpenLoans == nil {
		stats.OpenLoans = []ledger.OpenLoanRow{}
	}
	return &stats, nil
}

// HistoryPage runs the data and count queries on the same filter. They are
// deliberately independent reads, not one snapshot; see ledger.Store.
func (r *Repo) HistoryPage(ctx context.Context, f ledger.HistoryFilter, limit, offset int) ([]ledger.HistoryRow, int64, error) {
	q, cancel := r.read(ctx)
	defer cancel()

	base := func() *gorm.DB {
		t := q.Table(models.LoanTable + " l").
			Joins("JOIN " + models.RadioTable + " r ON r.id = l.radio_id")
		if f.RadioID != "" {
			t = t.Where("l.radio_id = ?", f.RadioID)
		}
		if f.From != nil {
			t = t.Where("l.borrowed_at >= ?", *f.From)
		}
		if f.To != nil {
			t = t.Where("l.borrowed_at <= ?", *f.To)
		}
		return t
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	var rows []ledger.HistoryRow
	if err := base().
		Select(`l.id AS loan_id, l.radio_id, r.call_sign, r.device_type,
			r.serial_number, r.status, l.borrower_name, l.borrowed_at,
			l.returned_at, l.return_note`).
		Order("l.borrowed_at DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, 0, classify(err)
	}
	return rows, total, nil
}

// BorrowerSuggestions groups historical loans by borrower name. The pattern
// arrives pre-escaped; ESCAPE makes the backslash escaping effective.
func (r *Repo) BorrowerSuggestions(ctx context.Context, pattern string, limit int) ([]ledger.Suggestion, error) {
	q, cancel := r.read(ctx)
	defer cancel()

	var out []ledger.Suggestion
	err := q.Table(models.LoanTable).
		Select("borrower_name, MAX(borrowed_at) AS last_borrowed_at").
		Where(`LOWER(borrower_name) LIKE ? ESCAPE '\'`, pattern).
		Group("borrower_name").
		Order("last_borrowed_at DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}
