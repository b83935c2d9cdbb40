// Package ledger reads aggregate views over the loan history: dashboard
// counts, the paginated history, and the borrower suggestion index. It never
// mutates anything.
package ledger

import (
	"context"
	"strings"
	"time"

	"radio_fleet_tool/models"
)

// DashboardStats is one consistent snapshot: the four status counts and the
// open-loan list are read inside a single store transaction.
type DashboardStats struct {
	Available   int64 `json:"available"`
	OnLoan      int64 `json:"onLoan"`
	Defect      int64 `json:"defect"`
	Maintenance int64 `json:"maintenance"`

	OpenLoans []OpenLoanRow `json:"openLoans"`
}

// OpenLoanRow is one currently-borrowed radio on the dashboard.
type OpenLoanRow struct {
	LoanID       string    `json:"loanId"`
	RadioID      string    `json:"radioId"`
	CallSign     string    `json:"callSign"`
	DeviceType   string    `json:"deviceType"`
	BorrowerName string    `json:"borrowerName"`
	BorrowedAt   time.Time `json:"borrowedAt"`
}

// HistoryRow is one loan joined with its radio's identity.
type HistoryRow struct {
	LoanID       string             `json:"loanId"`
	RadioID      string             `json:"radioId"`
	CallSign     string             `json:"callSign"`
	DeviceType   string             `json:"deviceType"`
	SerialNumber *string            `json:"serialNumber,omitempty"`
	Status       models.RadioStatus `json:"status"`
	BorrowerName string             `json:"borrowerName"`
	BorrowedAt   time.Time          `json:"borrowedAt"`
	ReturnedAt   *time.Time         `json:"returnedAt,omitempty"`
	ReturnNote   *string            `json:"returnNote,omitempty"`
}

// HistoryFilter is the validated filter shared by the data and count queries.
type HistoryFilter struct {
	RadioID string
	From    *time.Time
	To      *time.Time
}

type Suggestion struct {
	BorrowerName   string    `json:"borrowerName"`
	LastBorrowedAt time.Time `json:"lastBorrowedAt"`
}

// Store is the read side of the relational store.
type Store interface {
	// DashboardSnapshot reads counts and open loans in one transaction.
	DashboardSnapshot(ctx context.Context) (*DashboardStats, error)

	// HistoryPage returns one page plus the total count on the same filter.
	// The two queries are independent reads and are not guaranteed to be
	// point-in-time consistent with each other; acceptable for a display-only
	// aggregate.
	HistoryPage(ctx context.Context, f HistoryFilter, limit, offset int) ([]HistoryRow, int64, error)

	// BorrowerSuggestions matches the already-escaped pattern against
	// historical borrower names, grouped by name, newest first.
	BorrowerSuggestions(ctx context.Context, pattern string, limit int) ([]Suggestion, error)
}

// EscapeLike neutralizes the store's pattern wildcards in user input so a
// literal % or _ cannot broaden the match to the whole table. The backslash
// must go first.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
