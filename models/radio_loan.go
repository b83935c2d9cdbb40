// models/radio_loan.go
package models

import "time"

const RadioTable = "rft_radios"
const LoanTable = "rft_loans"

// RadioStatus is the single source of truth for "is this radio currently
// borrowed". ON_LOAN is never a direct update target; it is only written by
// the borrow/return transactions.
type RadioStatus string

const (
	StatusAvailable   RadioStatus = "AVAILABLE"
	StatusOnLoan      RadioStatus = "ON_LOAN"
	StatusDefect      RadioStatus = "DEFECT"
	StatusMaintenance RadioStatus = "MAINTENANCE"
)

// Valid reports whether s is one of the four known statuses.
func (s RadioStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusOnLoan, StatusDefect, StatusMaintenance:
		return true
	}
	return false
}

type Radio struct {
	ID           string      `gorm:"type:uuid;primaryKey" json:"id"`
	CallSign     string      `gorm:"size:120;uniqueIndex;not null" json:"callSign"`
	SerialNumber *string     `gorm:"size:120" json:"serialNumber,omitempty"`
	DeviceType   string      `gorm:"size:200;not null" json:"deviceType"`
	Notes        *string     `gorm:"size:2000" json:"notes,omitempty"`
	Status       RadioStatus `gorm:"size:20;not null;default:'AVAILABLE';index" json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type Loan struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	RadioID      string     `gorm:"type:uuid;index;not null" json:"radioId"`
	BorrowerName string     `gorm:"size:200;not null" json:"borrowerName"`
	BorrowedAt   time.Time  `gorm:"index;not null" json:"borrowedAt"`
	ReturnedAt   *time.Time `gorm:"index" json:"returnedAt,omitempty"`
	ReturnNote   *string    `gorm:"size:500" json:"returnNote,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (Radio) TableName() string { return RadioTable }
func (Loan) TableName() string  { return LoanTable }
