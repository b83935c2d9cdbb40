// Package inventory enforces the radio lifecycle: validation before any
// store access, the status state machine, and the loan open/close paths.
package inventory

import (
	"context"
	"strings"

	"radio_fleet_tool/apperror"
	"radio_fleet_tool/models"

	"github.com/google/uuid"
)

const (
	DefaultTake = 50
	MaxTake     = 200
)

// Store is the write side of the relational store. Implementations classify
// their failures onto the apperror taxonomy and run every read-then-act
// sequence inside one transaction.
type Store interface {
	CreateRadio(ctx context.Context, radio *models.Radio) error
	UpdateRadio(ctx context.Context, id string, cols map[string]any) error
	UpdateRadioStatus(ctx context.Context, id string, status models.RadioStatus) error
	DeleteRadio(ctx context.Context, id string, force bool) error
	ListRadios(ctx context.Context, status *models.RadioStatus, take, skip int) ([]models.Radio, error)
	FindRadioByID(ctx context.Context, id string) (*models.Radio, error)

	BorrowRadio(ctx context.Context, radioID, borrowerName string) (*models.Loan, error)
	CloseLoan(ctx context.Context, loanID string, note *string) (*models.Loan, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

type CreateInput struct {
	CallSign     string  `json:"callSign"`
	SerialNumber *string `json:"serialNumber"`
	DeviceType   string  `json:"deviceType"`
	Notes        *string `json:"notes"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Radio, error) {
	callSign := strings.TrimSpace(in.CallSign)
	deviceType := strings.TrimSpace(in.DeviceType)
	if callSign == "" {
		return nil, apperror.Validation("call sign must not be blank")
	}
	if deviceType == "" {
		return nil, apperror.Validation("device type must not be blank")
	}

	radio := &models.Radio{
		ID:           uuid.NewString(),
		CallSign:     callSign,
		SerialNumber: in.SerialNumber,
		DeviceType:   deviceType,
		Notes:        in.Notes,
		Status:       models.StatusAvailable,
	}
	if err := s.store.CreateRadio(ctx, radio); err != nil {
		return nil, err
	}
	return radio, nil
}

// UpdateInput is a partial update: only fields the caller actually sent are
// applied. SerialNumber and Notes are nullable, so sending null clears them.
type UpdateInput struct {
	CallSign     Opt[string]  `json:"callSign"`
	SerialNumber Opt[*string] `json:"serialNumber"`
	DeviceType   Opt[string]  `json:"deviceType"`
	Notes        Opt[*string] `json:"notes"`
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Radio, error) {
	cols := map[string]any{}
	if in.CallSign.Set {
		v := strings.TrimSpace(in.CallSign.Value)
		if v == "" {
			return nil, apperror.Validation("call sign must not be blank")
		}
		cols["call_sign"] = v
	}
	if in.DeviceType.Set {
		v := strings.TrimSpace(in.DeviceType.Value)
		if v == "" {
			return nil, apperror.Validation("device type must not be blank")
		}
		cols["device_type"] = v
	}
	if in.SerialNumber.Set {
		cols["serial_number"] = in.SerialNumber.Value
	}
	if in.Notes.Set {
		cols["notes"] = in.Notes.Value
	}
	if len(cols) == 0 {
		return nil, apperror.Validation("no fields to update")
	}

	if err := s.store.UpdateRadio(ctx, id, cols); err != nil {
		return nil, err
	}
	return s.store.FindRadioByID(ctx, id)
}

// UpdateStatus rejects ON_LOAN before any store access: that state is only
// reachable through the borrow path.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.RadioStatus) error {
	if !status.Valid() {
		return apperror.Validation("unknown status")
	}
	if status == models.StatusOnLoan {
		return apperror.Validation("status ON_LOAN cannot be set directly")
	}
	return s.store.UpdateRadioStatus(ctx, id, status)
}

// Delete refuses to remove an on-loan radio unless force is set. The check
// itself lives inside the store transaction; see Store.DeleteRadio.
func (s *Service) Delete(ctx context.Context, id string, force bool) error {
	return s.store.DeleteRadio(ctx, id, force)
}

func (s *Service) FindAll(ctx context.Context, status *models.RadioStatus, take, skip int) ([]models.Radio, error) {
	if status != nil && !status.Valid() {
		return nil, apperror.Validation("unknown status")
	}
	if take < 1 {
		take = DefaultTake
	}
	if take > MaxTake {
		take = MaxTake
	}
	if skip < 0 {
		skip = 0
	}
	radios, err := s.store.ListRadios(ctx, status, take, skip)
	if err != nil {
		return nil, err
	}
	if radios == nil {
		radios = []models.Radio{}
	}
	return radios, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*models.Radio, error) {
	return s.store.FindRadioByID(ctx, id)
}

// Borrow is the loan-origination path: it is the only way a radio reaches
// ON_LOAN.
func (s *Service) Borrow(ctx context.Context, radioID, borrowerName string) (*models.Loan, error) {
	borrowerName = strings.TrimSpace(borrowerName)
	if borrowerName == "" {
		return nil, apperror.Validation("borrower name must not be blank")
	}
	return s.store.BorrowRadio(ctx, radioID, borrowerName)
}

// Return closes an open loan and releases the radio.
func (s *Service) Return(ctx context.Context, loanID string, note *string) (*models.Loan, error) {
	if note != nil {
		trimmed := strings.TrimSpace(*note)
		if trimmed == "" {
			note = nil
		} else {
			note = &trimmed
		}
	}
	return s.store.CloseLoan(ctx, loanID, note)
}
