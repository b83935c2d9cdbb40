package ledger

import (
	"context"
	"strings"
	"time"

	"radio_fleet_tool/apperror"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 100
	MaxRangeDays    = 365

	DefaultSuggestionLimit = 10
	MaxSuggestionLimit     = 50
)

type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	return s.store.DashboardSnapshot(ctx)
}

// HistoryQuery carries the caller's raw filter input. RadioID/From/To are the
// untouched query strings; Page and PageSize already have the 1/100 defaults
// applied for omitted values.
type HistoryQuery struct {
	RadioID  string
	From     string
	To       string
	Page     int
	PageSize int
}

type HistoryPage struct {
	Items      []HistoryRow `json:"items"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
}

// History validates everything before the store sees anything, then reads one
// page plus the total matching count.
func (s *Service) History(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	f, err := validateHistoryFilter(q.RadioID, q.From, q.To)
	if err != nil {
		return nil, err
	}
	if q.Page < 1 || q.PageSize < 1 {
		return nil, apperror.Validation("page and pageSize must be at least 1")
	}
	pageSize := q.PageSize
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	offset := (q.Page - 1) * pageSize

	items, total, err := s.store.HistoryPage(ctx, f, pageSize, offset)
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if items == nil {
		items = []HistoryRow{}
	}
	return &HistoryPage{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func validateHistoryFilter(radioID, from, to string) (HistoryFilter, error) {
	var f HistoryFilter

	if radioID != "" {
		if _, err := uuid.Parse(radioID); err != nil {
			return f, apperror.Validation("invalid device id")
		}
		f.RadioID = radioID
	}
	if from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return f, apperror.Validation("invalid 'from' timestamp")
		}
		f.From = &t
	}
	if to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return f, apperror.Validation("invalid 'to' timestamp")
		}
		f.To = &t
	}
	// Both bounds present: order and width are checked together and fail as
	// one combined validation error.
	if f.From != nil && f.To != nil {
		if !f.From.Before(*f.To) || f.To.Sub(*f.From) > MaxRangeDays*24*time.Hour {
			return f, apperror.Validation("invalid date range")
		}
	}
	return f, nil
}

// Suggestions is best-effort input assistance over historical borrower
// names. A blank query yields no suggestions rather than the whole table.
func (s *Service) Suggestions(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Suggestion{}, nil
	}
	if limit < 1 {
		limit = DefaultSuggestionLimit
	}
	if limit > MaxSuggestionLimit {
		limit = MaxSuggestionLimit
	}
	pattern := "%" + EscapeLike(strings.ToLower(query)) + "%"
	out, err := s.store.BorrowerSuggestions(ctx, pattern, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Suggestion{}
	}
	return out, nil
}
