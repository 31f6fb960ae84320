package service

import "math" // MaxInt bound for page numbers

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps Offset from overflowing at any limit
	MaxPage = math.MaxInt / MaxLimit
)

// PageRequest selects a page of a listing. Zero values mean defaults.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the request to 1 <= page <= MaxPage and 1 <= limit <= MaxLimit.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p PageRequest) Offset() int { return (p.Page - 1) * p.Limit }

// Pagination describes the page returned with a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func newPagination(p PageRequest, total int64) Pagination {
	return Pagination{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: int((total + int64(p.Limit) - 1) / int64(p.Limit)),
	}
}
