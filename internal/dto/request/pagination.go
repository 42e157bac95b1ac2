package request

import (
	"net/url"
	"strings"

	"review-catalog/pkg/utils"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100

	// MaxPage keeps (page-1)*per_page well inside a Postgres OFFSET.
	MaxPage = 1_000_000
)

type PaginatedRequest struct {
	Page    int    `json:"page" validate:"min=1,max=1000000"`
	PerPage int    `json:"per_page" validate:"min=1,max=100"`
	Search  string `json:"search"`
}

// PaginationFromQuery reads page, per_page and search from the query string.
func PaginationFromQuery(query url.Values) PaginatedRequest {
	return PaginatedRequest{
		Page:    min(utils.ParseInt(query.Get("page"), 1), MaxPage),
		PerPage: utils.ParseInt(query.Get("per_page"), DefaultPerPage),
		Search:  strings.TrimSpace(query.Get("search")),
	}
}

func (p PaginatedRequest) Offset() int {
	return utils.CalculateOffset(p.page(), p.Limit())
}

func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		return MaxPerPage
	}
	return p.PerPage
}

func (p PaginatedRequest) page() int {
	if p.Page < 1 {
		return 1
	}
	return min(p.Page, MaxPage)
}
