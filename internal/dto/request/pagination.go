package request

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// PaginatedRequest is 1-based. Out-of-range values are rejected by
// validation; Limit and Offset still clamp for callers that skip it.
type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return defaultPerPage
	}
	return min(p.PerPage, maxPerPage)
}

func (p PaginatedRequest) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}
