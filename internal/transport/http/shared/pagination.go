package shared

import "net/http"

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit/offset, or page/pageSize when the client pages by
// number. Page numbers start at 1. Limits are clamped to maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	limit := QueryInt(r, "limit", 0)
	if limit <= 0 {
		limit = QueryInt(r, "pageSize", defaultLimit)
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	offset := QueryInt(r, "offset", -1)
	if offset < 0 {
		offset = 0
		if page := QueryInt(r, "page", 1); page > 1 {
			offset = (page - 1) * limit
		}
	}
	return Pagination{Limit: limit, Offset: offset}
}
