package registrations

import (
	"net/url"
	"strconv"
	"strings"
)

// PageSize is the fixed listing page size.
const PageSize = 5

// Filters narrow the registration listing. Zero values match everything:
// a nil EventID matches all events, an empty Status or Search matches all
// rows. Search matches the username by case-insensitive substring.
type Filters struct {
	EventID *int64
	Status  string
	Search  string
}

// ListQuery is the parsed query string of the listing endpoint.
type ListQuery struct {
	Filters Filters
	Page    int
	Export  bool
}

// ParseQuery reads the listing parameters. Absent or malformed values fall
// back to "no filter" and page 1 rather than erroring, so a hand-edited
// query string never breaks the page.
func ParseQuery(values url.Values) ListQuery {
	query := ListQuery{Page: 1}

	if raw := strings.TrimSpace(values.Get("event_id")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			query.Filters.EventID = &id
		}
	}

	status := strings.TrimSpace(values.Get("status"))
	if status == StatusPending || status == StatusApproved {
		query.Filters.Status = status
	}

	query.Filters.Search = strings.TrimSpace(values.Get("search"))

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			query.Page = page
		}
	}

	query.Export = values.Get("export") == "csv"
	return query
}

// TotalPages returns the number of pages for a result count.
func TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + PageSize - 1) / PageSize)
}
