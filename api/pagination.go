package api

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/errs"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// PaginatedResponse is the envelope of every paginated listing
type PaginatedResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// parsePage reads the page and limit query parameters. A limit below one is
// raised to one and a limit above maxPageSize is capped.
func parsePage(r *http.Request) (database.Page, error) {
	query := r.URL.Query()
	page := database.Page{Number: 1, Size: defaultPageSize}

	if raw := query.Get("page"); raw != "" {
		number, err := strconv.Atoi(raw)
		if err != nil || number < 1 {
			return page, errs.NewNotFoundError("invalid page")
		}
		page.Number = number
	}

	if raw := query.Get("limit"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil {
			page.Size = min(max(size, 1), maxPageSize)
		}
	}

	// The offset of such a page does not fit in an int, so it is past any result set
	if page.Number-1 > math.MaxInt/page.Size {
		return page, errs.NewNotFoundError("invalid page")
	}
	return page, nil
}

// newPaginatedResponse builds the envelope for one page of results. Asking
// for a page past the last one is a 404, except for page one of an empty set.
func newPaginatedResponse[T any](r *http.Request, page database.Page, total int64, results []T) (PaginatedResponse[T], error) {
	if page.Number > 1 && int64(page.Offset()) >= total {
		return PaginatedResponse[T]{}, errs.NewNotFoundError("invalid page")
	}
	if results == nil {
		results = []T{}
	}

	response := PaginatedResponse[T]{Count: total, Results: results}
	if int64(page.Offset()+len(results)) < total {
		next := pageURL(r, page.Number+1)
		response.Next = &next
	}
	if page.Number > 1 {
		previous := pageURL(r, page.Number-1)
		response.Previous = &previous
	}
	return response, nil
}

// pageURL returns the absolute URL of the current request pointed at another page
func pageURL(r *http.Request, number int) string {
	u := url.URL{
		Scheme: requestScheme(r),
		Host:   r.Host,
		Path:   r.URL.Path,
	}
	query := r.URL.Query()
	if number <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = query.Encode()
	return u.String()
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// absoluteURL resolves a path such as /media/x.png against the request host.
// Values that already carry a scheme are returned as is.
func absoluteURL(r *http.Request, location string) string {
	if location == "" {
		return ""
	}
	parsed, err := url.Parse(location)
	if err != nil || parsed.IsAbs() {
		return location
	}
	base := url.URL{Scheme: requestScheme(r), Host: r.Host, Path: "/"}
	return base.ResolveReference(parsed).String()
}
