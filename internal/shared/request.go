package shared

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// OrgIDFromRequest extracts the organisation id from the route.
func OrgIDFromRequest(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, NewError(KindValidation, "invalid organisation id")
	}
	return id, nil
}

// GUIDFromRequest extracts a document guid route parameter.
func GUIDFromRequest(r *http.Request, name string) (uuid.UUID, error) {
	guid, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, NewError(KindValidation, "invalid document identifier")
	}
	return guid, nil
}

// DateRangeFromQuery parses from/to query parameters, defaulting to an
// open range when absent.
func DateRangeFromQuery(r *http.Request) (from, to time.Time, err error) {
	const layout = "2006-01-02"
	if v := r.URL.Query().Get("from"); v != "" {
		from, err = time.Parse(layout, v)
		if err != nil {
			return time.Time{}, time.Time{}, NewError(KindValidation, "invalid from date")
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err = time.Parse(layout, v)
		if err != nil {
			return time.Time{}, time.Time{}, NewError(KindValidation, "invalid to date")
		}
	} else {
		to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return from, to, nil
}
