package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

// parseTimestamp accepts RFC 3339 timestamps, with or without fractional
// seconds.
func parseTimestamp(name, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, types.WrapError(types.CodeBadRequest, name+" must be an RFC 3339 timestamp", err)
	}
	return t, nil
}

// rangeFromQuery reads the optional start and end query parameters; absent
// bounds fall back to the current UTC day.
func (s *Server) rangeFromQuery(r *http.Request) (types.TimeRange, error) {
	q := r.URL.Query()
	var start, end *time.Time
	if v := q.Get("start"); v != "" {
		t, err := parseTimestamp("start", v)
		if err != nil {
			return types.TimeRange{}, err
		}
		start = &t
	}
	if v := q.Get("end"); v != "" {
		t, err := parseTimestamp("end", v)
		if err != nil {
			return types.TimeRange{}, err
		}
		end = &t
	}
	rng := types.ResolveRange(start, end, s.now())
	if err := rng.Validate(); err != nil {
		return types.TimeRange{}, err
	}
	return rng, nil
}

// boolQuery reads an optional boolean query flag.
func boolQuery(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, types.WrapError(types.CodeBadRequest, name+" must be a boolean", err)
	}
	return b, nil
}
