package handler

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

const dateLayout = "2006-01-02"

// parseDate accepts YYYY-MM-DD (server local time) or RFC 3339. wholeDay
// reports whether the value named a calendar day rather than an instant.
func parseDate(value string) (t time.Time, wholeDay bool, err error) {
	if t, err := time.ParseInLocation(dateLayout, value, time.Local); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected YYYY-MM-DD or RFC 3339")
	}
	return t, false, nil
}

func optionalDate(q url.Values, key string) (*time.Time, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	t, _, err := parseDate(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &t, nil
}

// upperBound sets an inclusive end instant, or for a bare date the start of
// the following day as an exclusive bound.
func upperBound(q url.Values, key string, f *model.TransactionFilter) error {
	v := q.Get(key)
	if v == "" {
		return nil
	}
	t, wholeDay, err := parseDate(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if wholeDay {
		next := t.AddDate(0, 0, 1)
		f.EndBefore = &next
		return nil
	}
	f.EndDate = &t
	return nil
}

func intParam(q url.Values, key string, def int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", key)
	}
	return n, nil
}
