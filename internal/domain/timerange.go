package domain

import (
	"fmt"
	"strings"
	"time"
)

// ResolveRange converts a Yahoo-style range string ("5d", "1mo", "ytd", "max", ...)
// into an absolute [start, end] window ending at now.
func ResolveRange(rng string, now time.Time) (time.Time, time.Time, error) {
	end := now
	switch strings.ToLower(strings.TrimSpace(rng)) {
	case "1d":
		return end.AddDate(0, 0, -1), end, nil
	case "5d":
		return end.AddDate(0, 0, -5), end, nil
	case "1mo":
		return end.AddDate(0, -1, 0), end, nil
	case "3mo":
		return end.AddDate(0, -3, 0), end, nil
	case "6mo":
		return end.AddDate(0, -6, 0), end, nil
	case "1y":
		return end.AddDate(-1, 0, 0), end, nil
	case "2y":
		return end.AddDate(-2, 0, 0), end, nil
	case "5y":
		return end.AddDate(-5, 0, 0), end, nil
	case "10y":
		return end.AddDate(-10, 0, 0), end, nil
	case "ytd":
		return time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, end.Location()), end, nil
	case "max":
		return time.Unix(0, 0).In(end.Location()), end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unsupported range %q", rng)
	}
}
