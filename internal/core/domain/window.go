package domain

import "time"

// FetchWindow is a half-open time range [Start, End) handed to the adaptive
// fetcher. A nil Start means "beginning of time": the fetcher performs a
// plain forward-paginated full fetch with no time filtering. Windows exist
// only in memory; they are never persisted.
type FetchWindow struct {
	Start *time.Time
	End   time.Time
}

// Bounded reports whether the window has a lower bound.
func (w FetchWindow) Bounded() bool {
	return w.Start != nil
}

// Span returns the window duration. Unbounded windows report zero.
func (w FetchWindow) Span() time.Duration {
	if w.Start == nil {
		return 0
	}
	return w.End.Sub(*w.Start)
}

// Contains reports whether t falls inside [Start, End).
// Unbounded windows contain everything before End.
func (w FetchWindow) Contains(t time.Time) bool {
	if t.Equal(w.End) || t.After(w.End) {
		return false
	}
	if w.Start == nil {
		return true
	}
	return !t.Before(*w.Start)
}

// Split divides a bounded window into n equal sub-windows, oldest first.
// Splitting an unbounded window or n < 2 returns the window unchanged.
func (w FetchWindow) Split(n int) []FetchWindow {
	if w.Start == nil || n < 2 {
		return []FetchWindow{w}
	}
	span := w.End.Sub(*w.Start)
	if span <= 0 {
		return []FetchWindow{w}
	}
	step := span / time.Duration(n)
	if step <= 0 {
		return []FetchWindow{w}
	}

	windows := make([]FetchWindow, 0, n)
	cursor := *w.Start
	for i := 0; i < n; i++ {
		start := cursor
		end := start.Add(step)
		if i == n-1 {
			end = w.End // avoid rounding drift on the final slice
		}
		windows = append(windows, FetchWindow{Start: &start, End: end})
		cursor = end
	}
	return windows
}
