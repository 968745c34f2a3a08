package domain

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad time %q: %v", s, err)
	}
	return ts
}

func TestFetchWindow_Split_Even(t *testing.T) {
	start := mustTime(t, "2026-01-01T00:00:00Z")
	end := mustTime(t, "2026-01-05T00:00:00Z")
	w := FetchWindow{Start: &start, End: end}

	parts := w.Split(4)
	if len(parts) != 4 {
		t.Fatalf("expected 4 sub-windows, got %d", len(parts))
	}
	if !parts[0].Start.Equal(start) {
		t.Errorf("first sub-window start = %v, want %v", parts[0].Start, start)
	}
	if !parts[3].End.Equal(end) {
		t.Errorf("last sub-window end = %v, want %v", parts[3].End, end)
	}
	for i := 1; i < len(parts); i++ {
		if !parts[i].Start.Equal(parts[i-1].End) {
			t.Errorf("sub-window %d does not abut previous: %v vs %v", i, parts[i].Start, parts[i-1].End)
		}
	}
	for i, p := range parts {
		if p.Span() != 24*time.Hour {
			t.Errorf("sub-window %d span = %v, want 24h", i, p.Span())
		}
	}
}

func TestFetchWindow_Split_Unbounded(t *testing.T) {
	w := FetchWindow{End: mustTime(t, "2026-01-01T00:00:00Z")}
	parts := w.Split(4)
	if len(parts) != 1 {
		t.Fatalf("unbounded window must not split, got %d parts", len(parts))
	}
}

func TestFetchWindow_Contains(t *testing.T) {
	start := mustTime(t, "2026-01-01T00:00:00Z")
	end := mustTime(t, "2026-01-02T00:00:00Z")
	w := FetchWindow{Start: &start, End: end}

	tests := []struct {
		name string
		at   string
		want bool
	}{
		{"at start", "2026-01-01T00:00:00Z", true},
		{"inside", "2026-01-01T12:00:00Z", true},
		{"at end is excluded", "2026-01-02T00:00:00Z", false},
		{"before start", "2025-12-31T23:59:59Z", false},
		{"after end", "2026-01-03T00:00:00Z", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(mustTime(t, tt.at)); got != tt.want {
				t.Errorf("Contains(%s) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestFetchWindow_Contains_Unbounded(t *testing.T) {
	w := FetchWindow{End: mustTime(t, "2026-01-02T00:00:00Z")}
	if !w.Contains(mustTime(t, "1999-01-01T00:00:00Z")) {
		t.Error("unbounded window should contain arbitrarily old timestamps")
	}
	if w.Contains(mustTime(t, "2026-01-02T00:00:00Z")) {
		t.Error("end must stay exclusive for unbounded windows")
	}
}
