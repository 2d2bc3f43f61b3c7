package handler

import (
    "testing"
    "time"
)

func TestSplitCSV(t *testing.T) {
    cases := []struct {
        in   string
        want []string
    }{
        {"", nil},
        {"  ", nil},
        {"event", []string{"event"}},
        {"event,group", []string{"event", "group"}},
        {" event , ,group, ", []string{"event", "group"}},
    }
    for _, tc := range cases {
        got := splitCSV(tc.in)
        if len(got) != len(tc.want) {
            t.Errorf("splitCSV(%q) = %v, want %v", tc.in, got, tc.want)
            continue
        }
        for i := range got {
            if got[i] != tc.want[i] {
                t.Errorf("splitCSV(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
            }
        }
    }
}

func TestParseTimeParam(t *testing.T) {
    if got, err := parseTimeParam(""); err != nil || got != nil {
        t.Errorf("empty param should be nil, got %v, %v", got, err)
    }
    got, err := parseTimeParam("2026-03-01T10:00:00Z")
    if err != nil || got == nil {
        t.Fatalf("valid RFC3339 rejected: %v", err)
    }
    want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
    if !got.Equal(want) {
        t.Errorf("parsed %v, want %v", got, want)
    }
    if _, err := parseTimeParam("2026-03-01"); err == nil {
        t.Error("bare date should be rejected by the RFC3339 parser")
    }
}

func TestParseDateParam(t *testing.T) {
    got, err := parseDateParam("2026-03-01")
    if err != nil || got == nil {
        t.Fatalf("valid date rejected: %v", err)
    }
    if got.Year() != 2026 || got.Month() != 3 || got.Day() != 1 {
        t.Errorf("parsed %v, want 2026-03-01", got)
    }
    if _, err := parseDateParam("01/03/2026"); err == nil {
        t.Error("slash format should be rejected")
    }
}
