package utils

import (
	"testing"
	"time"
)

func TestBuildReference(t *testing.T) {
	at := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	if got := BuildReference("QT", at, 17, 4); got != "QT2026080017" {
		t.Errorf("BuildReference = %q", got)
	}
	if got := BuildReference("PAY", at, 3, 6); got != "PAY202608000003" {
		t.Errorf("BuildReference = %q", got)
	}
}

func TestReferencePrefixUsesUTCMonth(t *testing.T) {
	// 23:30 on Aug 31 in UTC+2 is already September in local time but the
	// bucket stays with the UTC month.
	loc := time.FixedZone("UTC+2", 2*3600)
	at := time.Date(2026, 9, 1, 1, 30, 0, 0, loc)
	if got := ReferencePrefix("BK", at); got != "BK202608" {
		t.Errorf("ReferencePrefix = %q, want BK202608", got)
	}
}

func TestNextSequence(t *testing.T) {
	cases := []struct {
		lastRef string
		width   int
		want    int
	}{
		{"", 4, 1},
		{"QT2026080017", 4, 18},
		{"PAY202608000003", 6, 4},
		{"QT2026089999", 4, 10000},
		{"garbage", 4, 1},
		{"QT202608abcd", 4, 1},
	}
	for _, tc := range cases {
		if got := NextSequence(tc.lastRef, tc.width); got != tc.want {
			t.Errorf("NextSequence(%q, %d) = %d, want %d", tc.lastRef, tc.width, got, tc.want)
		}
	}
}

func TestRandomPasswordAvoidsLookAlikes(t *testing.T) {
	pw := RandomPassword(12)
	if len(pw) != 12 {
		t.Fatalf("length = %d", len(pw))
	}
	for _, c := range pw {
		switch c {
		case '0', 'O', 'o', '1', 'l', 'I':
			t.Errorf("password contains look-alike character %q", c)
		}
	}
	if RandomPassword(0) == "" {
		t.Error("zero length should fall back to a default")
	}
}
