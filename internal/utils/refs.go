package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reference numbers follow PREFIX + yyyymm + zero-padded per-month sequence,
// e.g. QT20260800017. The sequence restarts every month.

// ReferencePrefix returns the month bucket a reference belongs to,
// e.g. "QT202608".
func ReferencePrefix(prefix string, t time.Time) string {
	return prefix + t.UTC().Format("200601")
}

// BuildReference assembles a reference for the given month and sequence.
func BuildReference(prefix string, t time.Time, seq, width int) string {
	return fmt.Sprintf("%s%0*d", ReferencePrefix(prefix, t), width, seq)
}

// NextSequence extracts the trailing sequence of the latest reference in a
// month bucket and returns the next one. An empty or malformed reference
// starts the month at 1.
func NextSequence(lastRef string, width int) int {
	lastRef = strings.TrimSpace(lastRef)
	if len(lastRef) < width {
		return 1
	}
	n, err := strconv.Atoi(lastRef[len(lastRef)-width:])
	if err != nil || n < 0 {
		return 1
	}
	return n + 1
}
