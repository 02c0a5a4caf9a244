package driver

import (
	"fmt"
	"strings"
)

// FailurePolicy says what a worker does when an operation misses
// (read of an absent key, duplicate insert, erase of an absent key)
type FailurePolicy int

const (
	// FailureIgnore drops misses silently
	FailureIgnore FailurePolicy = iota
	// FailureCount tallies misses per worker
	FailureCount
	// FailureLog emits a debug line per miss
	FailureLog
)

func (p FailurePolicy) String() string {
	switch p {
	case FailureIgnore:
		return "ignore"
	case FailureCount:
		return "count"
	case FailureLog:
		return "log"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParseFailurePolicy accepts ignore, count or log; empty means ignore
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return FailureIgnore, nil
	case "count":
		return FailureCount, nil
	case "log":
		return FailureLog, nil
	default:
		return FailureIgnore, fmt.Errorf("unknown failure policy %q", s)
	}
}
