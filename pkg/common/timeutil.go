// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"math"
	"strconv"
	"time"
)

// DurationToMillis converts d to fractional milliseconds, the unit level
// durations are persisted in.
//
// Example:
//   - Input: 1500 * time.Microsecond
//   - Output: 1.5
func DurationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// MillisToDuration converts fractional milliseconds back to a time.Duration.
// Sub-nanosecond precision is rounded away.
func MillisToDuration(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}

// FormatNumber renders a persisted double in the shortest form that parses
// back to the same value ("100", "12.5", "-1").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseNumber parses a persisted double written by FormatNumber.
func ParseNumber(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// FormatCount renders a persisted integer counter.
func FormatCount(n int) string {
	return strconv.Itoa(n)
}

// ParseCount parses a persisted integer counter.
func ParseCount(s string) (int, error) {
	return strconv.Atoi(s)
}
