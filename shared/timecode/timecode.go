// Package timecode converts between textual timecodes and seconds.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse converts "MM:SS" or "HH:MM:SS" into elapsed seconds. Anything it
// cannot read yields 0. A fractional part on any component is truncated,
// so "01:02.75" is 62.
func Parse(ts string) float64 {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return 0
	}

	parts := strings.Split(ts, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0
	}

	values := make([]int, len(parts))
	for i, p := range parts {
		v, ok := component(p)
		if !ok {
			return 0
		}
		values[i] = v
	}

	if len(values) == 2 {
		return float64(values[0]*60 + values[1])
	}
	return float64(values[0]*3600 + values[1]*60 + values[2])
}

// Looks reports whether s has the shape of a timecode Parse understands.
func Looks(s string) bool {
	s = strings.TrimSpace(s)
	n := strings.Count(s, ":")
	if n != 1 && n != 2 {
		return false
	}
	for _, p := range strings.Split(s, ":") {
		if _, ok := component(p); !ok {
			return false
		}
	}
	return true
}

func component(p string) (int, bool) {
	p = strings.TrimSpace(p)
	if i := strings.IndexByte(p, '.'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return 0, false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(p)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Format renders seconds as 0:04 or 1:23:45.
func Format(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "—"
	}
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	hrs := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60
	if hrs > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hrs, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// FormatClock renders seconds as MM:SS or HH:MM:SS, the shape Parse reads back.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	if total >= 3600 {
		return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
