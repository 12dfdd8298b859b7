// Package version implements dotted-numeric version string handling for
// elements ("1.0", "1.2", "2"). Comparison is component-wise numeric with the
// shorter sequence right-padded with zeros, so "1.10" > "1.9" and "2" > "1.9".
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Compare returns -1, 0, or 1 when a is lower than, equal to, or higher than
// b. ok is false when either string has a non-numeric component; callers must
// treat that as "not comparable" rather than an error.
func Compare(a, b string) (cmp int, ok bool) {
	as, aok := parse(a)
	bs, bok := parse(b)
	if !aok || !bok {
		return 0, false
	}
	for len(as) < len(bs) {
		as = append(as, 0)
	}
	for len(bs) < len(as) {
		bs = append(bs, 0)
	}
	for i := range as {
		if as[i] < bs[i] {
			return -1, true
		}
		if as[i] > bs[i] {
			return 1, true
		}
	}
	return 0, true
}

// Newer reports whether a is strictly newer than b. A malformed version on
// either side resolves to false (permissive fallback: "not newer").
func Newer(a, b string) bool {
	cmp, ok := Compare(a, b)
	return ok && cmp > 0
}

// Equal reports whether a and b denote the same version.
func Equal(a, b string) bool {
	cmp, ok := Compare(a, b)
	return ok && cmp == 0
}

// MinorBump increments the last numeric component: "1.2" -> "1.3", "2" ->
// "2.1" (a bare major gets a minor appended). A malformed version gets ".1"
// appended so branching never fails.
func MinorBump(v string) string {
	parts, ok := parse(v)
	if !ok {
		return v + ".1"
	}
	if len(parts) == 1 {
		return fmt.Sprintf("%d.1", parts[0])
	}
	parts[len(parts)-1]++
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = strconv.Itoa(p)
	}
	return strings.Join(strs, ".")
}

func parse(v string) ([]int, bool) {
	raw := strings.Split(strings.TrimSpace(v), ".")
	parts := make([]int, 0, len(raw))
	for _, r := range raw {
		n, err := strconv.Atoi(strings.TrimSpace(r))
		if err != nil || n < 0 {
			return nil, false
		}
		parts = append(parts, n)
	}
	if len(parts) == 0 {
		return nil, false
	}
	return parts, true
}
