package version

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// release is a parsed version: numeric core plus an optional pre-release tag.
type release struct {
	core []int
	pre  string
}

func parseRelease(s string) (release, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	s, _, _ = strings.Cut(s, "+")
	s, pre, _ := strings.Cut(s, "-")

	fields := strings.Split(s, ".")
	if len(fields) != 3 {
		return release{}, fmt.Errorf("version %q: want major.minor.patch", s)
	}

	core := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return release{}, fmt.Errorf("version %q: bad component %q", s, f)
		}
		core = append(core, n)
	}

	return release{core: core, pre: pre}, nil
}

// Compare orders two versions such as "v1.4.0" or "1.4.0-rc.1".
// Build metadata is ignored and a pre-release sorts before its release.
// It returns 1 if a > b, -1 if a < b and 0 if they are equal.
func Compare(a, b string) (int, error) {
	ra, err := parseRelease(a)
	if err != nil {
		return 0, err
	}

	rb, err := parseRelease(b)
	if err != nil {
		return 0, err
	}

	if c := slices.Compare(ra.core, rb.core); c != 0 {
		return c, nil
	}

	switch {
	case ra.pre == rb.pre:
		return 0, nil
	case ra.pre == "":
		return 1, nil
	case rb.pre == "":
		return -1, nil
	}

	return strings.Compare(ra.pre, rb.pre), nil
}
